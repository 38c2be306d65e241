package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"recession-meter/internal/alerting"
	"recession-meter/internal/config"
	"recession-meter/internal/explain"
	"recession-meter/internal/fetcher"
	"recession-meter/internal/scheduler"
	"recession-meter/internal/service"
	"recession-meter/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.SeriesFetcher {
	return fetcher.NewFRED(fetcher.FREDOptions{
		BaseURL:   a.Config.FRED.BaseURL,
		APIKey:    a.Config.FRED.APIKey,
		Timeout:   a.Config.FRED.RequestTimeout,
		UserAgent: a.Config.FRED.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newExplainer() explain.Explainer {
	if !a.Config.LLM.Enabled {
		return nil
	}
	return explain.NewGroqExplainer(explain.GroqOptions{
		APIKey:  a.Config.LLM.APIKey,
		BaseURL: a.Config.LLM.BaseURL,
		Model:   a.Config.LLM.Model,
		Timeout: a.Config.LLM.RequestTimeout,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running refresh service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	var scoreStore storage.ScoreStore
	var eventStore storage.EventStore
	if store != nil {
		scoreStore = store
		eventStore = store
	}

	svc := service.New(a.Config, sched, a.newFetcher(), scoreStore, eventStore, a.newNotifier(), a.newExplainer(), a.Logger)

	a.Logger.Info().Msg("starting recession meter service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("recession meter service stopped")
	return nil
}

// EvaluateOptions configure a one-shot evaluation.
type EvaluateOptions struct {
	Countries []string
	TailRows  int
}

// ExportOptions hold parameters for exporting scored history.
type ExportOptions struct {
	Country   string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Country string
	Limit   int
}
