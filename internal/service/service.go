package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"recession-meter/internal/alerting"
	"recession-meter/internal/config"
	"recession-meter/internal/derive"
	"recession-meter/internal/explain"
	"recession-meter/internal/fetcher"
	"recession-meter/internal/risk"
	"recession-meter/internal/scheduler"
	"recession-meter/internal/series"
	"recession-meter/internal/storage"
)

// ErrDatasetEmpty indicates that no indicator of a dataset could be sourced.
var ErrDatasetEmpty = errors.New("service: no indicators available for dataset")

// Evaluation is the full outcome of scoring one country dataset.
type Evaluation struct {
	Country     string
	Frame       *series.Frame
	Result      *risk.Result
	Events      []risk.Event
	Snapshot    risk.Snapshot
	Explanation string
	// Warnings lists non-fatal degradations (dropped indicators etc.).
	Warnings []string
}

// Service orchestrates fetching, scoring, persistence, alerting, and explanation.
type Service struct {
	scheduler  *scheduler.Scheduler
	fetcher    fetcher.SeriesFetcher
	store      storage.ScoreStore
	eventStore storage.EventStore
	notifier   alerting.Notifier
	explainer  explain.Explainer
	logger     zerolog.Logger

	datasets map[string]config.DatasetConfig
	scoring  config.ScoringConfig
	channels []string
	alertsOn bool
	locker   storage.AdvisoryLocker
	lockKey  int64
}

// New constructs the evaluation service.
func New(cfg *config.Config, sched *scheduler.Scheduler, seriesFetcher fetcher.SeriesFetcher, store storage.ScoreStore, eventStore storage.EventStore, notifier alerting.Notifier, explainer explain.Explainer, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		fetcher:    seriesFetcher,
		store:      store,
		eventStore: eventStore,
		notifier:   notifier,
		explainer:  explainer,
		logger:     logger.With().Str("component", "service").Logger(),
		datasets:   cfg.Datasets,
		scoring:    cfg.Scoring,
		channels:   cfg.Alerting.Channels,
		alertsOn:   cfg.Alerting.Enabled,
		locker:     locker,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the aligned refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessCycle)
}

// ProcessCycle 执行一次全量数据集刷新。
func (s *Service) ProcessCycle(ctx context.Context, cycle time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("cycle", cycle).Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	for _, country := range s.Countries() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.EvaluateCountry(ctx, country); err != nil {
			// One failed dataset never aborts the others.
			s.logger.Warn().Err(err).Str("country", country).Msg("dataset skipped")
		}
	}
	return nil
}

// Countries lists configured datasets in stable order.
func (s *Service) Countries() []string {
	countries := make([]string, 0, len(s.datasets))
	for country := range s.datasets {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	return countries
}

// EvaluateCountry runs the full pipeline for one dataset: fetch, align,
// derive, score, detect events, snapshot, persist, alert, explain.
func (s *Service) EvaluateCountry(ctx context.Context, country string) (*Evaluation, error) {
	ds, ok := s.datasets[country]
	if !ok {
		return nil, fmt.Errorf("dataset %q not configured", country)
	}

	eval := &Evaluation{Country: country}

	raw := s.fetchIndicators(ctx, country, ds, eval)
	frame, err := series.Align(raw)
	if err != nil {
		if errors.Is(err, series.ErrNoData) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetEmpty, country)
		}
		return nil, err
	}
	eval.Frame = frame

	s.appendDerived(frame, ds.Derived, country)

	scorer := risk.NewScorer(risk.Config{
		Indicators:      scoringIndicators(ds.Indicators),
		SpreadName:      ds.Derived.SpreadName,
		ClipLimit:       s.scoring.ClipLimit,
		InversionFactor: s.scoring.InversionFactor,
		EventThreshold:  s.scoring.EventThreshold,
	})

	result, err := scorer.Score(frame)
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", country, err)
	}
	eval.Result = result
	eval.Events = scorer.DetectEvents(result)
	eval.Snapshot = risk.Extract(frame, result)

	s.logger.Info().Str("country", country).
		Int("dates", frame.Len()).
		Int("indicators", len(frame.Columns())).
		Int("events", len(eval.Events)).
		Float64("latest_score", eval.Snapshot.Score).
		Msg("dataset evaluated")

	s.persist(ctx, eval)
	s.alert(ctx, eval)
	s.explain(ctx, eval)

	return eval, nil
}

// fetchIndicators sources every coded indicator, dropping unavailable ones
// with a warning instead of failing the dataset.
func (s *Service) fetchIndicators(ctx context.Context, country string, ds config.DatasetConfig, eval *Evaluation) []series.Series {
	raw := make([]series.Series, 0, len(ds.Indicators))
	for _, ind := range ds.Indicators {
		if ind.Code == "" {
			continue
		}
		fetched, err := s.fetcher.FetchSeries(ctx, ind.Code)
		if err != nil {
			warning := fmt.Sprintf("not available: %s (%s) in %s", ind.Name, ind.Code, country)
			eval.Warnings = append(eval.Warnings, warning)
			s.logger.Warn().Err(err).
				Str("country", country).
				Str("indicator", ind.Name).
				Str("code", ind.Code).
				Msg("indicator dropped")
			continue
		}
		fetched.Name = ind.Name
		raw = append(raw, fetched)
	}
	return raw
}

func (s *Service) appendDerived(frame *series.Frame, d config.DerivedConfig, country string) {
	if d.PriceColumn != "" && d.InflationName != "" {
		added, err := derive.AppendAnnualRate(frame, d.PriceColumn, d.InflationName)
		if err != nil {
			s.logger.Warn().Err(err).Str("country", country).Msg("annual rate column not added")
		} else if !added {
			s.logger.Debug().Str("country", country).Str("column", d.PriceColumn).Msg("annual rate prerequisite missing")
		}
	}
	if d.SpreadLong != "" && d.SpreadShort != "" && d.SpreadName != "" {
		added, err := derive.AppendSpread(frame, d.SpreadLong, d.SpreadShort, d.SpreadName)
		if err != nil {
			s.logger.Warn().Err(err).Str("country", country).Msg("spread column not added")
		} else if !added {
			s.logger.Debug().Str("country", country).Str("column", d.SpreadName).Msg("spread prerequisite missing")
		}
	}
}

func (s *Service) persist(ctx context.Context, eval *Evaluation) {
	if s.store != nil {
		rows := make([]storage.ScoreRow, len(eval.Result.Scores))
		for i, score := range eval.Result.Scores {
			rows[i] = storage.ScoreRow{
				Country:   eval.Country,
				ScoreDate: eval.Result.Dates[i],
				Score:     score,
			}
		}
		if err := s.store.UpsertScores(ctx, rows); err != nil {
			s.logger.Error().Err(err).Str("country", eval.Country).Msg("failed to persist scores")
		}
	}

	if s.eventStore != nil {
		for _, ev := range eval.Events {
			record := storage.EventRow{
				Country:   eval.Country,
				EventDate: ev.Date,
				Score:     ev.Score,
				Delta:     ev.Delta,
				Dominant:  ev.Dominant,
			}
			if _, err := s.eventStore.UpsertEvent(ctx, record); err != nil {
				s.logger.Error().Err(err).Str("country", eval.Country).Time("date", ev.Date).Msg("failed to persist event")
			}
		}
	}
}

// alert notifies only events landing on the frame's final date; historical
// escalations are persisted but not re-announced on every refresh.
func (s *Service) alert(ctx context.Context, eval *Evaluation) {
	if !s.alertsOn || s.notifier == nil || len(eval.Events) == 0 {
		return
	}

	latest := eval.Events[len(eval.Events)-1]
	if !latest.Date.Equal(eval.Snapshot.Date) {
		return
	}

	note := alerting.Notification{
		Country:      eval.Country,
		Date:         latest.Date,
		Score:        latest.Score,
		Delta:        latest.Delta,
		ThresholdPts: s.scoring.EventThreshold,
		Dominant:     latest.Dominant,
		Channels:     s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("country", eval.Country).Msg("failed to dispatch alert")
	}
}

func (s *Service) explain(ctx context.Context, eval *Evaluation) {
	if s.explainer == nil {
		return
	}
	text, err := s.explainer.Explain(ctx, eval.Country, eval.Snapshot)
	if err != nil {
		s.logger.Warn().Err(err).Str("country", eval.Country).Msg("risk explanation unavailable")
		return
	}
	eval.Explanation = text
}

func scoringIndicators(configured []config.IndicatorConfig) []risk.Indicator {
	indicators := make([]risk.Indicator, len(configured))
	for i, ind := range configured {
		indicators[i] = risk.Indicator{
			Name:       ind.Name,
			Weight:     ind.Weight,
			RiskRising: ind.RiskRising,
		}
	}
	return indicators
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
