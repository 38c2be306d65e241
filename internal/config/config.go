package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"recession-meter/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig                `mapstructure:"app"`
	Logging   logging.Config           `mapstructure:"logging"`
	Database  DatabaseConfig           `mapstructure:"database"`
	Scheduler SchedulerConfig          `mapstructure:"scheduler"`
	FRED      FREDConfig               `mapstructure:"fred"`
	LLM       LLMConfig                `mapstructure:"llm"`
	Scoring   ScoringConfig            `mapstructure:"scoring"`
	Alerting  AlertingConfig           `mapstructure:"alerting"`
	Export    ExportConfig             `mapstructure:"export"`
	Datasets  map[string]DatasetConfig `mapstructure:"datasets"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs refresh cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// FREDConfig covers series data access.
type FREDConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// LLMConfig captures the explanation generator connectivity.
type LLMConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ScoringConfig tunes the composite risk formula.
type ScoringConfig struct {
	ClipLimit       float64 `mapstructure:"clip_limit"`
	InversionFactor float64 `mapstructure:"inversion_factor"`
	EventThreshold  float64 `mapstructure:"event_threshold"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// DatasetConfig defines one country's indicator basket.
type DatasetConfig struct {
	Indicators []IndicatorConfig `mapstructure:"indicators"`
	Derived    DerivedConfig     `mapstructure:"derived"`
}

// IndicatorConfig maps a named indicator onto its source code and scoring
// parameters. Derived indicators carry no source code.
type IndicatorConfig struct {
	Name string `mapstructure:"name"`
	// Code is the FRED series identifier; empty for derived-only indicators.
	Code   string  `mapstructure:"code"`
	Weight float64 `mapstructure:"weight"`
	// RiskRising is true when a rising value means more recession risk.
	RiskRising bool `mapstructure:"risk_rising"`
}

// DerivedConfig designates the derived-column inputs for one dataset.
type DerivedConfig struct {
	PriceColumn   string `mapstructure:"price_column"`
	InflationName string `mapstructure:"inflation_name"`
	SpreadLong    string `mapstructure:"spread_long"`
	SpreadShort   string `mapstructure:"spread_short"`
	SpreadName    string `mapstructure:"spread_name"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECESSIONMETER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Datasets) == 0 {
		cfg.Datasets = DefaultDatasets()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "recessionmeter")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "24h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x72656373))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("fred.base_url", "https://api.stlouisfed.org")
	v.SetDefault("fred.request_timeout", "30s")
	v.SetDefault("fred.user_agent", "recessionmeter/1.0")

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama3-70b-8192")
	v.SetDefault("llm.request_timeout", "30s")

	v.SetDefault("scoring.clip_limit", 0.2)
	v.SetDefault("scoring.inversion_factor", 0.5)
	v.SetDefault("scoring.event_threshold", 5.0)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Scoring.ClipLimit <= 0 {
		return fmt.Errorf("scoring.clip_limit must be greater than zero")
	}
	if c.Scoring.EventThreshold <= 0 {
		return fmt.Errorf("scoring.event_threshold must be greater than zero")
	}
	for country, ds := range c.Datasets {
		if len(ds.Indicators) == 0 {
			return fmt.Errorf("dataset %q has no indicators", country)
		}
		for _, ind := range ds.Indicators {
			if ind.Name == "" {
				return fmt.Errorf("dataset %q contains an unnamed indicator", country)
			}
			if ind.Weight <= 0 {
				return fmt.Errorf("indicator %q in dataset %q must have positive weight", ind.Name, country)
			}
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
