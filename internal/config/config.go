// Package config loads application configuration from file and
// environment and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ledger    LedgerConfig    `yaml:"ledger" mapstructure:"ledger"`
	Sources   []SourceConfig  `yaml:"sources" mapstructure:"sources"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Apollo    ApolloConfig    `yaml:"apollo" mapstructure:"apollo"`
	Lusha     LushaConfig     `yaml:"lusha" mapstructure:"lusha"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// LedgerConfig configures the delivery ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int    `yaml:"min_conns" mapstructure:"min_conns"`
	HorizonDays int    `yaml:"horizon_days" mapstructure:"horizon_days"`
}

// Horizon returns the redelivery suppression window as a duration.
func (c LedgerConfig) Horizon() time.Duration {
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

// SourceConfig describes one posting feed.
type SourceConfig struct {
	Name        string  `yaml:"name" mapstructure:"name"`
	Type        string  `yaml:"type" mapstructure:"type"` // http, ftp, file
	URL         string  `yaml:"url" mapstructure:"url"`
	Path        string  `yaml:"path" mapstructure:"path"`
	User        string  `yaml:"user" mapstructure:"user"`
	Password    string  `yaml:"password" mapstructure:"password"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScoringConfig configures the pain scoring engine.
type ScoringConfig struct {
	// RulePath points at a YAML rule table. Empty means built-in
	// defaults.
	RulePath string `yaml:"rule_path" mapstructure:"rule_path"`
}

// EnrichConfig configures the contact enrichment orchestrator.
type EnrichConfig struct {
	MinContacts          int     `yaml:"min_contacts" mapstructure:"min_contacts"`
	MinReachableFraction float64 `yaml:"min_reachable_fraction" mapstructure:"min_reachable_fraction"`
	Concurrency          int     `yaml:"concurrency" mapstructure:"concurrency"`
	ProviderRPS          float64 `yaml:"provider_rps" mapstructure:"provider_rps"`
	ProviderBurst        int     `yaml:"provider_burst" mapstructure:"provider_burst"`
	RateLimitRequeues    int     `yaml:"rate_limit_requeues" mapstructure:"rate_limit_requeues"`
}

// ApolloConfig holds Apollo API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LushaConfig holds Lusha API settings.
type LushaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings for the summary fallback.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds Notion API credentials and the review queue
// database ID.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReviewDB string `yaml:"review_db" mapstructure:"review_db"`
}

// ExportConfig configures the export directory.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the trigger/health server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.path", "leadgen.db")
	v.SetDefault("ledger.max_conns", 4)
	v.SetDefault("ledger.min_conns", 1)
	v.SetDefault("ledger.horizon_days", 365)
	v.SetDefault("enrich.min_contacts", 3)
	v.SetDefault("enrich.min_reachable_fraction", 0.6)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.provider_rps", 1)
	v.SetDefault("enrich.provider_burst", 1)
	v.SetDefault("enrich.rate_limit_requeues", 2)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("lusha.base_url", "https://api.lusha.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	// Secrets arrive via LEADGEN_* env vars; registering the keys lets
	// AutomaticEnv feed them through Unmarshal.
	for _, key := range []string{
		"ledger.database_url",
		"scoring.rule_path",
		"apollo.key",
		"lusha.key",
		"anthropic.key",
		"gemini.key",
		"notion.token",
		"notion.review_db",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("export.dir", "exports")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
