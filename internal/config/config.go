// Package config loads application configuration from config.yaml, the
// environment (RECON_ prefix) and an optional .env file, in ascending
// precedence, and owns the global logger setup.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Sheets SheetsConfig `yaml:"sheets" mapstructure:"sheets"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig names the reconciliation inputs and how to parse them.
type DataConfig struct {
	Roster         string `yaml:"roster" mapstructure:"roster"`
	Subscriptions  string `yaml:"subscriptions" mapstructure:"subscriptions"`
	Overrides      string `yaml:"overrides" mapstructure:"overrides"`
	IDColumn       string `yaml:"id_column" mapstructure:"id_column"`
	NameColumn     string `yaml:"name_column" mapstructure:"name_column"`
	ExpensedColumn string `yaml:"expensed_column" mapstructure:"expensed_column"`
	SkipRows       int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	NameIndex      int    `yaml:"name_index" mapstructure:"name_index"`
}

// MatchConfig tunes the fuzzy matcher.
type MatchConfig struct {
	Threshold int `yaml:"threshold" mapstructure:"threshold"`
	Workers   int `yaml:"workers" mapstructure:"workers"`
}

// ReportConfig selects the emitted artifacts.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	XLSX      bool   `yaml:"xlsx" mapstructure:"xlsx"`
	Markdown  bool   `yaml:"markdown" mapstructure:"markdown"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	Path     string `yaml:"path" mapstructure:"path"` // sqlite file
	DSN      string `yaml:"dsn" mapstructure:"dsn"`   // postgres connection string
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SheetsConfig configures Google Sheets export downloads. BaseURL replaces
// the docs.google.com endpoint, for proxies.
type SheetsConfig struct {
	SheetID   string  `yaml:"sheet_id" mapstructure:"sheet_id"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// A local .env participates in AutomaticEnv below. Absence is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Empty-string entries register the key so the matching
	// RECON_* variable binds even without a config file.
	v.SetDefault("data.roster", "")
	v.SetDefault("data.subscriptions", "")
	v.SetDefault("data.overrides", "")
	v.SetDefault("data.id_column", "id")
	v.SetDefault("data.name_column", "name")
	v.SetDefault("data.expensed_column", "expensed")
	v.SetDefault("data.skip_rows", 9)
	v.SetDefault("data.name_index", 2)
	v.SetDefault("match.threshold", 85)
	v.SetDefault("match.workers", 4)
	v.SetDefault("report.output_dir", "out")
	v.SetDefault("report.xlsx", false)
	v.SetDefault("report.markdown", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "recon.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("sheets.sheet_id", "")
	v.SetDefault("sheets.base_url", "")
	v.SetDefault("sheets.rate_limit", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
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
