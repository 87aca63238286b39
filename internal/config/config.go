// Package config loads Lambda settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendOpenSearch = "opensearch"
	BackendBleve      = "bleve"
)

type Config struct {
	Region      string       `mapstructure:"region"`
	Bucket      string       `mapstructure:"bucket"`
	Index       IndexConfig  `mapstructure:"index"`
	Lex         LexConfig    `mapstructure:"lex"`
	Labels      LabelsConfig `mapstructure:"labels"`
	Exif        ExifConfig   `mapstructure:"exif"`
	Sync        SyncConfig   `mapstructure:"sync"`
	SearchLimit int          `mapstructure:"search_limit"`
	LogLevel    string       `mapstructure:"log_level"`
}

type IndexConfig struct {
	Backend   string `mapstructure:"backend"`
	Endpoint  string `mapstructure:"endpoint"`
	Name      string `mapstructure:"name"`
	BlevePath string `mapstructure:"bleve_path"`
}

type LexConfig struct {
	BotID      string `mapstructure:"bot_id"`
	BotAliasID string `mapstructure:"bot_alias_id"`
	LocaleID   string `mapstructure:"locale_id"`
}

type LabelsConfig struct {
	MaxLabels     int     `mapstructure:"max_labels"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	MetadataKey   string  `mapstructure:"metadata_key"`
}

type ExifConfig struct {
	Enabled     bool  `mapstructure:"enabled"`
	PrefixBytes int64 `mapstructure:"prefix_bytes"`
}

type SyncConfig struct {
	// DryRun reports orphans without deleting them.
	DryRun bool `mapstructure:"dry_run"`
}

type setting struct {
	key   string
	env   string
	value interface{}
}

var settings = []setting{
	{"region", "AWS_REGION", "us-east-1"},
	{"bucket", "BUCKET_NAME", ""},
	{"index.backend", "INDEX_BACKEND", BackendOpenSearch},
	{"index.endpoint", "OPENSEARCH_ENDPOINT", ""},
	{"index.name", "OPENSEARCH_INDEX", "photos"},
	{"index.bleve_path", "BLEVE_PATH", ""},
	{"lex.bot_id", "LEX_BOT_ID", ""},
	{"lex.bot_alias_id", "LEX_BOT_ALIAS_ID", "TSTALIASID"},
	{"lex.locale_id", "LEX_LOCALE_ID", "en_US"},
	{"labels.max_labels", "MAX_LABELS", 10},
	{"labels.min_confidence", "MIN_CONFIDENCE", 70.0},
	{"labels.metadata_key", "CUSTOM_LABELS_KEY", "customlabels"},
	{"exif.enabled", "EXIF_ENABLED", true},
	{"exif.prefix_bytes", "EXIF_PREFIX_BYTES", 64 * 1024},
	{"sync.dry_run", "SYNC_DRY_RUN", false},
	{"search_limit", "SEARCH_LIMIT", 50},
	{"log_level", "LOG_LEVEL", "info"},
}

// Load reads the configuration from the environment (OPENSEARCH_ENDPOINT,
// LEX_BOT_ID, ...), falling back to defaults.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	for _, s := range settings {
		v.SetDefault(s.key, s.value)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Index.Backend = strings.ToLower(strings.TrimSpace(cfg.Index.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the Lambdas cannot run with.
func (c Config) Validate() error {
	switch c.Index.Backend {
	case BackendOpenSearch, BackendBleve:
	default:
		return fmt.Errorf("unknown INDEX_BACKEND %q", c.Index.Backend)
	}
	if c.Labels.MaxLabels <= 0 {
		return fmt.Errorf("MAX_LABELS must be positive, got %d", c.Labels.MaxLabels)
	}
	if c.Labels.MinConfidence < 0 || c.Labels.MinConfidence > 100 {
		return fmt.Errorf("MIN_CONFIDENCE must be within 0-100, got %v", c.Labels.MinConfidence)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	return nil
}

// IndexConfigured reports whether a search index is available.
func (c Config) IndexConfigured() bool {
	return c.Index.Backend == BackendBleve || c.Index.Endpoint != ""
}
