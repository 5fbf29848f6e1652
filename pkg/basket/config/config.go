// Package config loads basket configuration: layered settings (defaults,
// YAML file, BASKET_* environment variables) and the ingest resource files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cognicore/basket/internal/logging"
	"github.com/cognicore/basket/pkg/basket"
	"github.com/cognicore/basket/pkg/basket/internalerr"
)

// EnvPrefix prefixes every environment override, e.g. BASKET_MINING_TOP_K.
const EnvPrefix = "BASKET_"

// PathEnvVar names an explicit config file.
const PathEnvVar = "BASKET_CONFIG"

// DefaultPaths are tried in order when no path is given.
var DefaultPaths = []string{"basket.yaml", "basket.yml"}

// Config is the full configuration.
type Config struct {
	Mining MiningConfig `koanf:"mining"`
	Ingest IngestConfig `koanf:"ingest"`
	Fetch  FetchConfig  `koanf:"fetch"`
	Store  StoreConfig  `koanf:"store"`
	Log    LogConfig    `koanf:"log"`
}

// MiningConfig mirrors basket.Options.
type MiningConfig struct {
	MinSupport   float64 `koanf:"min_support"`
	MaxLen       int     `koanf:"max_len"`
	Metric       string  `koanf:"metric"`
	MinThreshold float64 `koanf:"min_threshold"`
	TopK         int     `koanf:"top_k"`
	SortBy       string  `koanf:"sort_by"`
	Ascending    bool    `koanf:"ascending"`
	PivotBy      string  `koanf:"pivot_by"`
}

// IngestConfig controls text → transaction extraction.
type IngestConfig struct {
	MinTokenLen  int      `koanf:"min_token_len"`
	Stopwords    []string `koanf:"stopwords"`
	StoplistPath string   `koanf:"stoplist_path"`
	DictPath     string   `koanf:"dict_path"`
	StripHTML    bool     `koanf:"strip_html"`
}

// FetchConfig controls comment collection.
type FetchConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	IncludeReplies    bool          `koanf:"include_replies"`
	MaxTotal          int           `koanf:"max_total"` // 0 means no cap
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`
	Timeout           time.Duration `koanf:"timeout"`
	ReplyWorkers      int           `koanf:"reply_workers"`
}

// StoreConfig controls report persistence. An empty Path disables it.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	o := basket.DefaultOptions()
	return &Config{
		Mining: MiningConfig{
			MinSupport:   o.MinSupport,
			MaxLen:       o.MaxLen,
			Metric:       o.Metric,
			MinThreshold: o.MinThreshold,
			TopK:         o.TopK,
			SortBy:       o.SortBy,
			Ascending:    o.Ascending,
			PivotBy:      o.PivotBy,
		},
		Ingest: IngestConfig{
			MinTokenLen: 2,
			StripHTML:   true,
		},
		Fetch: FetchConfig{
			BaseURL:           "https://www.googleapis.com/youtube/v3",
			IncludeReplies:    true,
			RequestsPerSecond: 5,
			MaxRetries:        5,
			Timeout:           20 * time.Second,
			ReplyWorkers:      4,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// MiningOptions converts the mining section to engine options.
func (c *Config) MiningOptions() basket.Options {
	m := c.Mining
	return basket.Options{
		MinSupport:   m.MinSupport,
		MaxLen:       m.MaxLen,
		Metric:       m.Metric,
		MinThreshold: m.MinThreshold,
		TopK:         m.TopK,
		SortBy:       m.SortBy,
		Ascending:    m.Ascending,
		PivotBy:      m.PivotBy,
	}
}

// Validate checks every section. Mining failures keep their
// *internalerr.ParamError so callers can name the offending field.
func (c *Config) Validate() error {
	if err := c.MiningOptions().Validate(); err != nil {
		return fmt.Errorf("%w: mining: %w", internalerr.ErrInvalidConfig, err)
	}
	if c.Ingest.MinTokenLen < 1 {
		return fmt.Errorf("%w: ingest.min_token_len must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Ingest.MinTokenLen)
	}
	f := c.Fetch
	switch {
	case f.MaxTotal < 0:
		return fmt.Errorf("%w: fetch.max_total must be >= 0", internalerr.ErrInvalidConfig)
	case f.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: fetch.requests_per_second must be > 0", internalerr.ErrInvalidConfig)
	case f.MaxRetries < 0:
		return fmt.Errorf("%w: fetch.max_retries must be >= 0", internalerr.ErrInvalidConfig)
	case f.Timeout <= 0:
		return fmt.Errorf("%w: fetch.timeout must be > 0", internalerr.ErrInvalidConfig)
	case f.ReplyWorkers < 1:
		return fmt.Errorf("%w: fetch.reply_workers must be >= 1", internalerr.ErrInvalidConfig)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: unknown log.level %q", internalerr.ErrInvalidConfig, c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: log.format must be json or console, got %q", internalerr.ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Load layers defaults, the YAML file at path (or the first of
// BASKET_CONFIG and DefaultPaths that exists, when path is empty) and
// BASKET_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps BASKET_MINING_MIN_SUPPORT to mining.min_support. Section
// names contain no underscore, so the first one splits section from field.
// BASKET_CONFIG names the file and is dropped.
func envKey(key string) string {
	if key == PathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}

var sliceFields = []string{"ingest.stopwords"}

// splitSliceFields turns comma-separated environment values into lists.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
