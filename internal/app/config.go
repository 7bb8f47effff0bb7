package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

// Config is the effective configuration, resolved once at startup. Each key
// is looked up through an ordered provider chain: settings file, then
// environment, then the built-in default. Nothing re-resolves at runtime.
type Config struct {
	HTTPAddr    string
	LogMode     string
	CORSOrigins []string

	DatabaseID string

	RecordStoreBaseURL string
	RecordStoreToken   string
	RecordStoreTimeout time.Duration

	FetchdBaseURL string
	FetchdTimeout time.Duration
	FetchWaitHint time.Duration

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAIMaxTokens   int
	OpenAITimeout     time.Duration

	ExtractMaxRetries int
	ExtractRetryDelay time.Duration

	FuzzyThreshold float64
	MaxTextLength  int
	StrictMode     bool

	SchemaCacheTTL     time.Duration
	SchemaCacheMaxSize int

	MaxConcurrency int64
}

type provider interface {
	lookup(key string) (string, bool)
}

// fileProvider serves keys from an optional YAML settings file, a flat map of
// snake_case keys.
type fileProvider map[string]string

func loadFileProvider(path string, log *logger.Logger) fileProvider {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("settings file not loaded", "path", path, "error", err)
		return nil
	}
	var parsed map[string]any
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		log.Warn("settings file not parsed", "path", path, "error", err)
		return nil
	}
	fp := make(fileProvider, len(parsed))
	for k, v := range parsed {
		fp[strings.ToLower(k)] = fmt.Sprintf("%v", v)
	}
	log.Info("settings file loaded", "path", path, "keys", len(fp))
	return fp
}

func (f fileProvider) lookup(key string) (string, bool) {
	v, ok := f[key]
	return v, ok && v != ""
}

type envProvider struct{}

func (envProvider) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(strings.ToUpper(key))
	return v, ok && v != ""
}

type resolver struct {
	providers []provider
	log       *logger.Logger
}

func (r *resolver) str(key, def string) string {
	for _, p := range r.providers {
		if v, ok := p.lookup(key); ok {
			return v
		}
	}
	return def
}

func (r *resolver) num(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.log.Warn("invalid integer setting, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func (r *resolver) float(key string, def float64) float64 {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.log.Warn("invalid float setting, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func (r *resolver) boolean(key string, def bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.log.Warn("invalid boolean setting, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func (r *resolver) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	if v, err := time.ParseDuration(raw); err == nil {
		return v
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	r.log.Warn("invalid duration setting, using default", "key", key, "value", raw, "default", def)
	return def
}

// LoadConfig resolves every setting eagerly. The settings file path itself
// comes from SETTINGS_FILE and is optional.
func LoadConfig(log *logger.Logger) (Config, error) {
	providers := []provider{}
	if fp := loadFileProvider(os.Getenv("SETTINGS_FILE"), log); fp != nil {
		providers = append(providers, fp)
	}
	providers = append(providers, envProvider{})
	r := &resolver{providers: providers, log: log}

	cfg := Config{
		HTTPAddr: r.str("http_addr", ":8080"),
		LogMode:  r.str("log_mode", "development"),

		DatabaseID: r.str("database_id", ""),

		RecordStoreBaseURL: r.str("record_store_base_url", ""),
		RecordStoreToken:   r.str("record_store_token", ""),
		RecordStoreTimeout: r.duration("record_store_timeout", 30*time.Second),

		FetchdBaseURL: r.str("fetchd_base_url", ""),
		FetchdTimeout: r.duration("fetchd_timeout", 90*time.Second),
		FetchWaitHint: r.duration("fetch_wait_hint", 3*time.Second),

		OpenAIAPIKey:      r.str("openai_api_key", ""),
		OpenAIBaseURL:     r.str("openai_base_url", ""),
		OpenAIModel:       r.str("openai_model", "gpt-4o-mini"),
		OpenAITemperature: r.float("openai_temperature", 0.1),
		OpenAIMaxTokens:   r.num("openai_max_tokens", 2000),
		OpenAITimeout:     r.duration("openai_timeout", 60*time.Second),

		ExtractMaxRetries: r.num("extract_max_retries", 2),
		ExtractRetryDelay: r.duration("extract_retry_delay", 2*time.Second),

		FuzzyThreshold: r.float("fuzzy_threshold", 70),
		MaxTextLength:  r.num("max_text_length", 2000),
		StrictMode:     r.boolean("strict_mode", false),

		SchemaCacheTTL:     r.duration("schema_cache_ttl", 10*time.Minute),
		SchemaCacheMaxSize: r.num("schema_cache_max_size", 100),

		MaxConcurrency: int64(r.num("max_concurrency", 3)),
	}
	if origins := r.str("cors_origins", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var missing []string
	if cfg.DatabaseID == "" {
		missing = append(missing, "database_id")
	}
	if cfg.RecordStoreBaseURL == "" {
		missing = append(missing, "record_store_base_url")
	}
	if cfg.FetchdBaseURL == "" {
		missing = append(missing, "fetchd_base_url")
	}
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "openai_api_key")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// Sanitized is the config view served by the API. Secrets stay out.
func (c Config) Sanitized() map[string]any {
	return map[string]any{
		"http_addr":             c.HTTPAddr,
		"log_mode":              c.LogMode,
		"database_id":           c.DatabaseID,
		"record_store_base_url": c.RecordStoreBaseURL,
		"fetchd_base_url":       c.FetchdBaseURL,
		"openai_model":          c.OpenAIModel,
		"openai_temperature":    c.OpenAITemperature,
		"extract_max_retries":   c.ExtractMaxRetries,
		"extract_retry_delay":   c.ExtractRetryDelay.String(),
		"fuzzy_threshold":       c.FuzzyThreshold,
		"max_text_length":       c.MaxTextLength,
		"strict_mode":           c.StrictMode,
		"schema_cache_ttl":      c.SchemaCacheTTL.String(),
		"max_concurrency":       c.MaxConcurrency,
	}
}
