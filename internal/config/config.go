// Package config resolve a configuração da API: defaults, depois o arquivo
// YAML opcional (CONFIG_PATH) e por fim as variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvConfigPath = "CONFIG_PATH"

const (
	StorageMemory = "memory"
	StorageDisk   = "disk"
)

type Config struct {
	ListenAddr     string   `yaml:"listen-addr"`
	AllowedOrigins []string `yaml:"allowed-origins"`

	Redis   RedisConfig   `yaml:"redis"`
	Rate    RateConfig    `yaml:"rate"`
	Upload  UploadConfig  `yaml:"upload"`
	Webhook WebhookConfig `yaml:"webhook"`
	Log     LogConfig     `yaml:"log"`
}

// RedisConfig: Addr vazio = store em memória (uma instância só).
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EndpointLimit struct {
	MaxCalls int           `yaml:"max-calls"`
	Window   time.Duration `yaml:"window"`
}

type RateConfig struct {
	Enabled      bool          `yaml:"enabled"`
	APIKeyHeader string        `yaml:"api-key-header"`
	StoreTimeout time.Duration `yaml:"store-timeout"`

	Upload EndpointLimit `yaml:"upload"`
	Jobs   EndpointLimit `yaml:"jobs"`

	Stats StatsConfig `yaml:"stats"`
}

type StatsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`
	TrackKeys bool          `yaml:"track-keys"`
}

type UploadConfig struct {
	Root    string `yaml:"root"`
	Storage string `yaml:"storage"`
	BaseURL string `yaml:"base-url"`

	MaxSizeBytes int64 `yaml:"max-size-bytes"`
	// MaxSizeFixed fica true quando o operador define o limite; aí o campo
	// max_size_bytes do form é ignorado.
	MaxSizeFixed bool `yaml:"-"`

	ConcurrencyMax     int           `yaml:"concurrency-max"`
	ConcurrencyTimeout time.Duration `yaml:"concurrency-timeout"`
}

type WebhookConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		Rate: RateConfig{
			Enabled:      true,
			APIKeyHeader: "X-API-Key",
			StoreTimeout: 2 * time.Second,
			Upload:       EndpointLimit{MaxCalls: 10, Window: 60 * time.Second},
			Jobs:         EndpointLimit{MaxCalls: 60, Window: 60 * time.Second},
			Stats: StatsConfig{
				Prefix: "ratelimit:stats",
				TTL:    24 * time.Hour,
			},
		},
		Upload: UploadConfig{
			Root:           "./uploads",
			Storage:        StorageMemory,
			BaseURL:        "https://storage.example.com",
			MaxSizeBytes:   100 * 1024 * 1024,
			ConcurrencyMax: 8,
		},
		Webhook: WebhookConfig{RPS: 5, Burst: 10},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// LookupFunc tem a assinatura de os.LookupEnv (testes injetam um map).
type LookupFunc func(key string) (string, bool)

// Load usa o ambiente do processo.
func Load() (Config, error) {
	return LoadWith(os.LookupEnv)
}

func LoadWith(lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path, ok := lookup(EnvConfigPath); ok && strings.TrimSpace(path) != "" {
		if err := cfg.mergeFile(strings.TrimSpace(path)); err != nil {
			return Config{}, err
		}
	}

	env := envReader{lookup: lookup}
	env.stringVar("LISTEN_ADDR", &cfg.ListenAddr)
	env.listVar("ALLOWED_ORIGINS", &cfg.AllowedOrigins)

	env.stringVar("REDIS_ADDR", &cfg.Redis.Addr)
	env.stringVar("REDIS_PASSWORD", &cfg.Redis.Password)
	env.intVar("REDIS_DB", &cfg.Redis.DB)

	env.boolVar("RATE_ENABLED", &cfg.Rate.Enabled)
	env.stringVar("RATE_API_KEY_HEADER", &cfg.Rate.APIKeyHeader)
	env.durationVar("RATE_STORE_TIMEOUT", &cfg.Rate.StoreTimeout)
	env.intVar("UPLOAD_RATE_MAX_CALLS", &cfg.Rate.Upload.MaxCalls)
	env.durationVar("UPLOAD_RATE_WINDOW", &cfg.Rate.Upload.Window)
	env.intVar("JOBS_RATE_MAX_CALLS", &cfg.Rate.Jobs.MaxCalls)
	env.durationVar("JOBS_RATE_WINDOW", &cfg.Rate.Jobs.Window)

	env.boolVar("RATE_STATS_ENABLED", &cfg.Rate.Stats.Enabled)
	env.stringVar("RATE_STATS_PREFIX", &cfg.Rate.Stats.Prefix)
	env.durationVar("RATE_STATS_TTL", &cfg.Rate.Stats.TTL)
	env.boolVar("RATE_STATS_TRACK_KEYS", &cfg.Rate.Stats.TrackKeys)

	env.stringVar("UPLOAD_ROOT", &cfg.Upload.Root)
	env.stringVar("UPLOAD_STORAGE", &cfg.Upload.Storage)
	env.stringVar("STORAGE_BASE_URL", &cfg.Upload.BaseURL)
	if env.int64Var("MAX_UPLOAD_SIZE_BYTES", &cfg.Upload.MaxSizeBytes) {
		cfg.Upload.MaxSizeFixed = true
	}
	env.intVar("UPLOAD_CONCURRENCY_MAX", &cfg.Upload.ConcurrencyMax)
	env.durationVar("UPLOAD_CONCURRENCY_TIMEOUT", &cfg.Upload.ConcurrencyTimeout)

	env.floatVar("WEBHOOK_RPS", &cfg.Webhook.RPS)
	env.intVar("WEBHOOK_BURST", &cfg.Webhook.Burst)

	env.stringVar("LOG_LEVEL", &cfg.Log.Level)
	env.stringVar("LOG_FORMAT", &cfg.Log.Format)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// max-size-bytes presente no arquivo também fixa o limite
	var probe struct {
		Upload struct {
			MaxSizeBytes *int64 `yaml:"max-size-bytes"`
		} `yaml:"upload"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if probe.Upload.MaxSizeBytes != nil {
		c.Upload.MaxSizeFixed = true
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("LISTEN_ADDR is required"))
	}
	if c.Rate.Upload.MaxCalls <= 0 {
		errs = append(errs, errors.New("UPLOAD_RATE_MAX_CALLS must be > 0"))
	}
	if c.Rate.Upload.Window < time.Second {
		errs = append(errs, errors.New("UPLOAD_RATE_WINDOW must be >= 1s"))
	}
	if c.Rate.Jobs.MaxCalls <= 0 {
		errs = append(errs, errors.New("JOBS_RATE_MAX_CALLS must be > 0"))
	}
	if c.Rate.Jobs.Window < time.Second {
		errs = append(errs, errors.New("JOBS_RATE_WINDOW must be >= 1s"))
	}
	if c.Rate.StoreTimeout <= 0 {
		errs = append(errs, errors.New("RATE_STORE_TIMEOUT must be > 0"))
	}
	if c.Rate.Stats.Enabled && c.Rate.Stats.TTL < 0 {
		errs = append(errs, errors.New("RATE_STATS_TTL must be >= 0"))
	}
	switch c.Upload.Storage {
	case StorageMemory:
	case StorageDisk:
		if strings.TrimSpace(c.Upload.Root) == "" {
			errs = append(errs, errors.New("UPLOAD_ROOT is required when UPLOAD_STORAGE=disk"))
		}
	default:
		errs = append(errs, fmt.Errorf("UPLOAD_STORAGE must be %q or %q (got %q)", StorageMemory, StorageDisk, c.Upload.Storage))
	}
	if c.Upload.MaxSizeBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE_BYTES must be > 0"))
	}
	if c.Upload.ConcurrencyMax < 0 {
		errs = append(errs, errors.New("UPLOAD_CONCURRENCY_MAX must be >= 0"))
	}
	if c.Webhook.RPS < 0 {
		errs = append(errs, errors.New("WEBHOOK_RPS must be >= 0"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json (got %q)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// envReader acumula erros de parse para reportar tudo de uma vez.
type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) get(k string) (string, bool) {
	v, ok := e.lookup(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) stringVar(k string, dst *string) {
	if v, ok := e.get(k); ok {
		*dst = v
	}
}

func (e *envReader) listVar(k string, dst *[]string) {
	v, ok := e.get(k)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envReader) intVar(k string, dst *int) {
	if v, ok := e.get(k); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", k, v))
			return
		}
		*dst = i
	}
}

func (e *envReader) int64Var(k string, dst *int64) bool {
	v, ok := e.get(k)
	if !ok {
		return false
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", k, v))
		return false
	}
	*dst = i
	return true
}

func (e *envReader) floatVar(k string, dst *float64) {
	if v, ok := e.get(k); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", k, v))
			return
		}
		*dst = f
	}
}

func (e *envReader) boolVar(k string, dst *bool) {
	if v, ok := e.get(k); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", k, v))
			return
		}
		*dst = b
	}
}

// durationVar aceita "90s"/"1m" ou segundos inteiros ("60").
func (e *envReader) durationVar(k string, dst *time.Duration) {
	v, ok := e.get(k)
	if !ok {
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", k, v))
		return
	}
	*dst = d
}
