// Package config loads the layered service configuration with koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults applied before any file or environment layer.
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 1 << 20

	// A single provider attempt; raise max_attempts to retry transport errors and 429.
	DefaultClientRetryMaxAttempts  = 1
	DefaultClientRetryMultiplier   = 2.0
	DefaultClientRetryJitterFactor = 0.25

	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 1

	DefaultTransportMaxIdleConns        = 100
	DefaultTransportMaxIdleConnsPerHost = 10

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	// DefaultSecretField is the JSON member holding the key inside the managed secret.
	DefaultSecretField = "FINNHUB_API_KEY"
)

// Config is everything the quote pipeline and its adapters read at start.
type Config struct {
	App         AppConfig         `koanf:"app"         validate:"required"`
	Server      ServerConfig      `koanf:"server"      validate:"required"`
	Log         LogConfig         `koanf:"log"         validate:"required"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Client      ClientConfig      `koanf:"client"      validate:"required"`
	Provider    ProviderConfig    `koanf:"provider"    validate:"required"`
	Credentials CredentialsConfig `koanf:"credentials"`
}

// AppConfig identifies the deployment.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev development qa prod production test"`
}

// IsProduction reports whether the app runs in a production environment.
func (a AppConfig) IsProduction() bool {
	switch strings.ToLower(a.Environment) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// ServerConfig tunes the local HTTP adapter.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig selects level, output format and an optional rolling file.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn warning error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig is handed to lumberjack.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig enables OTLP export.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig shapes calls to the quote provider.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms,max=30s"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig is the exponential retry schedule. MaxAttempts of 1 disables retry.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig opens the circuit after MaxFailures consecutive failures
// and lets HalfOpenLimit trial requests through once Timeout has passed.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig sizes the idle connection pool.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// ProviderConfig describes the market-data provider.
type ProviderConfig struct {
	Name      string `koanf:"name"      validate:"required"`
	BaseURL   string `koanf:"base_url"  validate:"required,url"`
	QuotePath string `koanf:"quote_path" validate:"required,startswith=/"`
	UserAgent string `koanf:"user_agent"`

	// DefaultSymbol is used when a request names no symbol.
	DefaultSymbol string `koanf:"default_symbol" validate:"required,max=16"`

	// UnknownSymbolCheck selects the heuristic for zeroed payloads.
	UnknownSymbolCheck string `koanf:"unknown_symbol_check" validate:"oneof=all_zero all_fields_zero disabled"`
}

// CredentialsConfig tells the credential resolver where the API key lives.
// An explicit APIKey wins; otherwise SecretName and Region select the managed store.
type CredentialsConfig struct {
	APIKey      string        `koanf:"api_key"`
	SecretName  string        `koanf:"secret_name"`
	Region      string        `koanf:"region"`
	SecretField string        `koanf:"secret_field"  validate:"required"`
	Timeout     time.Duration `koanf:"timeout"       validate:"required,min=100ms"`
	Memoize     bool          `koanf:"memoize"`
}

// Source names where the API key will come from.
func (c CredentialsConfig) Source() string {
	switch {
	case c.APIKey != "":
		return "environment"
	case c.SecretName != "" && c.Region != "":
		return "secrets_manager"
	default:
		return "not_configured"
	}
}

// ManagedMode reports whether the secret store will be consulted.
func (c CredentialsConfig) ManagedMode() bool {
	return c.APIKey == "" && c.SecretName != "" && c.Region != ""
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "stock-quote",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "15s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "stock-quote",
		"telemetry.sampling_rate": 1.0,

		"client.timeout":                           "5s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "200ms",
		"client.retry.max_interval":                "2s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "60s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"provider.name":                 "finnhub",
		"provider.base_url":             "https://finnhub.io/api/v1",
		"provider.quote_path":           "/quote",
		"provider.user_agent":           "stock-quote/dev",
		"provider.default_symbol":       "AAPL",
		"provider.unknown_symbol_check": "all_zero",

		"credentials.api_key":      "",
		"credentials.secret_name":  "",
		"credentials.region":       "",
		"credentials.secret_field": DefaultSecretField,
		"credentials.timeout":      "5s",
		"credentials.memoize":      true,
	}
}

// wellKnownEnv maps the environment names used by existing deployments
// onto config keys.
var wellKnownEnv = map[string]string{
	"FINNHUB_API_KEY": "credentials.api_key",
	"SECRET_NAME":     "credentials.secret_name",
	"AWS_REGION":      "credentials.region",
	"LOG_LEVEL":       "log.level",
	"ENVIRONMENT":     "app.environment",
	"API_TIMEOUT":     "client.timeout",
}

// layer is one configuration source, applied over the ones before it.
type layer struct {
	name string
	load func(k *koanf.Koanf) error
}

// Load merges, lowest precedence first: defaults, configs/base.yaml,
// configs/<profile>.yaml, the well-known deployment variables
// (FINNHUB_API_KEY, SECRET_NAME, AWS_REGION, ...) and finally APP_ variables.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	for _, l := range layers(profile) {
		if err := l.load(k); err != nil {
			return nil, fmt.Errorf("loading %s: %w", l.name, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func layers(profile string) []layer {
	ls := []layer{
		{"defaults", func(k *koanf.Koanf) error {
			return k.Load(confmap.Provider(defaults(), "."), nil)
		}},
		{"configs/base.yaml", yamlLayer("configs/base.yaml")},
	}

	if profile != "" {
		path := "configs/" + profile + ".yaml"
		ls = append(ls, layer{path, yamlLayer(path)})
	}

	return append(ls,
		layer{"deployment variables", func(k *koanf.Koanf) error {
			return k.Load(env.ProviderWithValue("", ".", wellKnownValue), nil)
		}},
		layer{"APP_ variables", func(k *koanf.Koanf) error {
			return k.Load(env.Provider("APP_", ".", appKey), nil)
		}},
	)
}

// appKey turns APP_CLIENT_RETRY_MAX_ATTEMPTS into client.retry.max_attempts.
// Names are matched against the known keys so underscores inside a key
// segment survive; unknown names get one segment per underscore.
func appKey(name string) string {
	flat := strings.ToLower(strings.TrimPrefix(name, "APP_"))
	if key, ok := knownKeys()[flat]; ok {
		return key
	}

	return strings.ReplaceAll(flat, "_", ".")
}

// knownKeys indexes every default key by its underscore spelling.
var knownKeys = sync.OnceValue(func() map[string]string {
	keys := make(map[string]string)
	for key := range defaults() {
		keys[strings.ReplaceAll(key, ".", "_")] = key
	}

	return keys
})

// wellKnownValue maps a deployment variable to its config key. Unknown or
// empty variables yield an empty key, which koanf skips.
func wellKnownValue(name, value string) (string, any) {
	key, ok := wellKnownEnv[name]
	if !ok || value == "" {
		return "", nil
	}

	switch name {
	case "API_TIMEOUT":
		// Whole seconds unless a unit is given.
		if !strings.ContainsAny(value, "smh") {
			value += "s"
		}
	case "LOG_LEVEL":
		value = strings.ToLower(value)
	}

	return key, value
}

// yamlLayer loads path when it exists. Only read and parse failures are errors.
func yamlLayer(path string) func(k *koanf.Koanf) error {
	return func(k *koanf.Koanf) error {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return k.Load(file.Provider(path), yaml.Parser())
	}
}
