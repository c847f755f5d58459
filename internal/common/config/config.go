// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Server     ServerConfig            `mapstructure:"server"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Redis      RedisConfig             `mapstructure:"redis"`
	OpenRouter OpenRouterConfig        `mapstructure:"openrouter"`
	Fallback   FallbackConfig          `mapstructure:"fallback"`
	Tracing    TracingConfig           `mapstructure:"tracing"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the public HTTP API settings.
type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	StaticDir       string   `mapstructure:"static_dir"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// RedisConfig backs the optional completion cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds
}

// OpenRouterConfig configures the chat-completion client.
type OpenRouterConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	APIKey         string   `mapstructure:"api_key"`
	CredentialFile string   `mapstructure:"credential_file"`
	Model          string   `mapstructure:"model"`
	Temperature    float64  `mapstructure:"temperature"`
	TopP           *float64 `mapstructure:"top_p"`
	MaxTokens      *int     `mapstructure:"max_tokens"`
	Stream         bool     `mapstructure:"stream"`
	Timeout        int      `mapstructure:"timeout"` // milliseconds, per attempt
	Retries        *int     `mapstructure:"retries"`
	Backoff        int      `mapstructure:"backoff"` // milliseconds, first retry delay
	AppName        string   `mapstructure:"app_name"`
}

// FallbackConfig seeds the local activity sampler; zero means time-seeded.
type FallbackConfig struct {
	Seed int64 `mapstructure:"seed"`
}

type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RetriesOrDefault treats an unset retry count as 2; an explicit 0 disables retries.
func (o OpenRouterConfig) RetriesOrDefault() int {
	if o.Retries == nil || *o.Retries < 0 {
		return 2
	}
	return *o.Retries
}

// CacheTTLDuration returns the cache entry lifetime.
func (r RedisConfig) CacheTTLDuration() time.Duration {
	return GetDuration(r.CacheTTL)
}
