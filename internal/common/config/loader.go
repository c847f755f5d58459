// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel         = "meta-llama/llama-3.3-8b-instruct:free"

	// DefaultWorkerTimeout (ms) covers three 120s completion attempts plus backoff.
	DefaultWorkerTimeout       = 400000
	DefaultWorkerMaxJobsActive = 5
)

// Load reads .env, configs/config.yaml and config.<APP_ENVIRONMENT>.yaml, then env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// AutomaticEnv only sees keys viper already knows about, so the env-only keys are bound here.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"openrouter.api_key",
		"openrouter.model",
		"openrouter.app_name",
		"openrouter.credential_file",
		"redis.address",
		"redis.password",
		"redis.enabled",
		"camunda.enabled",
		"camunda.broker_address",
		"server.address",
		"logging.level",
		"logging.format",
		"tracing.jaeger_endpoint",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			// Load never overrides variables already set in the process environment
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.OpenRouter.APIKey == "" {
		if val := os.Getenv("OPENROUTER_API_KEY"); val != "" {
			cfg.OpenRouter.APIKey = val
		}
	}
	if cfg.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pedagoplay"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8888"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = 3600000
	}

	if cfg.OpenRouter.BaseURL == "" {
		cfg.OpenRouter.BaseURL = DefaultOpenRouterURL
	}
	if cfg.OpenRouter.Model == "" {
		cfg.OpenRouter.Model = DefaultModel
	}
	if cfg.OpenRouter.Temperature == 0 {
		cfg.OpenRouter.Temperature = 0.7
	}
	if cfg.OpenRouter.Timeout == 0 {
		cfg.OpenRouter.Timeout = 120000
	}
	if cfg.OpenRouter.Backoff == 0 {
		cfg.OpenRouter.Backoff = 1000
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = DefaultWorkerMaxJobsActive
		}
		if worker.Timeout == 0 {
			worker.Timeout = DefaultWorkerTimeout
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	if cfg.Redis.Enabled && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	if cfg.OpenRouter.Temperature < 0 || cfg.OpenRouter.Temperature > 2 {
		return fmt.Errorf("openrouter.temperature must be between 0 and 2")
	}
	if cfg.OpenRouter.TopP != nil && (*cfg.OpenRouter.TopP <= 0 || *cfg.OpenRouter.TopP > 1) {
		return fmt.Errorf("openrouter.top_p must be in (0, 1]")
	}
	if cfg.OpenRouter.MaxTokens != nil && *cfg.OpenRouter.MaxTokens <= 0 {
		return fmt.Errorf("openrouter.max_tokens must be positive")
	}
	if cfg.OpenRouter.Timeout < 0 {
		return fmt.Errorf("openrouter.timeout must be positive")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: DefaultWorkerMaxJobsActive,
		Timeout:       DefaultWorkerTimeout,
		MaxRetries:    3,
	}
}
