// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	API           APIConfig               `mapstructure:"api"`
	Lookup        LookupConfig            `mapstructure:"lookup"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	Registry      RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active" validate:"gte=0"`
	Timeout        int    `mapstructure:"timeout" validate:"gte=0"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout" validate:"gte=0"` // milliseconds
}

// APIConfig is the onboarding backend. BaseURL is shared by the corporation-number lookup
// and the profile-details save.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Timeout int    `mapstructure:"timeout" validate:"gte=0"` // milliseconds
}

type LookupConfig struct {
	CacheTTL     int    `mapstructure:"cache_ttl" validate:"gte=0"` // milliseconds
	CacheBackend string `mapstructure:"cache_backend" validate:"oneof=memory redis none"`
	Debounce     int    `mapstructure:"debounce" validate:"gte=0"` // milliseconds
}

type DatabaseConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig is only used by the mock backend to keep received profiles across restarts.
type PostgresConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdle        int    `mapstructure:"max_idle" validate:"gte=0"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig holds settings for the confirmation SMS sent after a profile save.
type NotificationConfig struct {
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		SenderID string `mapstructure:"sender_id"`
		Message  string `mapstructure:"message"`
	} `mapstructure:"sms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// RegistryConfig controls where the activity registry is written on startup.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// RequireCamunda checks the settings only the worker manager needs.
func (c *Config) RequireCamunda() error {
	if c.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}
