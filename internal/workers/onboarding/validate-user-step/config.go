package validateuserstep

import (
	"fmt"
	"time"

	"onboarding-workers/internal/common/config"
)

// ConfigKey is this worker's entry under workers in the config file.
const ConfigKey = "user-step-validate"

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	LookupTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		LookupTimeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.LookupTimeout > c.Timeout {
		return fmt.Errorf("lookup timeout %s exceeds job timeout %s", c.LookupTimeout, c.Timeout)
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if workerCfg, exists := appConfig.Workers[ConfigKey]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}
	if appConfig.API.Timeout > 0 {
		cfg.LookupTimeout = config.GetDuration(appConfig.API.Timeout)
	}
	if cfg.LookupTimeout > cfg.Timeout {
		cfg.LookupTimeout = cfg.Timeout
	}
	return cfg
}
