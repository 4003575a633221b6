package saveprofiledetails

import (
	"fmt"
	"strings"
	"time"

	"onboarding-workers/internal/common/config"
)

const ConfigKey = "profile-details-save"

const defaultSMSMessage = "Thanks {{firstName}}, your onboarding details were received."

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration

	// SMSEnabled sends a confirmation to the saved phone number. Delivery failures are logged only.
	SMSEnabled bool
	SMSMessage string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		SMSMessage:    defaultSMSMessage,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.SMSEnabled && strings.TrimSpace(c.SMSMessage) == "" {
		return fmt.Errorf("sms message is required when sms is enabled")
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

	sms := appConfig.Notifications.SMS
	cfg.SMSEnabled = sms.Enabled
	if sms.Message != "" {
		cfg.SMSMessage = sms.Message
	}
	return cfg
}
