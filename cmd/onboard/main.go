// cmd/onboard/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/corporation"
)

type rootOptions struct {
	baseURL    string
	timeout    time.Duration
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "onboard",
		Short:         "Fill in and check the onboarding user step from a terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "onboarding backend base URL (overrides api.base_url)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "timeout for backend calls (overrides api.timeout)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newFillCommand(opts), newCheckCommand(opts), newRegistryCommand())
	return root
}

// load reads the config file and applies the flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	if o.baseURL != "" {
		// Set before loading so base URL validation sees it.
		if err := os.Setenv("API_BASE_URL", o.baseURL); err != nil {
			return nil, err
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.timeout > 0 {
		cfg.API.Timeout = int(o.timeout.Milliseconds())
	}
	return cfg, nil
}

func (o *rootOptions) logger() logger.Logger {
	return logger.NewStructured(o.logLevel, "console")
}

func newChecker(cfg *config.Config, log logger.Logger) *corporation.Client {
	return corporation.NewClient(
		corporation.Config{BaseURL: cfg.API.BaseURL, Timeout: config.GetDuration(cfg.API.Timeout)},
		corporation.Dependencies{Cache: corporation.NewMemoryCache(config.GetDuration(cfg.Lookup.CacheTTL)), Logger: log},
	)
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
