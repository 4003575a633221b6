package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"onboarding-workers/pkg/registry"
)

func newRegistryCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry written by the worker manager",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/activity-registry.json", "path to registry file")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			printf(cmd, "Registry %s (updated %s)\n", reg.Version, reg.LastUpdated)
			for _, a := range reg.Activities {
				printf(cmd, "  %-24s %-36s %-10s timeout=%s retries=%d\n", a.ID, a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check activity naming, statuses and duplicates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			errs := reg.Validate()
			for _, e := range errs {
				printf(cmd, "  - %v\n", e)
			}
			if len(errs) > 0 {
				return fmt.Errorf("registry has %d problems: %w", len(errs), errors.Join(errs...))
			}
			printf(cmd, "Registry is valid (%d activities)\n", len(reg.Activities))
			return nil
		},
	})
	return cmd
}
