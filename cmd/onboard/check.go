package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"onboarding-workers/internal/onboarding/form"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <corporation-number>",
		Short: "Validate one corporation number the way the form does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := opts.logger()
			validator := form.NewValidator(newChecker(cfg, log), log)

			outcome := validator.ValidateCorporationNumber(cmd.Context(), args[0])
			if outcome.Valid {
				printf(cmd, "%s: valid\n", args[0])
				return nil
			}
			if outcome.Transient {
				printf(cmd, "%s: %s (lookup failed)\n", args[0], outcome.Message)
			} else {
				printf(cmd, "%s: %s\n", args[0], outcome.Message)
			}
			return fmt.Errorf("corporation number %s is not valid", args[0])
		},
	}
}
