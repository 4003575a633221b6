package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/onboarding/form"
	"onboarding-workers/internal/onboarding/profile"
)

var fieldLabels = map[form.Field]string{
	form.FieldFirstName:         "First name:",
	form.FieldLastName:          "Last name:",
	form.FieldPhone:             "Phone number (+1...):",
	form.FieldCorporationNumber: "Corporation number:",
}

// askFunc matches survey.AskOne so tests can answer prompts.
type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// confirmFunc asks a yes/no question.
type confirmFunc func(message string) (bool, error)

type filler struct {
	coord   *form.Coordinator
	save    form.SubmitFunc
	ask     askFunc
	confirm confirmFunc
	out     io.Writer
}

func newFillCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fill",
		Short: "Fill in the user step and save it to the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := opts.logger()

			saver, err := profile.NewClient(
				profile.Config{BaseURL: cfg.API.BaseURL, Timeout: config.GetDuration(cfg.API.Timeout)},
				profile.Dependencies{Logger: log},
			)
			if err != nil {
				return err
			}

			coord := form.NewCoordinator(form.NewValidator(newChecker(cfg, log), log), form.Options{
				Debounce:      config.GetDuration(cfg.Lookup.Debounce),
				LookupTimeout: config.GetDuration(cfg.API.Timeout),
				Logger:        log,
			})
			defer coord.Close()

			f := &filler{
				coord: coord,
				save: func(ctx context.Context, record form.UserRecord) error {
					_, err := saver.Save(ctx, record)
					return err
				},
				ask:     survey.AskOne,
				confirm: surveyConfirm,
				out:     cmd.OutOrStdout(),
			}
			return f.run(cmd.Context())
		},
	}
}

func surveyConfirm(message string) (bool, error) {
	var ok bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &ok)
	return ok, err
}

// run prompts for every field, then submits. Values survive a failed save so the user
// can retry without typing them again.
func (f *filler) run(ctx context.Context) error {
	for {
		for _, field := range form.Fields {
			if err := f.askField(ctx, field); err != nil {
				return err
			}
		}

		err := f.coord.Submit(ctx, f.save)
		if err == nil {
			fmt.Fprintln(f.out, "Profile details saved.")
			return nil
		}

		var invalid *form.InvalidError
		var saveErr *profile.SaveError
		switch {
		case stderrors.As(err, &invalid):
			for _, field := range form.Fields {
				if msg, ok := invalid.Fields[field]; ok {
					fmt.Fprintf(f.out, "%s %s\n", fieldLabels[field], msg)
				}
			}
		case stderrors.As(err, &saveErr):
			fmt.Fprintf(f.out, "Error: %s\n", saveErr.Message)
		default:
			fmt.Fprintf(f.out, "Error: %v\n", err)
		}

		retry, cerr := f.confirm("Edit and submit again?")
		if cerr != nil {
			return cerr
		}
		if !retry {
			return err
		}
	}
}

// askField re-prompts until the coordinator reports no error for the field.
func (f *filler) askField(ctx context.Context, field form.Field) error {
	current := f.coord.Record().Get(field)

	var answer string
	return f.ask(
		&survey.Input{Message: fieldLabels[field], Default: current},
		&answer,
		survey.WithValidator(f.validatorFor(ctx, field)),
	)
}

func (f *filler) validatorFor(ctx context.Context, field form.Field) survey.Validator {
	return func(ans interface{}) error {
		value, _ := ans.(string)
		if err := f.coord.Change(field, value); err != nil {
			return err
		}
		if err := f.coord.Blur(field); err != nil {
			return err
		}
		if err := f.coord.Settle(ctx); err != nil {
			return err
		}
		if msg := f.coord.Snapshot().Fields[field].Error; msg != "" {
			return stderrors.New(msg)
		}
		return nil
	}
}
