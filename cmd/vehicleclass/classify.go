package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/controller"
	"github.com/dshills/vehicleclass/internal/fields"
	"github.com/dshills/vehicleclass/internal/form"
	"github.com/dshills/vehicleclass/internal/input"
	"github.com/dshills/vehicleclass/internal/notify"
	"github.com/dshills/vehicleclass/internal/render"
	"github.com/dshills/vehicleclass/internal/validate"
)

// classifyFlags holds the parsed flags for the classify command.
type classifyFlags struct {
	input  string
	format string
	out    string
	// values are per-field flags; only flags the user set are applied.
	values map[string]*string
	fuel   string
}

func newClassifyCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	flags := classifyFlags{values: make(map[string]*string)}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one vehicle from flags or an input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := make(map[string]string)
			for name, v := range flags.values {
				if cmd.Flags().Changed(flagName(name)) {
					set[name] = *v
				}
			}
			if cmd.Flags().Changed("fuel-type") {
				set[fields.FuelType] = flags.fuel
			}
			return runClassify(cmd.Context(), g, flags, set, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.input, "input", "", "YAML or JSON file of field values")
	f.StringVar(&flags.format, "format", "", "Output format: text, md or json")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	for _, fd := range fields.All() {
		v := new(string)
		flags.values[fd.Name] = v
		f.StringVar(v, flagName(fd.Name), "", fmt.Sprintf("%s (%s)", promptUsage(fd), fd.Placeholder))
	}
	f.StringVar(&flags.fuel, "fuel-type", "", "Fuel type: petrol, diesel, electric or hybrid (default petrol)")
	return cmd
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func promptUsage(f fields.Field) string {
	if f.Unit == "" {
		return f.Label
	}
	return fmt.Sprintf("%s in %s", f.Label, f.Unit)
}

// runClassify loads the values, drives one submission through the
// controller and renders the result. Flag values override file values.
func runClassify(ctx context.Context, g *globalFlags, flags classifyFlags, set map[string]string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, client, err := setup(g, flags.format, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	renderer, err := render.NewRenderer(cfg.Format)
	if err != nil {
		return codeError(exitBadInput, "invalid format: %s", err)
	}

	values := make(map[string]string)
	if flags.input != "" {
		in, err := input.Load(flags.input)
		if err != nil {
			return codeError(exitBadInput, "loading input: %s", err)
		}
		logger.Debug("input loaded", zap.String("path", in.Path), zap.String("hash", in.Hash))
		for k, v := range in.Values {
			values[k] = v
		}
	}
	for k, v := range set {
		values[k] = v
	}

	rec := &notify.Recorder{}
	ctrl := controller.New(form.New(), client, notify.Multi(rec, notify.NewLog(logger.Named("notify"))),
		controller.WithLogger(logger.Named("controller")))

	for _, name := range input.Names(values) {
		if err := ctrl.Dispatch(ctx, controller.FieldChanged{Name: name, Value: values[name]}); err != nil {
			return codeError(exitBadInput, "%s", err)
		}
	}

	pred, err := ctrl.Submit(ctx)
	if err != nil {
		var v *validate.Violation
		if errors.As(err, &v) {
			return codeError(exitBadInput, "invalid %s: %s", v.Field, v.Message)
		}
		var ce *classify.Error
		if errors.As(err, &ce) {
			return codeError(exitFailed, "classification failed: %s", controller.FailureMessage(err))
		}
		return codeError(exitGeneric, "%s", err)
	}

	outputBytes, err := renderer.Render(pred)
	if err != nil {
		return codeError(exitGeneric, "rendering output: %s", err)
	}
	if flags.out != "" {
		if err := os.WriteFile(flags.out, outputBytes, 0o644); err != nil {
			return codeError(exitGeneric, "writing output file: %s", err)
		}
		if e, ok := rec.Last(); ok {
			fmt.Fprintln(stderr, e.Message)
		}
		return nil
	}
	if _, err := stdout.Write(outputBytes); err != nil {
		return codeError(exitGeneric, "writing output: %s", err)
	}
	return nil
}
