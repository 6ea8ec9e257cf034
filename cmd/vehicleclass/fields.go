package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/vehicleclass/internal/fields"
)

func newFieldsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the vehicle fields and their input hints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(stdout)
		},
	}
}

func runFields(stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tUNIT\tKIND\tRANGE\tEXAMPLE")
	for _, f := range fields.All() {
		rng := fmt.Sprintf(">= %g", f.Minimum)
		if f.Bounded() {
			rng = fmt.Sprintf("%g-%g", f.Minimum, f.Maximum)
		}
		unit := f.Unit
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.Name, f.Label, unit, f.Kind, rng, strings.TrimPrefix(f.Placeholder, "e.g., "))
	}
	fuels := make([]string, 0, len(fields.Fuels()))
	for _, fu := range fields.Fuels() {
		fuels = append(fuels, string(fu))
	}
	fmt.Fprintf(tw, "%s\t%s\t-\tenum\t%s\t%s\n", fields.FuelType, "Fuel Type", strings.Join(fuels, "|"), fields.DefaultFuel)
	if err := tw.Flush(); err != nil {
		return codeError(exitGeneric, "writing output: %s", err)
	}
	return nil
}
