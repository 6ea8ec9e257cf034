package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/vehicleclass/internal/controller"
)

func newHealthCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var modelInfo bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the classification service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), g, modelInfo, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&modelInfo, "model-info", false, "Also print the model's features and classes")
	return cmd
}

func runHealth(ctx context.Context, g *globalFlags, modelInfo bool, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, logger, client, err := setup(g, "", stderr)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	h, err := client.Health(ctx)
	if err != nil {
		return codeError(exitFailed, "health check failed: %s", controller.FailureMessage(err))
	}
	fmt.Fprintf(stdout, "service:      %s\n", client.BaseURL())
	fmt.Fprintf(stdout, "status:       %s\n", h.Status)
	fmt.Fprintf(stdout, "model loaded: %t\n", h.ModelLoaded)
	if h.APIVersion != "" {
		fmt.Fprintf(stdout, "api version:  %s\n", h.APIVersion)
	}
	if !h.Timestamp.IsZero() {
		fmt.Fprintf(stdout, "timestamp:    %s\n", h.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	}

	if modelInfo {
		m, err := client.ModelInfo(ctx)
		if err != nil {
			return codeError(exitFailed, "model info failed: %s", controller.FailureMessage(err))
		}
		fmt.Fprintf(stdout, "model type:   %s\n", m.ModelType)
		fmt.Fprintf(stdout, "features:     %d %v\n", m.FeatureCount, m.Features)
		if len(m.Classes) > 0 {
			fmt.Fprintf(stdout, "classes:      %v\n", m.Classes)
		}
	}

	if !h.Healthy() {
		return codeError(exitFailed, "service reports status %q", h.Status)
	}
	return nil
}
