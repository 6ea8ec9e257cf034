package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/vehicleclass/internal/controller"
	"github.com/dshills/vehicleclass/internal/form"
	"github.com/dshills/vehicleclass/internal/notify"
	"github.com/dshills/vehicleclass/internal/render"
	"github.com/dshills/vehicleclass/internal/tui"
)

func newInteractiveCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"form"},
		Short:   "Fill in the vehicle form interactively",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, g, format, tui.NewSurveyDriver(), stdout, stderr)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Result format: text, md or json")
	return cmd
}

func runInteractive(cmd *cobra.Command, g *globalFlags, format string, driver tui.PromptDriver, stdout, stderr io.Writer) error {
	cfg, logger, client, err := setup(g, format, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	renderer, err := render.NewRenderer(cfg.Format)
	if err != nil {
		return codeError(exitBadInput, "invalid format: %s", err)
	}

	notifier := notify.Multi(notify.NewWriter(stdout), notify.NewLog(logger.Named("notify")))
	ctrl := controller.New(form.New(), client, notifier, controller.WithLogger(logger.Named("controller")))
	session := tui.NewSession(ctrl, driver, renderer, tui.WithLogger(logger.Named("tui")))
	if err := session.Run(cmd.Context()); err != nil {
		return codeError(exitGeneric, "interactive session: %s", err)
	}
	return nil
}
