package main

import (
	"context"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dshills/vehicleclass/internal/stubserver"
)

// stubFlags holds the parsed flags for the stub-server command.
type stubFlags struct {
	addr    string
	origins []string
	noModel bool
}

func newStubServerCmd(g *globalFlags, stderr io.Writer) *cobra.Command {
	var flags stubFlags
	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Run a local rule-based classification service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStubServer(cmd.Context(), g, flags, stderr)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", defaultStubAddr(), "Listen address")
	f.StringArrayVar(&flags.origins, "allow-origin", nil, "Allowed CORS origin (may be repeated; default echoes any origin)")
	f.BoolVar(&flags.noModel, "no-model", false, "Report the model as not loaded")
	return cmd
}

// defaultStubAddr honours PORT the way the hosted service does.
func defaultStubAddr() string {
	if p := os.Getenv("PORT"); p != "" {
		return ":" + p
	}
	return ":5000"
}

func runStubServer(ctx context.Context, g *globalFlags, flags stubFlags, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(g, "")
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, g.verbose, stderr)
	if err != nil {
		return codeError(exitBadInput, "configuring logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !g.verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := stubserver.New(
		stubserver.WithLogger(logger.Named("stub")),
		stubserver.WithAllowedOrigins(flags.origins...),
		stubserver.WithModelLoaded(!flags.noModel),
	)
	if err := srv.ListenAndServe(ctx, flags.addr); err != nil {
		return codeError(exitGeneric, "stub server: %s", err)
	}
	return nil
}
