package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/config"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// Exit codes.
const (
	exitGeneric  = 1
	exitFailed   = 2 // classification or health check failed
	exitBadInput = 3 // invalid input, flags or configuration
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	apiURL     string
	origin     string
	logLevel   string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			stop()
			os.Exit(ee.code)
		}
		// cobra already printed the error
		stop()
		os.Exit(exitGeneric)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:     "vehicleclass",
		Short:   "Classify vehicles from their measurements",
		Long:    "vehicleclass collects vehicle measurements, validates them and asks a remote classification service for the vehicle type.",
		Version: version,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	var g globalFlags
	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "YAML config file")
	pf.StringVar(&g.envFile, "env-file", "", "dotenv file (default .env when present)")
	pf.StringVar(&g.apiURL, "api-url", "", "Classification service base URL (overrides "+config.EnvAPIURL+")")
	pf.StringVar(&g.origin, "origin", "", "Send this Origin header and enforce the service's CORS answer")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&g.verbose, "verbose", false, "Log debug output to stderr")

	root.AddCommand(
		newInteractiveCmd(&g, stdout, stderr),
		newClassifyCmd(&g, stdout, stderr),
		newFieldsCmd(stdout),
		newHealthCmd(&g, stdout, stderr),
		newStubServerCmd(&g, stderr),
	)
	return root
}

// loadConfig resolves configuration for a command. format is the command's
// --format value, empty when unset.
func loadConfig(g *globalFlags, format string) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		File:    g.configFile,
		EnvFile: g.envFile,
		Overrides: config.Overrides{
			APIURL:   g.apiURL,
			Origin:   g.origin,
			Format:   format,
			LogLevel: g.logLevel,
		},
	})
	if err != nil {
		return nil, codeError(exitBadInput, "loading configuration: %s", err)
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to w. Verbose mode uses the
// development console encoder at debug level.
func newLogger(cfg *config.Config, verbose bool, w io.Writer) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	if verbose {
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return zap.New(core).With(zap.String("app", "vehicleclass")), nil
}

// setup loads configuration and builds the logger and client.
func setup(g *globalFlags, format string, stderr io.Writer) (*config.Config, *zap.Logger, *classify.Client, error) {
	cfg, err := loadConfig(g, format)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg, g.verbose, stderr)
	if err != nil {
		return nil, nil, nil, codeError(exitBadInput, "configuring logger: %s", err)
	}
	opts := []classify.Option{classify.WithLogger(logger.Named("client"))}
	if cfg.Origin != "" {
		opts = append(opts, classify.WithOrigin(cfg.Origin))
	}
	client, err := classify.NewClient(cfg.APIURL, opts...)
	if err != nil {
		return nil, nil, nil, codeError(exitBadInput, "creating client: %s", err)
	}
	logger.Debug("configuration resolved",
		zap.String("api_url", cfg.APIURL),
		zap.String("origin", cfg.Origin),
		zap.String("format", cfg.Format))
	return cfg, logger, client, nil
}
