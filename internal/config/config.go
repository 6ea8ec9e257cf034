package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/render"
)

// Environment variables read by Load.
const (
	EnvAPIURL   = "VEHICLE_API_URL"
	EnvOrigin   = "VEHICLE_ORIGIN"
	EnvLogLevel = "VEHICLE_LOG_LEVEL"
)

// DefaultEnvFile is the dotenv file consulted when none is named.
const DefaultEnvFile = ".env"

// Config holds the resolved client settings.
type Config struct {
	APIURL   string `yaml:"api_url"`
	Origin   string `yaml:"origin"`
	Format   string `yaml:"format"`
	LogLevel string `yaml:"log_level"`
}

// Overrides are values given on the command line. Empty fields are ignored.
type Overrides struct {
	APIURL   string
	Origin   string
	Format   string
	LogLevel string
}

// Options controls where Load looks for settings.
type Options struct {
	File      string // YAML config file; optional
	EnvFile   string // dotenv file; DefaultEnvFile when empty
	Overrides Overrides
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:   classify.DefaultBaseURL,
		Format:   "text",
		LogLevel: "warn",
	}
}

// Load resolves the configuration. Precedence, highest first: overrides,
// process environment, dotenv file, config file, defaults.
func Load(opts Options) (*Config, error) {
	cfg := Defaults()

	if opts.File != "" {
		fileCfg, err := LoadFile(opts.File)
		if err != nil {
			return nil, err
		}
		cfg.merge(*fileCfg)
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(dotenv[key])
	}
	cfg.merge(Config{
		APIURL:   env(EnvAPIURL),
		Origin:   env(EnvOrigin),
		LogLevel: env(EnvLogLevel),
	})

	cfg.merge(Config(opts.Overrides))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a YAML config file. ${VAR} references are expanded from
// the environment before parsing; unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return &cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file %q: %w", path, err)
	}
	return vals, nil
}

func (c *Config) merge(o Config) {
	if v := strings.TrimSpace(o.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(o.Origin); v != "" {
		c.Origin = v
	}
	if v := strings.TrimSpace(o.Format); v != "" {
		c.Format = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an absolute http(s) URL", c.APIURL)
	}
	if c.Origin != "" {
		o, err := url.Parse(c.Origin)
		if err != nil || o.Scheme == "" || o.Host == "" {
			return fmt.Errorf("invalid origin %q: must be scheme://host[:port]", c.Origin)
		}
	}
	if !slices.Contains(render.Formats, c.Format) {
		return fmt.Errorf("invalid format %q: supported formats are %s", c.Format, strings.Join(render.Formats, ", "))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
