package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/vehicleclass/internal/classify"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{EnvFile: writeFile(t, ".env", ""), LookupEnv: noEnv})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{APIURL: classify.DefaultBaseURL, Format: "text", LogLevel: "warn"}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "config.yaml", "api_url: http://from-file:5000\nformat: md\nlog_level: info\n")
	dotenv := writeFile(t, ".env", "VEHICLE_API_URL=http://from-dotenv:5000\nVEHICLE_LOG_LEVEL=error\n")

	cfg, err := Load(Options{File: file, EnvFile: dotenv, LookupEnv: noEnv})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://from-dotenv:5000" {
		t.Errorf("dotenv should beat file: APIURL = %q", cfg.APIURL)
	}
	if cfg.Format != "md" || cfg.LogLevel != "error" {
		t.Errorf("unexpected cfg: %+v", cfg)
	}

	cfg, err = Load(Options{
		File:      file,
		EnvFile:   dotenv,
		LookupEnv: envMap(map[string]string{EnvAPIURL: "http://from-env:5000"}),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://from-env:5000" {
		t.Errorf("process env should beat dotenv: APIURL = %q", cfg.APIURL)
	}

	cfg, err = Load(Options{
		File:      file,
		EnvFile:   dotenv,
		LookupEnv: envMap(map[string]string{EnvAPIURL: "http://from-env:5000"}),
		Overrides: Overrides{APIURL: "http://from-flag:5000", Format: "json"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://from-flag:5000" || cfg.Format != "json" {
		t.Errorf("flags should win: %+v", cfg)
	}
}

func TestLoad_ProcessEnvDefault(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://localhost:5000")
	cfg, err := Load(Options{EnvFile: writeFile(t, ".env", "")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:5000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "nope.env"), LookupEnv: noEnv})
	if err == nil {
		t.Error("expected error for missing explicit env file")
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("VC_TEST_HOST", "svc.internal")
	path := writeFile(t, "config.yaml", "api_url: https://${VC_TEST_HOST}\norigin: http://localhost:3000\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.APIURL != "https://svc.internal" || cfg.Origin != "http://localhost:3000" {
		t.Errorf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadFile_EmptyFile(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "config.yaml", ""))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("empty file produced %+v", cfg)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	_, err := LoadFile(writeFile(t, "config.yaml", "api_ulr: http://x\n"))
	if err == nil || !strings.Contains(err.Error(), "api_ulr") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"defaults", func(*Config) {}, true},
		{"relative url", func(c *Config) { c.APIURL = "/predict" }, false},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://host" }, false},
		{"bad origin", func(c *Config) { c.Origin = "localhost" }, false},
		{"good origin", func(c *Config) { c.Origin = "http://localhost:3000" }, true},
		{"bad format", func(c *Config) { c.Format = "xml" }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mod(&cfg)
			err := cfg.Validate()
			if (err == nil) != tc.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "debug"
	lvl, err := cfg.Level()
	if err != nil || lvl != zapcore.DebugLevel {
		t.Errorf("Level() = %v, %v", lvl, err)
	}
}
