package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"imagedup/cache"
	"imagedup/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvWorkers, "")
	t.Setenv(config.EnvLogLevel, "")
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected no config file, got %s", resolved)
	}
	if cfg.Cache.Name != cache.DefaultFileName {
		t.Fatalf("unexpected cache name %q", cfg.Cache.Name)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if cfg.Workers() != runtime.GOMAXPROCS(0) {
		t.Fatalf("Workers() = %d, want GOMAXPROCS", cfg.Workers())
	}
	if _, ok := cfg.Location().(cache.InRoot); !ok {
		t.Fatalf("default location is %T, want cache.InRoot", cfg.Location())
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, `
[cache]
dir = "~/hashes"

[scan]
recursive = true
workers = 2

[logging]
level = "DEBUG"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if !cfg.Scan.Recursive || cfg.Workers() != 2 || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	loc, ok := cfg.Location().(cache.Dir)
	if !ok || loc.Dir != filepath.Join(home, "hashes") {
		t.Fatalf("Location() = %#v", cfg.Location())
	}

	t.Setenv(config.EnvWorkers, "7")
	t.Setenv(config.EnvLogLevel, "warn")
	cfg, _, _, err = config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers() != 7 || cfg.Logging.Level != "warn" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "[cache]\nfile = \"/tmp/explicit.db\"\n")
	t.Setenv(config.EnvConfig, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if loc, ok := cfg.Location().(cache.File); !ok || loc.Path != "/tmp/explicit.db" {
		t.Fatalf("Location() = %#v", cfg.Location())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"negative workers", "[scan]\nworkers = -1\n", nil, "scan.workers"},
		{"both locations", "[cache]\nfile = \"a.db\"\ndir = \"b\"\n", nil, "mutually exclusive"},
		{"bad name", "[cache]\nname = \"sub/x.db\"\n", nil, "cache.name"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", nil, "logging.level"},
		{"unknown key", "[scan]\nthreshold = 3\n", nil, "parse config"},
		{"bad env workers", "", map[string]string{config.EnvWorkers: "many"}, config.EnvWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
