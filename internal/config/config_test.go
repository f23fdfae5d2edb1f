package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/loader"
)

// isolate runs the test in an empty directory with no config in reach.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, name := range []string{
		"REVDEPS_DIR", "REVDEPS_MONGO_URI", "REVDEPS_MONGO_DATABASE", "REVDEPS_MONGO_COLLECTION",
		"REVDEPS_REDIS_ADDR", "REVDEPS_ADDR", "REVDEPS_CACHE_TTL", "REVDEPS_NO_CACHE",
	} {
		t.Setenv(name, "")
	}
	return dir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want none", cfg.Path)
	}
	if cfg.Source.Dir != "." || cfg.Server.Addr != ":8080" || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, FileName), `
[source]
dir = "manifests"
recursive = true

[cache]
ttl = "1h30m"
redis_addr = "localhost:6379"

[server]
addr = "127.0.0.1:9000"
watch = true
`)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != FileName {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.Source.Dir != "manifests" || !cfg.Source.Recursive {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Cache.TTL != 90*time.Minute || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || !cfg.Server.Watch {
		t.Errorf("server = %+v", cfg.Server)
	}
	// Unset keys keep their defaults.
	if cfg.Source.Pattern != loader.DefaultPattern {
		t.Errorf("Pattern = %q", cfg.Source.Pattern)
	}
}

func TestLoadXDGFile(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, "xdg", "revdeps", "config.toml"), "[server]\naddr = \":7000\"\n")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, FileName), "[source]\ndir = \"from-file\"\n")
	t.Setenv("REVDEPS_DIR", "from-env")
	t.Setenv("REVDEPS_MONGO_URI", "mongodb://db:27017")
	t.Setenv("REVDEPS_CACHE_TTL", "5m")
	t.Setenv("REVDEPS_NO_CACHE", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Dir != "from-env" {
		t.Errorf("Dir = %q", cfg.Source.Dir)
	}
	if cfg.Cache.TTL != 5*time.Minute || !cfg.Cache.Disabled {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if _, ok := cfg.ManifestSource(nil).(loader.Mongo); !ok {
		t.Error("mongo uri should select the mongo source")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("REVDEPS_ADDR")
	write(t, filepath.Join(dir, ".env"), "REVDEPS_ADDR=:6000\n")
	t.Cleanup(func() { os.Unsetenv("REVDEPS_ADDR") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":6000" {
		t.Errorf("Addr = %q, want value from .env", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantMsg string
	}{
		{"bad toml", "[source\n", nil, "parse"},
		{"unknown key", "[source]\ndirectory = \"x\"\n", nil, "unknown keys"},
		{"bad addr", "[server]\naddr = \"nope\"\n", nil, "Addr"},
		{"bad pattern", "[source]\npattern = \"[\"\n", nil, "Pattern"},
		{"bad concurrency", "[source]\nconcurrency = 0\n", nil, "Concurrency"},
		{"bad mongo uri", "[source.mongo]\nuri = \"not a uri\"\n", nil, "URI"},
		{"bad ttl env", "", map[string]string{"REVDEPS_CACHE_TTL": "soon"}, "REVDEPS_CACHE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				write(t, filepath.Join(dir, FileName), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	if _, err := Load("missing.toml"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestDirSource(t *testing.T) {
	cfg := Default()
	cfg.Source.Dir = "pkgs"
	cfg.Source.Recursive = true
	d, ok := cfg.ManifestSource(nil).(loader.Dir)
	if !ok {
		t.Fatal("expected a directory source")
	}
	if d.Path != "pkgs" || !d.Recursive || d.Pattern != loader.DefaultPattern {
		t.Errorf("Dir = %+v", d)
	}
}
