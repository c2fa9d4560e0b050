package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/vango-dev/waypoint/internal/errors"
)

// clearEnv keeps the developer's environment out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigFile,
		"WAYPOINT_MANIFEST",
		"WAYPOINT_STORE_KIND",
		"WAYPOINT_STORE_DIR",
		"WAYPOINT_STORE_BUCKET",
		"WAYPOINT_STORE_PREFIX",
		"WAYPOINT_STORE_REGION",
		"WAYPOINT_STORE_TIMEOUT",
		"WAYPOINT_SERVER_HOST",
		"WAYPOINT_SERVER_PORT",
		"WAYPOINT_SERVER_METRICS",
		"WAYPOINT_LOG_LEVEL",
		"WAYPOINT_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Manifest != DefaultManifest {
		t.Errorf("Manifest = %q, want %q", cfg.Manifest, DefaultManifest)
	}
	if cfg.Store.Kind != StoreFS || cfg.Store.Timeout != DefaultStoreTimeout {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Server.Port != DefaultPort || cfg.Log.Level != "info" {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "waypoint.yaml", `
manifest: build/manifest.json
store:
  kind: S3
  bucket: chunks
  prefix: releases/42
  region: eu-west-1
  timeout: 5s
server:
  host: 0.0.0.0
  port: 8080
  metrics: false
log:
  level: debug
  format: json
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if cfg.ManifestPath() != filepath.Join(dir, "build", "manifest.json") {
		t.Errorf("ManifestPath() = %q", cfg.ManifestPath())
	}
	want := StoreConfig{Kind: StoreS3, Bucket: "chunks", Prefix: "releases/42", Region: "eu-west-1", Timeout: 5 * time.Second}
	if cfg.Store != want {
		t.Errorf("Store = %+v, want %+v", cfg.Store, want)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Server.Metrics {
		t.Error("Server.Metrics should be false")
	}
	if cfg.LogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadFileJSON(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.json", `{"manifest": "/srv/app/manifest.json", "server": {"port": 9000}}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.ManifestPath() != "/srv/app/manifest.json" {
		t.Errorf("ManifestPath() = %q", cfg.ManifestPath())
	}
	if cfg.StoreDir() != "/srv/app" {
		t.Errorf("StoreDir() = %q, want manifest directory", cfg.StoreDir())
	}
	if cfg.Server.Port != 9000 || cfg.Server.Host != DefaultHost {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "waypoint.toml", "[server]\nport = 8080\n")

	t.Setenv("WAYPOINT_SERVER_PORT", "9191")
	t.Setenv("WAYPOINT_STORE_DIR", "chunks")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want env override 9191", cfg.Server.Port)
	}
	if cfg.StoreDir() != filepath.Join(dir, "chunks") {
		t.Errorf("StoreDir() = %q", cfg.StoreDir())
	}
}

func TestLoadEnvConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "elsewhere.yaml", "log:\n  level: warn\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Errorf("LogLevel() = %v, want warn", cfg.LogLevel())
	}
}

func TestLoaderBindFlag(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "waypoint.yaml", "server:\n  port: 8080\n")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.Int("port", 0, "port")
	if err := flags.Parse([]string{"--port", "7070"}); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	if err := l.BindFlag("server.port", flags.Lookup("port")); err != nil {
		t.Fatalf("BindFlag() error: %v", err)
	}
	if err := l.BindFlag("server.host", flags.Lookup("host")); err == nil {
		t.Error("BindFlag(nil) should fail")
	}

	cfg, err := l.Load("", dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want flag value 7070", cfg.Server.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
	}{
		{"unsupported store", "waypoint.yaml", "store:\n  kind: gcs\n", "W121"},
		{"s3 without bucket", "waypoint.yaml", "store:\n  kind: s3\n", "W120"},
		{"bad port", "waypoint.yaml", "server:\n  port: 70000\n", "W120"},
		{"bad level", "waypoint.yaml", "log:\n  level: loud\n", "W120"},
		{"bad format", "waypoint.yaml", "log:\n  format: xml\n", "W120"},
		{"negative timeout", "waypoint.yaml", "store:\n  timeout: -1s\n", "W120"},
		{"empty manifest", "waypoint.yaml", "manifest: \"\"\n", "W120"},
		{"syntax", "waypoint.json", `{"server": `, "W120"},
		{"type", "waypoint.yaml", "server:\n  port: many\n", "W120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if got := errors.Code(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if errors.Code(err) != "W120" {
		t.Errorf("err = %v, want W120", err)
	}
}

func TestDirWithoutFile(t *testing.T) {
	cfg := New()
	if cfg.Dir() != "." {
		t.Errorf("Dir() = %q, want .", cfg.Dir())
	}
	if cfg.ManifestPath() != DefaultManifest {
		t.Errorf("ManifestPath() = %q", cfg.ManifestPath())
	}
	if cfg.StoreDir() != "." {
		t.Errorf("StoreDir() = %q, want .", cfg.StoreDir())
	}
}
