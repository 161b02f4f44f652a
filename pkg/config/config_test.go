package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/units"
)

func TestDefaultValidates(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Engine.HistoryDepth != 50 {
		t.Errorf("HistoryDepth = %d, want 50", cfg.Engine.HistoryDepth)
	}
	if cfg.Engine.CloseThreshold != 20 {
		t.Errorf("CloseThreshold = %v, want 20", cfg.Engine.CloseThreshold)
	}
	if !strings.HasSuffix(cfg.Session.Dir, filepath.Join(AppName, "sessions")) {
		t.Errorf("Session.Dir = %q", cfg.Session.Dir)
	}
	if want := filepath.Join(filepath.Dir(cfg.Session.Dir), "cache"); cfg.Export.CacheDir != want {
		t.Errorf("Export.CacheDir = %q, want %q", cfg.Export.CacheDir, want)
	}
	if cfg.UnitMode() != units.Metric {
		t.Errorf("UnitMode() = %v", cfg.UnitMode())
	}
}

func TestParse(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg, err := Parse(`
[engine]
close_threshold = 12.5
unit_mode = "imperial"

[session]
backend = "Redis"
redis_addr = "cache:6379"
ttl = "48h"

[export]
csv_bom = false
`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Engine.CloseThreshold != 12.5 {
		t.Errorf("CloseThreshold = %v", cfg.Engine.CloseThreshold)
	}
	if cfg.UnitMode() != units.Imperial {
		t.Errorf("UnitMode() = %v", cfg.UnitMode())
	}
	if cfg.Session.Backend != BackendRedis || cfg.Session.RedisAddr != "cache:6379" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Session.TTL.Duration != 48*time.Hour {
		t.Errorf("TTL = %v", cfg.Session.TTL)
	}
	if cfg.Export.CSVBOM {
		t.Error("CSVBOM = true, want false")
	}
	// untouched sections keep defaults
	if cfg.Engine.HistoryDepth != 50 || cfg.Server.Addr != DefaultAddr {
		t.Errorf("defaults lost: %+v %+v", cfg.Engine, cfg.Server)
	}
}

func TestParseErrors(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", "[engine\n"},
		{"unknown key", "[engine]\nclose_treshold = 5\n"},
		{"bad backend", "[session]\nbackend = \"etcd\"\n"},
		{"bad unit mode", "[engine]\nunit_mode = \"cubits\"\n"},
		{"inverted zoom", "[engine]\nmin_zoom = 3.0\nmax_zoom = 1.0\n"},
		{"zero history", "[engine]\nhistory_depth = 0\n"},
		{"bad ttl", "[session]\nttl = \"soon\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv(EnvConfig, "")

	// No file at the default location: defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.Backend != BackendFile {
		t.Errorf("Backend = %q", cfg.Session.Backend)
	}

	// Explicit missing file: error.
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load(missing) error = nil")
	}

	// Round trip through Write.
	cfg.Engine.CloseThreshold = 33
	cfg.Session.Backend = BackendSQLite
	path := filepath.Join(dir, AppName, "config.toml")
	if err := Write(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load() after Write error = %v", err)
	}
	if got.Engine.CloseThreshold != 33 || got.Session.Backend != BackendSQLite {
		t.Errorf("Load() = %+v", got)
	}

	// Environment override.
	other := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(other, []byte("[server]\naddr = \":9999\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, other)
	got, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q", got.Server.Addr)
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/custom-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}
