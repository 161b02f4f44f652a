// Package config loads garmushka settings from a TOML file.
//
// The file is optional. Missing keys take the defaults from [Default];
// unknown keys are reported as errors so typos do not pass silently.
//
// Lookup order for the file:
//  1. an explicit path (the --config flag)
//  2. $GARMUSHKA_CONFIG
//  3. $XDG_CONFIG_HOME/garmushka/config.toml
//  4. ~/.config/garmushka/config.toml
//
// Example:
//
//	[engine]
//	close_threshold = 20
//	unit_mode = "metric"
//
//	[session]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "720h"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/history"
	"github.com/matzehuels/garmushka/pkg/units"
	"github.com/matzehuels/garmushka/pkg/view"
)

// AppName names the config and data directories.
const AppName = "garmushka"

// EnvConfig overrides the config file location.
const EnvConfig = "GARMUSHKA_CONFIG"

// Session backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Backends lists the accepted session backends.
var Backends = []string{BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendSQLite}

// Defaults.
const (
	DefaultCloseThreshold    = 20.0
	DefaultDoubleClickRadius = 3.0
	DefaultZoomStep          = 1.1
	DefaultTTL               = 30 * 24 * time.Hour
	DefaultAddr              = "127.0.0.1:8080"
	DefaultRedisAddr         = "localhost:6379"
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabase     = "garmushka"
	DefaultSnapshotWidth     = 1280
	DefaultSnapshotHeight    = 960
)

// Duration is a time.Duration written as a string such as "720h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Engine tunes the measurement engine.
type Engine struct {
	// CloseThreshold is the polygon auto-close distance in screen pixels.
	CloseThreshold float64 `toml:"close_threshold"`
	// DoubleClickRadius is how close, in screen pixels, the second click of
	// a double-click must be to count as a duplicate.
	DoubleClickRadius float64 `toml:"double_click_radius"`
	MinZoom           float64 `toml:"min_zoom"`
	MaxZoom           float64 `toml:"max_zoom"`
	ZoomStep          float64 `toml:"zoom_step"`
	HistoryDepth      int     `toml:"history_depth"`
	UnitMode          string  `toml:"unit_mode"`
}

// Session selects and configures the session store.
type Session struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	SQLitePath    string   `toml:"sqlite_path"`
	TTL           Duration `toml:"ttl"`
}

// Server configures `garmushka serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Export configures file exports.
type Export struct {
	CSVBOM         bool `toml:"csv_bom"`
	SnapshotWidth  int  `toml:"snapshot_width"`
	SnapshotHeight int  `toml:"snapshot_height"`
	// CacheDir holds rendered PNGs reused by `session export`.
	CacheDir string `toml:"cache_dir"`
}

// Config is the whole settings file.
type Config struct {
	Engine  Engine  `toml:"engine"`
	Session Session `toml:"session"`
	Server  Server  `toml:"server"`
	Export  Export  `toml:"export"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Engine: Engine{
			CloseThreshold:    DefaultCloseThreshold,
			DoubleClickRadius: DefaultDoubleClickRadius,
			MinZoom:           view.DefaultMinScale,
			MaxZoom:           view.DefaultMaxScale,
			ZoomStep:          DefaultZoomStep,
			HistoryDepth:      history.DefaultCapacity,
			UnitMode:          string(units.Metric),
		},
		Session: Session{
			Backend:       BackendFile,
			RedisAddr:     DefaultRedisAddr,
			MongoURI:      DefaultMongoURI,
			MongoDatabase: DefaultMongoDatabase,
			TTL:           Duration{DefaultTTL},
		},
		Server: Server{Addr: DefaultAddr},
		Export: Export{
			CSVBOM:         true,
			SnapshotWidth:  DefaultSnapshotWidth,
			SnapshotHeight: DefaultSnapshotHeight,
		},
	}
}

// Validate checks value ranges and fills derived defaults such as the
// session directory.
func (c *Config) Validate() error {
	e := &c.Engine
	if e.CloseThreshold <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.close_threshold must be positive")
	}
	if e.DoubleClickRadius < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.double_click_radius cannot be negative")
	}
	if e.MinZoom <= 0 || e.MaxZoom < e.MinZoom {
		return errors.New(errors.ErrCodeInvalidConfig, "engine zoom bounds invalid: min %v, max %v", e.MinZoom, e.MaxZoom)
	}
	if e.ZoomStep <= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.zoom_step must be greater than 1")
	}
	if e.HistoryDepth <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "engine.history_depth must be positive")
	}
	if _, err := units.ParseMode(e.UnitMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "engine.unit_mode")
	}

	s := &c.Session
	s.Backend = strings.ToLower(s.Backend)
	if !slices.Contains(Backends, s.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "session.backend %q not one of %s", s.Backend, strings.Join(Backends, ", "))
	}
	if s.TTL.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "session.ttl must be positive")
	}
	if s.Dir == "" {
		dir, err := DataDir()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve session dir")
		}
		s.Dir = filepath.Join(dir, "sessions")
	}
	if s.SQLitePath == "" {
		s.SQLitePath = filepath.Join(filepath.Dir(s.Dir), "sessions.db")
	}

	if c.Export.CacheDir == "" {
		c.Export.CacheDir = filepath.Join(filepath.Dir(s.Dir), "cache")
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	if c.Export.SnapshotWidth <= 0 || c.Export.SnapshotHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "export snapshot size must be positive")
	}
	return nil
}

// UnitMode returns the parsed display mode. Call after Validate.
func (c Config) UnitMode() units.Mode {
	m, _ := units.ParseMode(c.Engine.UnitMode)
	return m
}

// Parse decodes TOML on top of the defaults and validates the result.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the config file at path, falling back to the lookup order in
// the package doc when path is empty. A missing file at a default location
// yields the defaults; a missing explicit file is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML to path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// ConfigDir returns the XDG config directory (~/.config/garmushka/).
func ConfigDir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DataDir returns the XDG data directory (~/.local/share/garmushka/).
func DataDir() (string, error) {
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
