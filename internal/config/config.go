package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vango-dev/waypoint/internal/errors"
)

const (
	// ConfigName is the config file name without extension. Any format
	// viper reads (waypoint.json, waypoint.yaml, waypoint.toml) is accepted.
	ConfigName = "waypoint"

	// EnvPrefix prefixes environment overrides (WAYPOINT_SERVER_PORT).
	EnvPrefix = "WAYPOINT"

	// EnvConfigFile names an explicit config file.
	EnvConfigFile = "WAYPOINT_CONFIG"

	// DefaultPort is the default service port.
	DefaultPort = 3000

	// DefaultHost is the default service host.
	DefaultHost = "localhost"

	// DefaultManifest is the default manifest path.
	DefaultManifest = "manifest.json"

	// DefaultStoreTimeout bounds a single module fetch from a remote store.
	DefaultStoreTimeout = 10 * time.Second
)

// Store kinds.
const (
	StoreFS = "fs"
	StoreS3 = "s3"
)

// Config is the complete Waypoint configuration.
type Config struct {
	// Manifest is the path to the route manifest JSON.
	Manifest string `mapstructure:"manifest"`

	// Store configures where node and endpoint modules are fetched from.
	Store StoreConfig `mapstructure:"store"`

	// Server configures the HTTP service.
	Server ServerConfig `mapstructure:"server"`

	// Log configures the structured logger.
	Log LogConfig `mapstructure:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StoreConfig selects and configures the module store.
type StoreConfig struct {
	// Kind is "fs" or "s3".
	Kind string `mapstructure:"kind"`

	// Dir is the module root for the fs store. Empty means the directory
	// containing the manifest.
	Dir string `mapstructure:"dir"`

	// Bucket is the S3 bucket for the s3 store.
	Bucket string `mapstructure:"bucket"`

	// Prefix is prepended to module names to form S3 keys.
	Prefix string `mapstructure:"prefix"`

	// Region overrides the AWS region from the environment.
	Region string `mapstructure:"region"`

	// Timeout bounds a single S3 fetch.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig contains HTTP service settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Metrics exposes /metrics when set.
	Metrics bool `mapstructure:"metrics"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Manifest: DefaultManifest,
		Store: StoreConfig{
			Kind:    StoreFS,
			Timeout: DefaultStoreTimeout,
		},
		Server: ServerConfig{
			Host:    DefaultHost,
			Port:    DefaultPort,
			Metrics: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Loader layers defaults, a config file, environment variables and bound
// command-line flags, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader seeded with the defaults from New.
func NewLoader() *Loader {
	v := viper.New()

	d := New()
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("store.kind", d.Store.Kind)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.bucket", d.Store.Bucket)
	v.SetDefault("store.prefix", d.Store.Prefix)
	v.SetDefault("store.region", d.Store.Region)
	v.SetDefault("store.timeout", d.Store.Timeout)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: nil flag", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Set overrides a key.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Load reads the config file and returns the validated Config.
//
// file, when set, must exist. Otherwise WAYPOINT_CONFIG is consulted, then
// dir is searched for waypoint.{json,yaml,toml}; a missing file there is
// not an error.
func (l *Loader) Load(file, dir string) (*Config, error) {
	if file == "" {
		file = os.Getenv(EnvConfigFile)
	}

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, errors.New("W120").
				WithMessage("Config file %s not found", file).
				Wrap(err)
		}
		l.v.SetConfigFile(file)
	} else {
		if dir == "" {
			dir = "."
		}
		l.v.SetConfigName(ConfigName)
		l.v.AddConfigPath(dir)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case file == "" && stderrors.As(err, &notFound):
			// No config file; defaults and environment only.
		default:
			return nil, errors.New("W120").
				WithDetail("Failed to parse " + l.v.ConfigFileUsed() + ".").
				WithSuggestion("Check the file syntax; the extension selects json, yaml or toml").
				Wrap(err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errors.New("W120").Wrap(err)
	}
	cfg.configPath = l.v.ConfigFileUsed()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	return NewLoader().Load("", dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	return NewLoader().Load(path, "")
}

func (c *Config) normalize() {
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreFS:
	case StoreS3:
		if c.Store.Bucket == "" {
			return errors.New("W120").
				WithDetail("store.bucket is required when store.kind is s3").
				WithSuggestion("Set WAYPOINT_STORE_BUCKET or store.bucket in waypoint.yaml")
		}
	default:
		return errors.New("W121").
			WithMessage("Unsupported module store %q", c.Store.Kind)
	}

	if c.Store.Timeout < 0 {
		return errors.New("W120").WithDetail("store.timeout must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("W120").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("W120").WithDetail(err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("W120").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Manifest == "" {
		return errors.New("W120").WithDetail("manifest path is empty")
	}
	return nil
}

// Path returns the path where the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory relative paths resolve against: the config
// file's directory, or the working directory when no file was read.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// ManifestPath returns the manifest path resolved against Dir.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest)
}

// StoreDir returns the fs store root: store.dir resolved against Dir, or
// the manifest's directory.
func (c *Config) StoreDir() string {
	if c.Store.Dir == "" {
		return filepath.Dir(c.ManifestPath())
	}
	return c.resolve(c.Store.Dir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Address returns the host:port the service listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
