package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
)

const (
	AppName       = "forage-ports"
	StateFileName = "state.json"
	LockFileName  = "state.lock"

	DefaultLow          = 10000
	DefaultHigh         = 32000
	DefaultLease        = 2 * time.Hour
	DefaultProbeTimeout = time.Second
	DefaultProbeHost    = "127.0.0.1"

	// MaxPort is the exclusive upper limit of the port number space.
	MaxPort = 65536
)

// Environment variables read by Load.
const (
	EnvConfigFile   = "FORAGE_PORTS_CONFIG"
	EnvDir          = "FORAGE_PORTS_DIR"
	EnvLow          = "FORAGE_PORTS_LOW"
	EnvHigh         = "FORAGE_PORTS_HIGH"
	EnvLease        = "FORAGE_PORTS_LEASE"
	EnvProbeTimeout = "FORAGE_PORTS_PROBE_TIMEOUT"
	EnvProbeHost    = "FORAGE_PORTS_PROBE_HOST"
)

// Config holds the allocator settings.
type Config struct {
	Dir          string
	Low          int
	High         int
	Lease        time.Duration
	ProbeTimeout time.Duration
	ProbeHost    string
}

// fileConfig mirrors the TOML file. Durations stay strings so that
// "90s"-style values parse with time.ParseDuration.
type fileConfig struct {
	Dir          string `toml:"dir"`
	Low          int    `toml:"low"`
	High         int    `toml:"high"`
	Lease        string `toml:"lease"`
	ProbeTimeout string `toml:"probe_timeout"`
	ProbeHost    string `toml:"probe_host"`
}

// DefaultDir returns the per-user state directory.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName)
}

// DefaultFile returns the default config file location, or "" when the
// user config directory cannot be determined.
func DefaultFile() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ""
	}
	return filepath.Join(base, AppName, "config.toml")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Dir:          DefaultDir(),
		Low:          DefaultLow,
		High:         DefaultHigh,
		Lease:        DefaultLease,
		ProbeTimeout: DefaultProbeTimeout,
		ProbeHost:    DefaultProbeHost,
	}
}

// Load resolves the configuration from defaults, the config file and the
// process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	path := getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = DefaultFile()
	}

	if path != "" {
		err := cfg.LoadFile(path)
		switch {
		case err == nil:
		case !explicit && errors.Is(err, fs.ErrNotExist):
			// An absent default file is normal.
		default:
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays the non-zero values of a TOML file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var fc fileConfig
	md, err := toml.Decode(string(data), &fc)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.ConfigError(fmt.Sprintf("unknown key %q in config file %s", undecoded[0].String(), path), nil)
	}

	if fc.Dir != "" {
		c.Dir = fc.Dir
	}
	if fc.Low != 0 {
		c.Low = fc.Low
	}
	if fc.High != 0 {
		c.High = fc.High
	}
	if fc.Lease != "" {
		if c.Lease, err = parseDuration("lease", fc.Lease); err != nil {
			return err
		}
	}
	if fc.ProbeTimeout != "" {
		if c.ProbeTimeout, err = parseDuration("probe_timeout", fc.ProbeTimeout); err != nil {
			return err
		}
	}
	if fc.ProbeHost != "" {
		c.ProbeHost = fc.ProbeHost
	}

	return nil
}

// ApplyEnv overlays FORAGE_PORTS_* variables onto c.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var err error

	if v := getenv(EnvDir); v != "" {
		c.Dir = v
	}
	if v := getenv(EnvLow); v != "" {
		if c.Low, err = parseInt(EnvLow, v); err != nil {
			return err
		}
	}
	if v := getenv(EnvHigh); v != "" {
		if c.High, err = parseInt(EnvHigh, v); err != nil {
			return err
		}
	}
	if v := getenv(EnvLease); v != "" {
		if c.Lease, err = parseDuration(EnvLease, v); err != nil {
			return err
		}
	}
	if v := getenv(EnvProbeTimeout); v != "" {
		if c.ProbeTimeout, err = parseDuration(EnvProbeTimeout, v); err != nil {
			return err
		}
	}
	if v := getenv(EnvProbeHost); v != "" {
		c.ProbeHost = v
	}

	return nil
}

// Validate checks that the Config is usable.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.ConfigError("state directory is required", nil)
	}
	if c.Low < 1 {
		return errors.ConfigError(fmt.Sprintf("low must be at least 1 (got %d)", c.Low), nil)
	}
	if c.High > MaxPort {
		return errors.ConfigError(fmt.Sprintf("high must be at most %d (got %d)", MaxPort, c.High), nil)
	}
	if c.Low >= c.High {
		return errors.ConfigError(fmt.Sprintf("low (%d) must be below high (%d)", c.Low, c.High), nil)
	}
	if c.Lease <= 0 {
		return errors.ConfigError(fmt.Sprintf("lease must be positive (got %s)", c.Lease), nil)
	}
	if c.ProbeTimeout <= 0 {
		return errors.ConfigError(fmt.Sprintf("probe timeout must be positive (got %s)", c.ProbeTimeout), nil)
	}
	if c.ProbeHost == "" {
		return errors.ConfigError("probe host is required", nil)
	}
	return nil
}

// StatePath returns the state file path inside Dir.
func (c *Config) StatePath() (string, error) {
	return c.join(StateFileName)
}

// LockPath returns the lock file path inside Dir.
func (c *Config) LockPath() (string, error) {
	return c.join(LockFileName)
}

func (c *Config) join(name string) (string, error) {
	path, err := securejoin.SecureJoin(c.Dir, name)
	if err != nil {
		return "", errors.ConfigError(fmt.Sprintf("invalid state directory %s", c.Dir), err)
	}
	return path, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigError(fmt.Sprintf("%s must be a valid number (got %q)", key, value), err)
	}
	return n, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigError(fmt.Sprintf("%s must be a valid duration (got %q)", key, value), err)
	}
	return d, nil
}
