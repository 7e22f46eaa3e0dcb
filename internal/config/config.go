package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/vango-dev/shell/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "shell.json"

	// DefaultBaseURL is the application the shell talks to.
	DefaultBaseURL = "http://localhost:3000/"

	// DefaultServerAddr is the listen address of the reference server.
	DefaultServerAddr = ":3000"

	// DefaultPollInterval is the runtime activation polling interval.
	DefaultPollInterval = "5ms"

	// DefaultNavigateTimeout bounds a single navigation.
	DefaultNavigateTimeout = "30s"

	// DefaultMetricsNamespace prefixes all metric names.
	DefaultMetricsNamespace = "shell"
)

// Config represents the complete shell.json configuration.
type Config struct {
	// BaseURL is the application root; the init endpoint is resolved
	// against it.
	BaseURL string `json:"baseURL,omitempty"`

	// PollInterval is how often the activator checks the client runtime.
	PollInterval string `json:"pollInterval,omitempty"`

	// ActivationTimeout bounds runtime activation. Empty means no limit.
	ActivationTimeout string `json:"activationTimeout,omitempty"`

	// NavigateTimeout bounds a single navigation.
	NavigateTimeout string `json:"navigateTimeout,omitempty"`

	// Server contains reference server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains reference server settings.
type ServerConfig struct {
	// Addr is the address to listen on.
	Addr string `json:"addr,omitempty"`

	// Routes are the chi route patterns the server has views for.
	Routes []string `json:"routes,omitempty"`

	// ProductionMode is reported to clients in the AppConfig.
	ProductionMode bool `json:"productionMode,omitempty"`

	// MaxApps limits live app sessions. Zero means unlimited.
	MaxApps int `json:"maxApps,omitempty"`

	// PingInterval is the push keepalive interval. Empty disables pings.
	PingInterval string `json:"pingInterval,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics on the reference server.
	Enabled bool `json:"enabled"`

	// Namespace prefixes all metric names.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		PollInterval:    DefaultPollInterval,
		NavigateTimeout: DefaultNavigateTimeout,
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			Routes:       []string{"/"},
			PingInterval: "30s",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for shell.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E042").
				WithDetail("No shell.json found in " + filepath.Dir(path))
		}
		return nil, errors.New("E041").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E041").
			WithDetail("Failed to parse shell.json: " + err.Error()).
			WithSuggestion("Check that shell.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E041").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E041").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PollInterval == "" {
		c.PollInterval = DefaultPollInterval
	}
	if c.NavigateTimeout == "" {
		c.NavigateTimeout = DefaultNavigateTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if len(c.Server.Routes) == 0 {
		c.Server.Routes = []string{"/"}
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("E040").
			WithDetail("baseURL must be an absolute http or https URL, got " + c.BaseURL)
	}

	durations := []struct {
		field, value string
		positive     bool
	}{
		{"pollInterval", c.PollInterval, true},
		{"activationTimeout", c.ActivationTimeout, false},
		{"navigateTimeout", c.NavigateTimeout, false},
		{"server.pingInterval", c.Server.PingInterval, false},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil || v < 0 || (d.positive && v == 0) {
			return errors.New("E040").
				WithDetail(d.field + " must be a valid duration, got " + d.value)
		}
	}

	if c.Server.MaxApps < 0 {
		return errors.New("E040").
			WithDetail("server.maxApps must not be negative")
	}
	return nil
}

// BaseURLValue returns the parsed base URL.
func (c *Config) BaseURLValue() (*url.URL, error) {
	return url.Parse(c.BaseURL)
}

// PollIntervalDuration returns the activation polling interval.
func (c *Config) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval)
}

// ActivationTimeoutDuration returns the activation timeout (0 = none).
func (c *Config) ActivationTimeoutDuration() time.Duration {
	return parseDuration(c.ActivationTimeout)
}

// NavigateTimeoutDuration returns the per-navigation timeout (0 = none).
func (c *Config) NavigateTimeoutDuration() time.Duration {
	return parseDuration(c.NavigateTimeout)
}

// PingIntervalDuration returns the server push keepalive interval.
func (c *Config) PingIntervalDuration() time.Duration {
	return parseDuration(c.Server.PingInterval)
}

// parseDuration parses a validated duration; invalid values yield 0.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// shell.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E042").
				WithDetail("No shell.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or the nearest parent holding shell.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
