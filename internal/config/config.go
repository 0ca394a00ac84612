// Package config handles airport board configuration loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/subham/airportboard/internal/flights"
)

// DefaultSearchPaths returns the config file search order.
// Then: ./board.yaml, ~/.config/airportboard/board.yaml, /etc/airportboard/board.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"board.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "airportboard", "board.yaml"))
	}

	paths = append(paths, "/etc/airportboard/board.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all airport board configuration.
type Config struct {
	Airport      string        `yaml:"airport"`
	AirportName  string        `yaml:"airport_name"`
	Latitude     float64       `yaml:"latitude"`
	Longitude    float64       `yaml:"longitude"`
	BackendURL   string        `yaml:"backend_url"`
	MapAPIKey    string        `yaml:"map_api_key"`
	PollInterval time.Duration `yaml:"poll_interval"`
	DefaultLimit int           `yaml:"default_limit"`
	Timezone     string        `yaml:"timezone"`

	// Listen is the address of the local JSON API. Empty disables it.
	Listen string `yaml:"listen"`
	// RefreshBurst manual refreshes are allowed per RefreshWindow through the API.
	RefreshBurst  int           `yaml:"refresh_burst"`
	RefreshWindow time.Duration `yaml:"refresh_window"`

	// Headless runs without a window; the API and poller still run.
	Headless bool   `yaml:"headless"`
	LogLevel string `yaml:"log_level"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Airport:       "ORD",
		AirportName:   "O'Hare International Airport",
		Latitude:      41.9742,
		Longitude:     -87.9073,
		BackendURL:    "http://localhost:8000",
		PollInterval:  time.Hour,
		DefaultLimit:  flights.DefaultLimit,
		RefreshBurst:  6,
		RefreshWindow: time.Minute,
		LogLevel:      "info",
	}
}

// Load reads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment. The VITE_* names are
// accepted so an existing frontend .env keeps working.
func (c *Config) ApplyEnv() error {
	if v := firstEnv("BOARD_API_BASE", "VITE_API_BASE"); v != "" {
		c.BackendURL = v
	}
	if v := firstEnv("BOARD_MAP_API_KEY", "VITE_ARCGIS_API_KEY"); v != "" {
		c.MapAPIKey = v
	}
	if v := firstEnv("BOARD_AIRPORT"); v != "" {
		c.Airport = v
	}
	if v := firstEnv("BOARD_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := firstEnv("BOARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := firstEnv("BOARD_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := firstEnv("BOARD_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BOARD_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

// Validate normalizes derived fields and reports unusable settings.
func (c *Config) Validate() error {
	c.Airport = strings.ToUpper(strings.TrimSpace(c.Airport))
	if c.Airport == "" {
		return errors.New("airport is required")
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url %q is not an absolute URL", c.BackendURL)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll_interval %s is below one second", c.PollInterval)
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("airport position %.4f,%.4f is out of range", c.Latitude, c.Longitude)
	}
	if c.RefreshBurst <= 0 || c.RefreshWindow <= 0 {
		return errors.New("refresh_burst and refresh_window must be positive")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	c.DefaultLimit = flights.NormalizeLimit(c.DefaultLimit)
	return nil
}

// Location returns the display time zone; empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
