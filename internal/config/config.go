// Package config handles TOML-based configuration loading and validation.
// Values are layered: defaults < config file < environment < CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "bookextract"

// Environment variables read by ApplyEnv.
const (
	EnvChromePath = "BOOKEXTRACT_CHROME_PATH"
	EnvProxy      = "BOOKEXTRACT_PROXY"
	EnvOutput     = "BOOKEXTRACT_OUTPUT"
)

// Config holds all application configuration.
type Config struct {
	OutputDir       string        `toml:"output_dir"`
	ContinueOnError bool          `toml:"continue_on_error"`
	Retries         int           `toml:"retries"`
	RetryDelay      time.Duration `toml:"retry_delay"`
	History         bool          `toml:"history"`
	Verbose         bool          `toml:"verbose"`
	Source          Source        `toml:"source"`
	Browser         Browser       `toml:"browser"`
}

// Source describes the reader page and how the document is embedded.
type Source struct {
	Scheme    string `toml:"scheme"`
	Host      string `toml:"host"`
	Path      string `toml:"path"`
	Param     string `toml:"param"`
	Variable  string `toml:"variable"`
	Extension string `toml:"extension"`
}

// Browser configures the headless browser and its waits.
type Browser struct {
	Headless           bool          `toml:"headless"`
	ChromePath         string        `toml:"chrome_path"`
	UserAgent          string        `toml:"user_agent"`
	Proxy              string        `toml:"proxy"`
	WindowWidth        int           `toml:"window_width"`
	WindowHeight       int           `toml:"window_height"`
	NavigationTimeout  time.Duration `toml:"navigation_timeout"`
	NetworkIdleTimeout time.Duration `toml:"network_idle_timeout"`
	SettleDelay        time.Duration `toml:"settle_delay"`
	FrameWait          time.Duration `toml:"frame_wait"`
	LocateTimeout      time.Duration `toml:"locate_timeout"`
	PollInterval       time.Duration `toml:"poll_interval"`
	ReadTimeout        time.Duration `toml:"read_timeout"`
	MaxFrameDepth      int           `toml:"max_frame_depth"`
	Screenshots        bool          `toml:"screenshots"`
}

// DefaultUserAgent is sent unless the config overrides it.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		OutputDir:  "output",
		Retries:    0,
		RetryDelay: 5 * time.Second,
		History:    true,
		Source: Source{
			Scheme:    "https",
			Host:      "library.alkafeel.net",
			Path:      "/dic/book/",
			Param:     "e",
			Variable:  "pdfData",
			Extension: "pdf",
		},
		Browser: Browser{
			Headless:           true,
			UserAgent:          DefaultUserAgent,
			WindowWidth:        1280,
			WindowHeight:       720,
			NavigationTimeout:  60 * time.Second,
			NetworkIdleTimeout: 15 * time.Second,
			SettleDelay:        3 * time.Second,
			FrameWait:          5 * time.Second,
			LocateTimeout:      60 * time.Second,
			PollInterval:       250 * time.Millisecond,
			ReadTimeout:        5 * time.Second,
			MaxFrameDepth:      3,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges it with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path over the defaults. A missing file is
// not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv loads a .env file from the working directory, if present, and
// applies BOOKEXTRACT_* overrides.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if v := os.Getenv(EnvChromePath); v != "" {
		c.Browser.ChromePath = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.Browser.Proxy = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.OutputDir = v
	}
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	if c.Retries < 0 || c.Retries > 10 {
		return fmt.Errorf("retries must be between 0 and 10, got %d", c.Retries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay cannot be negative")
	}

	validSchemes := map[string]bool{"https": true, "http": true}
	if !validSchemes[strings.ToLower(c.Source.Scheme)] {
		return fmt.Errorf("unsupported scheme %q (valid: https, http)", c.Source.Scheme)
	}
	if c.Source.Host == "" || strings.ContainsAny(c.Source.Host, "/:@ ") {
		return fmt.Errorf("invalid source host %q", c.Source.Host)
	}
	if c.Source.Path == "" || c.Source.Param == "" || c.Source.Variable == "" {
		return fmt.Errorf("source path, param, and variable must be set")
	}
	if c.Source.Extension == "" || strings.ContainsAny(c.Source.Extension, `/\.`) {
		return fmt.Errorf("invalid extension %q", c.Source.Extension)
	}

	b := c.Browser
	if b.WindowWidth < 320 || b.WindowHeight < 240 {
		return fmt.Errorf("window size %dx%d is too small", b.WindowWidth, b.WindowHeight)
	}
	if b.MaxFrameDepth < 1 || b.MaxFrameDepth > 10 {
		return fmt.Errorf("max_frame_depth must be between 1 and 10, got %d", b.MaxFrameDepth)
	}
	timeouts := map[string]time.Duration{
		"navigation_timeout": b.NavigationTimeout,
		"frame_wait":         b.FrameWait,
		"locate_timeout":     b.LocateTimeout,
		"poll_interval":      b.PollInterval,
		"read_timeout":       b.ReadTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if b.NetworkIdleTimeout < 0 || b.SettleDelay < 0 {
		return fmt.Errorf("network_idle_timeout and settle_delay cannot be negative")
	}
	if b.FrameWait > b.LocateTimeout {
		return fmt.Errorf("frame_wait (%s) exceeds locate_timeout (%s)", b.FrameWait, b.LocateTimeout)
	}
	return nil
}

// ExpandOutputDir resolves ~ in the output directory path.
func (c *Config) ExpandOutputDir() (string, error) {
	dir := c.OutputDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the extraction history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "history.db"), nil
}
