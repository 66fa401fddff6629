package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Browser  BrowserConfig  `toml:"browser"`
	Capture  CaptureConfig  `toml:"capture"`
	Targets  []TargetConfig `toml:"targets"`
	Telegram TelegramConfig `toml:"telegram"`
	Schedule ScheduleConfig `toml:"schedule"`
	Store    StoreConfig    `toml:"store"`
}

// BrowserConfig controls the Chrome instance. The user-data-dir and profile
// carry the login session for sites that need one, so captures see the same
// page a logged-in user would.
type BrowserConfig struct {
	Headless         bool   `toml:"headless"`
	WindowWidth      int    `toml:"window_width"`
	WindowHeight     int    `toml:"window_height"`
	UserDataDir      string `toml:"user_data_dir"`
	ProfileDirectory string `toml:"profile_directory"`
	BinaryPath       string `toml:"binary_path"`
}

type CaptureConfig struct {
	// LoadWaitSeconds is how long to let the page settle after navigation
	// before looking for the element. Chart sites render asynchronously.
	LoadWaitSeconds int `toml:"load_wait_seconds"`
	// WaitTimeoutSeconds bounds the wait for the element to appear.
	WaitTimeoutSeconds int `toml:"wait_timeout_seconds"`
	// SettleDelayMS is the repaint delay between scroll/resize and capture.
	SettleDelayMS int `toml:"settle_delay_ms"`
	// MaxSingleHeight is the document height (px) up to which a capture is
	// done in one resized-viewport shot instead of tiled stitching.
	MaxSingleHeight int `toml:"max_single_height"`
	// OutputDir is where screenshots are written. Empty means the cache dir.
	OutputDir string `toml:"output_dir"`
	// DismissSelectors are clicked best-effort before capture (cookie
	// banners and similar). Failures are ignored.
	DismissSelectors []string `toml:"dismiss_selectors"`
}

// TargetConfig names one element to capture.
type TargetConfig struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
	// Selector is a CSS selector or an XPath expression.
	Selector string `toml:"selector"`
	// Full captures the element's entire extent even when it is taller than
	// the viewport; otherwise only the visible part is captured.
	Full bool `toml:"full"`
	// Intervals are chart timeframes ("1", "15", "60", "D", ...). Each one
	// is captured separately with "interval=<value>" set on the URL. Empty
	// means the URL is captured once, as is.
	Intervals []string `toml:"intervals"`
}

type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID string `toml:"chat_id"`
	Send   bool   `toml:"send"`
}

type ScheduleConfig struct {
	Timezone             string `toml:"timezone"`
	CaptureIntervalHours int    `toml:"capture_interval_hours"`
	// ReportTime is when the daily capture report is sent, "HH:MM".
	// Empty disables the report.
	ReportTime string `toml:"report_time"`
}

type StoreConfig struct {
	// DBPath is the SQLite database location. Empty means the cache dir.
	DBPath string `toml:"db_path"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1366,
			WindowHeight: 900,
		},
		Capture: CaptureConfig{
			LoadWaitSeconds:    7,
			WaitTimeoutSeconds: 15,
			SettleDelayMS:      300,
			MaxSingleHeight:    15000,
			DismissSelectors: []string{
				`//button[text()='Accept' or text()='I accept' or text()='Accept all']`,
			},
		},
		Targets: []TargetConfig{
			{
				Name:      "NSE:NIFTY",
				URL:       "https://www.tradingview.com/chart/?symbol=NSE%3ANIFTY",
				Selector:  "div.chart-container",
				Intervals: []string{"15", "60", "D"},
			},
		},
		Telegram: TelegramConfig{
			Send: true,
		},
		Schedule: ScheduleConfig{
			Timezone:             "Asia/Kolkata",
			CaptureIntervalHours: 1,
			ReportTime:           "18:00",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "chartsnap"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the directory for screenshots and the capture database.
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "chartsnap"), nil
}

// Load reads config from the default location and applies env overrides.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from an explicit path and applies env overrides.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv lets the Telegram credentials come from the environment so the
// token never has to live in the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to an explicit path.
func (c *Config) SaveTo(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Validate checks the parts of the config that would otherwise fail deep
// inside a capture run.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("no capture targets configured")
	}
	for i, t := range c.Targets {
		if t.Name == "" {
			return fmt.Errorf("target %d: name is required", i)
		}
		if t.URL == "" {
			return fmt.Errorf("target %q: url is required", t.Name)
		}
		if t.Selector == "" {
			return fmt.Errorf("target %q: selector is required", t.Name)
		}
	}
	if c.Capture.MaxSingleHeight <= 0 {
		return fmt.Errorf("capture.max_single_height must be positive")
	}
	return nil
}
