// Package browser provides shared chromedp configuration with anti-bot-detection measures.
package browser

import (
	"github.com/chromedp/chromedp"

	"github.com/chartsnap/chartsnap/internal/config"
)

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options returns chromedp allocator options for capture runs. All browser
// instances should use this to ensure consistent stealth configuration.
// Profile, binary and window size come from config rather than per-OS
// hardcoded paths; point user_data_dir at an existing Chrome profile to
// reuse its login sessions.
func Options(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),

		// Prevent navigator.webdriver = true detection; chart sites check this
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(DefaultUserAgent),
		chromedp.WindowSize(width(cfg), height(cfg)),

		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.ProfileDirectory != "" {
		opts = append(opts, chromedp.Flag("profile-directory", cfg.ProfileDirectory))
	}
	if cfg.BinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BinaryPath))
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}

func width(cfg config.BrowserConfig) int {
	if cfg.WindowWidth > 0 {
		return cfg.WindowWidth
	}
	return 1366
}

func height(cfg config.BrowserConfig) int {
	if cfg.WindowHeight > 0 {
		return cfg.WindowHeight
	}
	return 900
}
