package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Browser.Headless = false
	cfg.Capture.MaxSingleHeight = 9000
	cfg.Targets = []TargetConfig{
		{Name: "watchlist", URL: "https://example.com", Selector: "//div[2]/div", Full: true, Intervals: []string{"15", "D"}},
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Browser.Headless {
		t.Error("headless flag not round-tripped")
	}
	if loaded.Capture.MaxSingleHeight != 9000 {
		t.Errorf("max_single_height = %d, want 9000", loaded.Capture.MaxSingleHeight)
	}
	if len(loaded.Targets) != 1 || !loaded.Targets[0].Full {
		t.Errorf("targets not round-tripped: %+v", loaded.Targets)
	}
	if loaded.Targets[0].Selector != "//div[2]/div" {
		t.Errorf("selector = %q", loaded.Targets[0].Selector)
	}
	if ivs := loaded.Targets[0].Intervals; len(ivs) != 2 || ivs[0] != "15" || ivs[1] != "D" {
		t.Errorf("intervals = %v, want [15 D]", ivs)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Telegram.Token = "file-token"
	cfg.Telegram.ChatID = "1"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Telegram.Token != "env-token" {
		t.Errorf("token = %q, want env override", loaded.Telegram.Token)
	}
	if loaded.Telegram.ChatID != "42" {
		t.Errorf("chat id = %q, want env override", loaded.Telegram.ChatID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no targets", func(c *Config) { c.Targets = nil }, true},
		{"missing name", func(c *Config) { c.Targets[0].Name = "" }, true},
		{"missing url", func(c *Config) { c.Targets[0].URL = "" }, true},
		{"missing selector", func(c *Config) { c.Targets[0].Selector = "" }, true},
		{"bad max height", func(c *Config) { c.Capture.MaxSingleHeight = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
