package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:              "8080",
		SQLiteDBPath:      ":memory:",
		DocumentsDir:      "./documents",
		PublicBaseURL:     "http://localhost:8080/files",
		SessionSecret:     "0123456789abcdef",
		SessionTTL:        24 * time.Hour,
		SchedulerInterval: time.Hour,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		keyword string
	}{
		{"bad port", func(c *Config) { c.Port = "nope" }, "port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "port"},
		{"missing secret", func(c *Config) { c.SessionSecret = "" }, "SESSION_SECRET"},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, "SESSION_SECRET"},
		{"tiny ttl", func(c *Config) { c.SessionTTL = time.Second }, "TTL"},
		{"tiny interval", func(c *Config) { c.SchedulerInterval = time.Second }, "interval"},
		{"huge interval", func(c *Config) { c.SchedulerInterval = 48 * time.Hour }, "interval"},
		{"half bootstrap", func(c *Config) { c.AdminEmail = "a@b.c" }, "ADMIN_EMAIL"},
		{"empty documents dir", func(c *Config) { c.DocumentsDir = "" }, "documents"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)

			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.keyword) {
				t.Errorf("error %q does not mention %q", err, tc.keyword)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SchedulerInterval != time.Hour {
		t.Errorf("expected hourly scheduler default, got %v", cfg.SchedulerInterval)
	}
	if !cfg.SchedulerEnabled {
		t.Error("scheduler should default to enabled")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected 24h session TTL default, got %v", cfg.SessionTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("PAYMENT_INFO", "Pay via transfer | Due within 5 days ")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SchedulerEnabled {
		t.Error("expected scheduler disabled")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h TTL, got %v", cfg.SessionTTL)
	}
	if len(cfg.PaymentInfo) != 2 || cfg.PaymentInfo[1] != "Due within 5 days" {
		t.Errorf("unexpected payment info: %#v", cfg.PaymentInfo)
	}
}
