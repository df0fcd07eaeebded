package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
database:
  driver: memory
jwt:
  secret: file-secret
session:
  secret: session-secret
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.JWT.AccessTokenExpiration != "1h" || cfg.JWT.ResetTokenExpiration != "15m" {
		t.Errorf("unexpected token lifetimes %q / %q", cfg.JWT.AccessTokenExpiration, cfg.JWT.ResetTokenExpiration)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != "15m" {
		t.Errorf("unexpected rate limit %d per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: memory
jwt:
  secret: file-secret
session:
  secret: session-secret
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.RateLimit.Requests != 5 {
		t.Errorf("requests = %d", cfg.RateLimit.Requests)
	}
	if !cfg.Session.Secure {
		t.Error("expected secure session cookie")
	}
	if got := strings.Join(cfg.CORS.AllowedOrigins, "|"); got != "http://a.test|http://b.test" {
		t.Errorf("origins = %q", got)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver": "database:\n  driver: oracle\njwt:\n  secret: s\nsession:\n  secret: s\n",
		"missing secret": "database:\n  driver: memory\nsession:\n  secret: s\n",
		"redis no url":   "database:\n  driver: memory\njwt:\n  secret: s\nsession:\n  secret: s\n  store: redis\n",
		"bad duration":   "database:\n  driver: memory\njwt:\n  secret: s\n  access_token_expiration: soon\nsession:\n  secret: s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
