package config

import (
	"net/http"
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/canna")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("AFFILIATE_SESSION_TTL", "")
	t.Setenv("AFFILIATE_COOKIE_SAMESITE", "strict")
	t.Setenv("PARTNER_WEBHOOK_KEYS", " key-a , ,key-b ")

	// Empty TTL parses to zero and is rejected.
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty AFFILIATE_SESSION_TTL")
	}

	t.Setenv("AFFILIATE_SESSION_TTL", "48h")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GetAffiliateSessionTTL() != 48*time.Hour {
		t.Fatalf("expected 48h session TTL, got %s", cfg.GetAffiliateSessionTTL())
	}
	if cfg.GetAffiliateCookieSameSite() != http.SameSiteStrictMode {
		t.Fatalf("expected strict same-site, got %v", cfg.GetAffiliateCookieSameSite())
	}
	if cfg.GetEmailEnabled() {
		t.Fatal("email must be disabled without SMTP_HOST")
	}
	if keys := cfg.GetPartnerWebhookKeys(); len(keys) != 2 || keys[0] != "key-a" || keys[1] != "key-b" {
		t.Fatalf("unexpected webhook keys: %v", keys)
	}
	if cfg.IsBrokerEnabled() {
		t.Fatal("broker must be disabled without AMQP_URL")
	}
}

func TestLoadRejectsWildcardCORSWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/canna")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("AFFILIATE_SESSION_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard CORS with credentials")
	}
}
