// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the background task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetFollowUpReminderLead() time.Duration
}

// SessionConfig provides settings for the affiliate session cookie.
type SessionConfig interface {
	GetAffiliateCookieName() string
	GetAffiliateCookieSecure() bool
	GetAffiliateCookieSameSite() http.SameSite
	GetAffiliateSessionTTL() time.Duration
}

// AffiliateConfig provides settings for the affiliate program.
type AffiliateConfig interface {
	GetAffiliateDefaultRate() string
	GetAffiliateLinkBaseURL() string
	GetAffiliateRedirectPath() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
}

// WebhookConfig provides settings for inbound partner webhooks.
type WebhookConfig interface {
	GetPartnerWebhookKeys() []string
}

// BrokerConfig provides settings for the outbound AMQP event forwarder.
type BrokerConfig interface {
	GetAMQPURL() string
	GetAMQPExchange() string
	IsBrokerEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	AppBaseURL string

	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	FollowUpReminderLead time.Duration

	AffiliateCookieName     string
	AffiliateCookieSecure   bool
	AffiliateCookieSameSite http.SameSite
	AffiliateSessionTTL     time.Duration
	AffiliateDefaultRate    string
	AffiliateLinkBaseURL    string
	AffiliateRedirectPath   string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	PartnerWebhookKeys []string

	AMQPURL      string
	AMQPExchange string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig
func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool              { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetFollowUpReminderLead() time.Duration { return c.FollowUpReminderLead }

// SessionConfig
func (c *Config) GetAffiliateCookieName() string            { return c.AffiliateCookieName }
func (c *Config) GetAffiliateCookieSecure() bool            { return c.AffiliateCookieSecure }
func (c *Config) GetAffiliateCookieSameSite() http.SameSite { return c.AffiliateCookieSameSite }
func (c *Config) GetAffiliateSessionTTL() time.Duration     { return c.AffiliateSessionTTL }

// AffiliateConfig
func (c *Config) GetAffiliateDefaultRate() string  { return c.AffiliateDefaultRate }
func (c *Config) GetAffiliateLinkBaseURL() string  { return c.AffiliateLinkBaseURL }
func (c *Config) GetAffiliateRedirectPath() string { return c.AffiliateRedirectPath }

// EmailConfig
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// NotificationConfig
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// WebhookConfig
func (c *Config) GetPartnerWebhookKeys() []string { return c.PartnerWebhookKeys }

// BrokerConfig
func (c *Config) GetAMQPURL() string      { return c.AMQPURL }
func (c *Config) GetAMQPExchange() string { return c.AMQPExchange }
func (c *Config) IsBrokerEnabled() bool   { return c.AMQPURL != "" }

// Load reads configuration from the environment, falling back to a .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cookieSecure := strings.EqualFold(getEnv("AFFILIATE_COOKIE_SECURE", ""), "true")
	if getEnv("AFFILIATE_COOKIE_SECURE", "") == "" {
		cookieSecure = strings.EqualFold(getEnv("APP_ENV", "development"), "production")
	}

	appBaseURL := getEnv("APP_BASE_URL", "http://localhost:5173")

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:              appBaseURL,
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		FollowUpReminderLead:    mustDuration(getEnv("FOLLOW_UP_REMINDER_LEAD", "1h")),
		AffiliateCookieName:     getEnv("AFFILIATE_COOKIE_NAME", "canna_aff_sid"),
		AffiliateCookieSecure:   cookieSecure,
		AffiliateCookieSameSite: parseSameSite(getEnv("AFFILIATE_COOKIE_SAMESITE", "Lax")),
		AffiliateSessionTTL:     mustDuration(getEnv("AFFILIATE_SESSION_TTL", "720h")),
		AffiliateDefaultRate:    getEnv("AFFILIATE_DEFAULT_RATE", "0.10"),
		AffiliateLinkBaseURL:    getEnv("AFFILIATE_LINK_BASE_URL", appBaseURL),
		AffiliateRedirectPath:   getEnv("AFFILIATE_REDIRECT_PATH", "/"),
		EmailEnabled:            emailEnabled && smtpHost != "",
		SMTPHost:                smtpHost,
		SMTPPort:                mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "Canna Portal"),
		EmailFromAddress:        getEnv("EMAIL_FROM_ADDRESS", ""),
		PartnerWebhookKeys:      splitCSV(getEnv("PARTNER_WEBHOOK_KEYS", "")),
		AMQPURL:                 getEnv("AMQP_URL", ""),
		AMQPExchange:            getEnv("AMQP_EXCHANGE", "ex.crm"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.AffiliateSessionTTL <= 0 {
		return nil, fmt.Errorf("AFFILIATE_SESSION_TTL must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}
