package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// TLS/mTLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // CA for verifying client certs (mTLS)

	// Database
	DatabaseURL string

	// Redis backs sessions, rate limiting, the content cache and realtime fan-out.
	// Empty means in-memory equivalents are used (single instance only).
	RedisURL string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Bearer tokens issued by the hosted auth provider (HS256)
	JWTSecret   string
	JWTAudience string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Admin bootstrap: profiles signing in with one of these emails are promoted to admin.
	AdminEmails []string

	// Object storage (S3 compatible)
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // MinIO or other S3-compatible endpoint
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string // Optional base URL for public object links
	S3UseSSL          bool
	MaxUploadMB       int

	// Email (SMTP)
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls", "starttls"

	EmailNotifyAdminsOnSubmit  bool
	EmailNotifyUserOnApproval  bool
	EmailNotifyUserOnRejection bool

	// Content browsing
	CatalogFile     string // YAML stage/category hierarchy; empty uses the built-in catalog
	ContentCacheTTL time.Duration

	// Jobs
	StatsRefreshInterval time.Duration

	SiteTitle string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	return &Config{
		Env:               getEnv("ENV", "development"),
		ServerAddr:        getEnv("SERVER_ADDR", ":3000"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:3000"),
		TLSEnabled:        getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:       getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:        getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:         getEnv("TLS_CA_FILE", ""),
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost:5432/pecommunity?sslmode=disable"),
		RedisURL:          getEnv("REDIS_URL", ""),
		OIDCIssuer:        getEnv("OIDC_ISSUER", ""),
		OIDCClientID:      getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:  getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:   getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTAudience:       getEnv("JWT_AUDIENCE", "authenticated"),
		SessionSecret:     getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:       getEnv("CORS_ORIGINS", ""),
		AdminEmails:       splitList(getEnv("ADMIN_EMAILS", "")),
		S3Bucket:          getEnv("S3_BUCKET", "content"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		S3UseSSL:          getEnv("S3_USE_SSL", "true") != "false",
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 50),

		SMTPEnabled:  getEnv("SMTP_ENABLED", "") != "",
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "PE Community"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		EmailNotifyAdminsOnSubmit:  getEnv("EMAIL_NOTIFY_ADMINS_ON_SUBMIT", "true") == "true",
		EmailNotifyUserOnApproval:  getEnv("EMAIL_NOTIFY_USER_ON_APPROVAL", "true") == "true",
		EmailNotifyUserOnRejection: getEnv("EMAIL_NOTIFY_USER_ON_REJECTION", "true") == "true",

		CatalogFile:     getEnv("CATALOG_FILE", ""),
		ContentCacheTTL: getEnvDuration("CONTENT_CACHE_TTL", 5*time.Minute),

		StatsRefreshInterval: getEnvDuration("STATS_REFRESH_INTERVAL", 15*time.Minute),

		SiteTitle: getEnv("SITE_TITLE", "PE Community"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured well enough to send mail.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsAdminEmail reports whether email is on the admin bootstrap list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}
