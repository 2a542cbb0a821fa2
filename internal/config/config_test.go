package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("S3_BUCKET", "")
	t.Setenv("ADMIN_EMAILS", "")
	t.Setenv("CONTENT_CACHE_TTL", "")

	cfg := Load()

	if cfg.S3Bucket != "content" {
		t.Errorf("S3Bucket = %q, want %q", cfg.S3Bucket, "content")
	}
	if cfg.ContentCacheTTL != 5*time.Minute {
		t.Errorf("ContentCacheTTL = %v, want %v", cfg.ContentCacheTTL, 5*time.Minute)
	}
	if len(cfg.AdminEmails) != 0 {
		t.Errorf("AdminEmails = %v, want empty", cfg.AdminEmails)
	}
}

func TestLoad_AdminEmails(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Teacher@Example.com, ,coach@example.com ")

	cfg := Load()

	tests := []struct {
		email    string
		expected bool
	}{
		{"teacher@example.com", true},
		{"TEACHER@example.com", true},
		{"coach@example.com", true},
		{"student@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := cfg.IsAdminEmail(tt.email); got != tt.expected {
				t.Errorf("IsAdminEmail(%q) = %v, want %v", tt.email, got, tt.expected)
			}
		})
	}
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	t.Setenv("SOME_INTERVAL", "soon")
	if got := getEnvDuration("SOME_INTERVAL", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() = %v, want %v", got, time.Second)
	}
}

func TestIsEmailEnabled(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected bool
	}{
		{"fully configured", Config{SMTPEnabled: true, SMTPHost: "smtp.example.com", SMTPFrom: "noreply@example.com"}, true},
		{"not enabled", Config{SMTPHost: "smtp.example.com", SMTPFrom: "noreply@example.com"}, false},
		{"missing host", Config{SMTPEnabled: true, SMTPFrom: "noreply@example.com"}, false},
		{"missing from", Config{SMTPEnabled: true, SMTPHost: "smtp.example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsEmailEnabled(); got != tt.expected {
				t.Errorf("IsEmailEnabled() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadCatalogConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `
content_types:
  - id: videos
    type: video
    title: Videos
stages:
  - id: primary
    title: Primary
    categories:
      - id: early-childhood
        title: Early childhood
        subcategories:
          - id: active-play
            title: Active play
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadCatalogConfig(path)
	if err != nil {
		t.Fatalf("LoadCatalogConfig() error = %v", err)
	}

	stage := cfg.GetStageByID("primary")
	if stage == nil {
		t.Fatal("GetStageByID(primary) = nil")
	}
	cat := stage.GetCategoryByID("early-childhood")
	if cat == nil {
		t.Fatal("GetCategoryByID(early-childhood) = nil")
	}
	if sub := cat.GetSubcategoryByID("active-play"); sub == nil || sub.Title != "Active play" {
		t.Errorf("GetSubcategoryByID(active-play) = %+v", sub)
	}
	if cfg.GetStageByID("missing") != nil {
		t.Error("GetStageByID(missing) should be nil")
	}
}

func TestLoadCatalogConfig_MissingFile(t *testing.T) {
	cfg, err := LoadCatalogConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadCatalogConfig() error = %v", err)
	}
	if cfg != nil {
		t.Errorf("LoadCatalogConfig() = %+v, want nil", cfg)
	}
}
