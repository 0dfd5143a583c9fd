package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "QUOTESHEET_API_KEY", "WORKER_COUNT", "MAX_QUEUE_SIZE",
		"MAX_UPLOAD_BYTES", "MAX_FILES_PER_BATCH", "JOB_TTL", "PDF_FALLBACK_PDFTOTEXT",
		"DEFAULT_REFERRAL_MANAGER", "DEFAULT_REFERRAL_EMAIL", "DEFAULT_BRAND",
		"CORS_ALLOWED_ORIGINS", "UPLOAD_HELP_FILE",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port %q, got %q", "8090", cfg.Port)
	}
	if cfg.APIKey != "" {
		t.Errorf("expected empty api key, got %q", cfg.APIKey)
	}
	if cfg.WorkerCount != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.WorkerCount)
	}
	if cfg.MaxFilesPerBatch != 100 {
		t.Errorf("expected 100 files per batch, got %d", cfg.MaxFilesPerBatch)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cfg.JobTTL)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
	if cfg.DefaultReferralManager != "" {
		t.Errorf("expected empty referral manager, got %q", cfg.DefaultReferralManager)
	}
	if cfg.DefaultReferralEmail != "plawruk@cadrewire.com" {
		t.Errorf("expected referral email %q, got %q", "plawruk@cadrewire.com", cfg.DefaultReferralEmail)
	}
	if cfg.DefaultBrand != "Cadre Wire Group" {
		t.Errorf("expected brand %q, got %q", "Cadre Wire Group", cfg.DefaultBrand)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Errorf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKER_COUNT", "3")
	t.Setenv("MAX_FILES_PER_BATCH", "10")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("DEFAULT_BRAND", "Other Brand")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port %q, got %q", "9000", cfg.Port)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxFilesPerBatch != 10 {
		t.Errorf("expected 10 files per batch, got %d", cfg.MaxFilesPerBatch)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected ttl 15m, got %v", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback off")
	}
	if cfg.DefaultBrand != "Other Brand" {
		t.Errorf("expected brand %q, got %q", "Other Brand", cfg.DefaultBrand)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %q", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("MAX_QUEUE_SIZE", "lots")
	t.Setenv("JOB_TTL", "soon")

	cfg := Load()
	if cfg.WorkerCount != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 16 {
		t.Errorf("expected queue size 16, got %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8090", MaxFilesPerBatch: 100, DefaultReferralEmail: "a@b.com"}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := base
	bad.Port = "http"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for non-numeric port")
	}

	bad = base
	bad.MaxFilesPerBatch = 101
	if err := bad.Validate(); err == nil {
		t.Error("expected error for batch limit above 100")
	}

	bad = base
	bad.UploadHelpFile = "/nonexistent/help.md"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing help file")
	}

	bad = base
	bad.DefaultReferralEmail = "nobody"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for malformed referral email")
	}
}
