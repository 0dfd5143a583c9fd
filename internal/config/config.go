package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer checks on /api.
	APIKey string

	// Browser origins allowed to call /api. Empty disables CORS headers.
	CORSAllowedOrigins []string

	// Optional Markdown file replacing the upload form help text.
	UploadHelpFile string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes   int64
	MaxFilesPerBatch int

	// Batch state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Run parameter defaults shown on the upload form and used by the CLI.
	DefaultReferralManager string
	DefaultReferralEmail   string
	DefaultBrand           string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("QUOTESHEET_API_KEY"),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),
		UploadHelpFile:     os.Getenv("UPLOAD_HELP_FILE"),

		WorkerCount:  envInt("WORKER_COUNT", 1),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),

		MaxUploadBytes:   envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxFilesPerBatch: envInt("MAX_FILES_PER_BATCH", 100),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		DefaultReferralManager: os.Getenv("DEFAULT_REFERRAL_MANAGER"),
		DefaultReferralEmail:   envOr("DEFAULT_REFERRAL_EMAIL", "plawruk@cadrewire.com"),
		DefaultBrand:           envOr("DEFAULT_BRAND", "Cadre Wire Group"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxFilesPerBatch <= 0 {
		cfg.MaxFilesPerBatch = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.MaxFilesPerBatch > 100 {
		return fmt.Errorf("MAX_FILES_PER_BATCH must not exceed 100, got %d", c.MaxFilesPerBatch)
	}
	if c.DefaultReferralEmail != "" && !strings.Contains(c.DefaultReferralEmail, "@") {
		return fmt.Errorf("DEFAULT_REFERRAL_EMAIL is not an email address: %q", c.DefaultReferralEmail)
	}
	if c.UploadHelpFile != "" {
		if _, err := os.Stat(c.UploadHelpFile); err != nil {
			return fmt.Errorf("UPLOAD_HELP_FILE: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
