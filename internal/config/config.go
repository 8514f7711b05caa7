package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress    string
	DatabaseURI   string
	PublicBaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	ResendAPIKey string
	EmailFrom    string

	GeminiAPIKey string
	GeminiModel  string

	AdminEmail        string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
	CronSecret        string

	UploadDir string

	PipelinePollInterval time.Duration
	WorkerPoolSize       int
	PollBatchSize        int
	CronBatchSize        int
	AnniversaryLeadDays  int
	ShutdownTimeout      time.Duration
	LogLevel             string
}

const (
	defaultRunAddress           = ":8080"
	defaultPublicBaseURL        = "http://localhost:8080"
	defaultCurrency             = "eur"
	defaultEmailFrom            = "MelodieMacher <bestellung@melodiemacher.de>"
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultAdminEmail           = "admin@melodiemacher.de"
	defaultSessionSecret        = "change-me-in-production"
	defaultSessionTTL           = 12 * time.Hour
	defaultUploadDir            = "./uploads"
	defaultPipelinePollInterval = 30 * time.Second
	defaultWorkerPoolSize       = 2
	defaultPollBatchSize        = 10
	defaultCronBatchSize        = 50
	defaultAnniversaryLeadDays  = 14
	defaultShutdownTimeout      = 10 * time.Second
	defaultLogLevel             = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		PublicBaseURL:        getString(lookup, "PUBLIC_BASE_URL", defaultPublicBaseURL),
		StripeSecretKey:      getString(lookup, "STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getString(lookup, "STRIPE_WEBHOOK_SECRET", ""),
		Currency:             getString(lookup, "CURRENCY", defaultCurrency),
		ResendAPIKey:         getString(lookup, "RESEND_API_KEY", ""),
		EmailFrom:            getString(lookup, "EMAIL_FROM", defaultEmailFrom),
		GeminiAPIKey:         getString(lookup, "GEMINI_API_KEY", ""),
		GeminiModel:          getString(lookup, "GEMINI_MODEL", defaultGeminiModel),
		AdminEmail:           getString(lookup, "ADMIN_EMAIL", defaultAdminEmail),
		AdminPasswordHash:    getString(lookup, "ADMIN_PASSWORD_HASH", ""),
		SessionSecret:        getString(lookup, "SESSION_SECRET", defaultSessionSecret),
		SessionTTL:           getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		CronSecret:           getString(lookup, "CRON_SECRET", ""),
		UploadDir:            getString(lookup, "UPLOAD_DIR", defaultUploadDir),
		PipelinePollInterval: getDuration(lookup, "PIPELINE_POLL_INTERVAL", defaultPipelinePollInterval),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		PollBatchSize:        getInt(lookup, "POLL_BATCH_SIZE", defaultPollBatchSize),
		CronBatchSize:        getInt(lookup, "CRON_BATCH_SIZE", defaultCronBatchSize),
		AnniversaryLeadDays:  getInt(lookup, "ANNIVERSARY_LEAD_DAYS", defaultAnniversaryLeadDays),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:             getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("melodiemacher", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.PipelinePollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.PublicBaseURL, "public-url", cfg.PublicBaseURL, "Public base URL for links and redirects")
	fs.StringVar(&cfg.StripeSecretKey, "stripe-key", cfg.StripeSecretKey, "Stripe secret API key")
	fs.StringVar(&cfg.StripeWebhookSecret, "stripe-webhook-secret", cfg.StripeWebhookSecret, "Stripe webhook signing secret")
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Secret for signing admin sessions")
	fs.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "Directory for uploaded deliverables")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent pipeline workers")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between pipeline polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.PollBatchSize, "poll-batch", cfg.PollBatchSize, "Maximum orders per pipeline batch")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.PipelinePollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	for _, secret := range []struct {
		env    string
		target *string
	}{
		{"SESSION_SECRET_FILE", &cfg.SessionSecret},
		{"ADMIN_PASSWORD_HASH_FILE", &cfg.AdminPasswordHash},
		{"CRON_SECRET_FILE", &cfg.CronSecret},
	} {
		if err := readSecretFile(lookup, secret.env, secret.target); err != nil {
			return nil, err
		}
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.Currency = strings.ToLower(cfg.Currency)

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.PollBatchSize <= 0 {
		cfg.PollBatchSize = defaultPollBatchSize
	}

	if cfg.CronBatchSize <= 0 {
		cfg.CronBatchSize = defaultCronBatchSize
	}

	if cfg.AnniversaryLeadDays <= 0 {
		cfg.AnniversaryLeadDays = defaultAnniversaryLeadDays
	}

	if cfg.PipelinePollInterval <= 0 {
		cfg.PipelinePollInterval = defaultPipelinePollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func readSecretFile(lookup envLookup, key string, target *string) error {
	path, ok := lookup(key)
	if !ok || path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", strings.ToLower(key), err)
	}
	*target = strings.TrimSpace(string(content))
	return nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
