package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	PlannerAPIKey string

	// Upload limits
	MaxUploadBytes int64
	MaxPDFPages    int

	// Extraction
	PDFFallbackPdftotext bool
	OCRCommand           string

	// Plan defaults
	DefaultDays        int
	DefaultHoursPerDay float64
	WeightStrategy     string
	RulesFile          string

	// Plan state
	PlanTTL time.Duration

	// Reminders
	ReminderHour   int
	ReminderLead   time.Duration
	ReminderTick   time.Duration
	MessageMaxLen  int
	MessageDelay   time.Duration
	ReminderWorker int

	// Twilio WhatsApp
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set take precedence.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PlannerAPIKey: os.Getenv("PLANNER_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxPDFPages:    envInt("MAX_PDF_PAGES", 200),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		OCRCommand:           envOr("OCR_COMMAND", "tesseract"),

		DefaultDays:        envInt("DEFAULT_DAYS", 7),
		DefaultHoursPerDay: envFloat("DEFAULT_HOURS_PER_DAY", 4),
		WeightStrategy:     envOr("WEIGHT_STRATEGY", "keyword"),
		RulesFile:          os.Getenv("RULES_FILE"),

		PlanTTL: envDuration("PLAN_TTL", 24*time.Hour),

		ReminderHour:   envInt("REMINDER_HOUR", 9),
		ReminderLead:   envDuration("REMINDER_LEAD", 15*time.Minute),
		ReminderTick:   envDuration("REMINDER_TICK", 30*time.Second),
		MessageMaxLen:  envInt("MESSAGE_MAX_LEN", 1600),
		MessageDelay:   envDuration("MESSAGE_DELAY", 2*time.Second),
		ReminderWorker: envInt("REMINDER_WORKERS", 2),

		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxPDFPages < 0 {
		cfg.MaxPDFPages = 200
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 7
	}
	if cfg.DefaultHoursPerDay <= 0 {
		cfg.DefaultHoursPerDay = 4
	}
	if cfg.PlanTTL <= 0 {
		cfg.PlanTTL = 24 * time.Hour
	}
	if cfg.ReminderTick <= 0 {
		cfg.ReminderTick = 30 * time.Second
	}
	if cfg.ReminderWorker <= 0 {
		cfg.ReminderWorker = 2
	}
	if cfg.MessageDelay < 0 {
		cfg.MessageDelay = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	switch c.WeightStrategy {
	case "keyword", "length":
	default:
		return fmt.Errorf("WEIGHT_STRATEGY must be keyword or length, got %q", c.WeightStrategy)
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23, got %d", c.ReminderHour)
	}
	if c.MessageMaxLen < 100 {
		return fmt.Errorf("MESSAGE_MAX_LEN must be at least 100, got %d", c.MessageMaxLen)
	}
	twilio := []string{c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioWhatsAppNumber}
	if set := countSet(twilio); set != 0 && set != len(twilio) {
		return fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER must be set together")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" && c.SMTPUsername == "" {
		return fmt.Errorf("SMTP_FROM or SMTP_USERNAME is required when SMTP_HOST is set")
	}
	return nil
}

// WhatsAppEnabled reports whether Twilio credentials are configured.
func (c Config) WhatsAppEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppNumber != ""
}

// EmailEnabled reports whether an SMTP relay is configured.
func (c Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func countSet(vals []string) int {
	n := 0
	for _, v := range vals {
		if v != "" {
			n++
		}
	}
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
