package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DEFAULT_DAYS", "DEFAULT_HOURS_PER_DAY", "PLAN_TTL", "REMINDER_LEAD", "WEIGHT_STRATEGY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.DefaultDays != 7 || cfg.DefaultHoursPerDay != 4 {
		t.Errorf("expected 7 days of 4 hours, got %d/%v", cfg.DefaultDays, cfg.DefaultHoursPerDay)
	}
	if cfg.PlanTTL != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", cfg.PlanTTL)
	}
	if cfg.ReminderLead != 15*time.Minute {
		t.Errorf("expected 15m lead, got %v", cfg.ReminderLead)
	}
	if cfg.WeightStrategy != "keyword" {
		t.Errorf("expected keyword strategy, got %q", cfg.WeightStrategy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEFAULT_HOURS_PER_DAY", "2.5")
	t.Setenv("DEFAULT_DAYS", "-3")
	t.Setenv("MESSAGE_DELAY", "500ms")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	cfg := Load()
	if cfg.DefaultHoursPerDay != 2.5 {
		t.Errorf("expected 2.5 hours, got %v", cfg.DefaultHoursPerDay)
	}
	if cfg.DefaultDays != 7 {
		t.Errorf("expected non-positive days to reset to 7, got %d", cfg.DefaultDays)
	}
	if cfg.MessageDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms delay, got %v", cfg.MessageDelay)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8090", WeightStrategy: "keyword", ReminderHour: 9, MessageMaxLen: 1600}
	tests := []struct {
		name   string
		mutate func(*Config)
		errHas string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad strategy", func(c *Config) { c.WeightStrategy = "random" }, "WEIGHT_STRATEGY"},
		{"bad hour", func(c *Config) { c.ReminderHour = 24 }, "REMINDER_HOUR"},
		{"tiny messages", func(c *Config) { c.MessageMaxLen = 20 }, "MESSAGE_MAX_LEN"},
		{"partial twilio", func(c *Config) { c.TwilioAccountSID = "AC1" }, "TWILIO"},
		{"full twilio", func(c *Config) {
			c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioWhatsAppNumber = "AC1", "tok", "+1"
		}, ""},
		{"smtp without sender", func(c *Config) { c.SMTPHost = "smtp.example.com" }, "SMTP_FROM"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			err := c.Validate()
			if tc.errHas == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errHas) {
				t.Errorf("expected error containing %q, got %v", tc.errHas, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STUDYPLAN_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STUDYPLAN_TEST_KEY", "")
	os.Unsetenv("STUDYPLAN_TEST_KEY")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("STUDYPLAN_TEST_KEY"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestLoadRules(t *testing.T) {
	rs, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Segment.UnitKeywords) == 0 || rs.Keywords["recursion"] != 3 {
		t.Errorf("expected built-in tables, got %+v", rs)
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	yml := "segment:\n  unit_keywords: [week]\n  min_fragment_length: 4\nkeywords:\n  network flow: 3\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	rs, err = LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Segment.UnitKeywords) != 1 || rs.Segment.UnitKeywords[0] != "week" {
		t.Errorf("unexpected unit keywords %q", rs.Segment.UnitKeywords)
	}
	if rs.Segment.MinFragmentLength != 4 {
		t.Errorf("expected min fragment length 4, got %d", rs.Segment.MinFragmentLength)
	}
	if rs.Keywords["network flow"] != 3 || len(rs.Keywords) != 1 {
		t.Errorf("unexpected keywords %v", rs.Keywords)
	}
}

func TestLoadRules_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("segmnt:\n  unit_keywords: [week]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for misspelled key")
	}
}
