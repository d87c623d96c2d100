package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/fairshare/internal/negotiation"
	"github.com/dukerupert/fairshare/internal/scheduler"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "fairshare.db" {
		t.Errorf("DBPath = %q, want fairshare.db", cfg.DBPath)
	}
	if cfg.Negotiation.SkipPenalty != negotiation.DefaultSkipPenalty {
		t.Errorf("SkipPenalty = %v, want %v", cfg.Negotiation.SkipPenalty, negotiation.DefaultSkipPenalty)
	}
	if cfg.Recurrence.BiweeklyCycle != 15 {
		t.Errorf("BiweeklyCycle = %d, want 15", cfg.Recurrence.BiweeklyCycle)
	}
	if cfg.SchedulerInterval != scheduler.DefaultInterval {
		t.Errorf("SchedulerInterval = %v, want %v", cfg.SchedulerInterval, scheduler.DefaultInterval)
	}
	if cfg.PushEnabled() {
		t.Error("push should be disabled without VAPID keys")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FAIRSHARE_PORT", "9090")
	t.Setenv("FAIRSHARE_SKIP_PENALTY", "4.5")
	t.Setenv("FAIRSHARE_BIWEEKLY_CYCLE", "14")
	t.Setenv("FAIRSHARE_SCHEDULER_INTERVAL", "30s")
	t.Setenv("FAIRSHARE_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("FAIRSHARE_VAPID_PRIVATE_KEY", "priv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Negotiation.SkipPenalty != 4.5 {
		t.Errorf("SkipPenalty = %v, want 4.5", cfg.Negotiation.SkipPenalty)
	}
	if cfg.Recurrence.BiweeklyCycle != 14 {
		t.Errorf("BiweeklyCycle = %d, want 14", cfg.Recurrence.BiweeklyCycle)
	}
	if cfg.SchedulerInterval != 30*time.Second {
		t.Errorf("SchedulerInterval = %v, want 30s", cfg.SchedulerInterval)
	}
	if !cfg.PushEnabled() {
		t.Error("push should be enabled")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FAIRSHARE_S3_BUCKET=ledgers\nFAIRSHARE_OFFER_BONUS=8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Register cleanup for the keys the file sets.
	t.Setenv("FAIRSHARE_S3_BUCKET", "")
	t.Setenv("FAIRSHARE_OFFER_BONUS", "")
	os.Unsetenv("FAIRSHARE_S3_BUCKET")
	os.Unsetenv("FAIRSHARE_OFFER_BONUS")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.S3.Bucket != "ledgers" {
		t.Errorf("S3.Bucket = %q, want ledgers", cfg.S3.Bucket)
	}
	if cfg.Negotiation.OfferBonus != 8 {
		t.Errorf("OfferBonus = %v, want 8", cfg.Negotiation.OfferBonus)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"FAIRSHARE_SKIP_PENALTY":       "lots",
		"FAIRSHARE_OFFER_BONUS":        "-1",
		"FAIRSHARE_BIWEEKLY_CYCLE":     "0",
		"FAIRSHARE_SCHEDULER_INTERVAL": "soon",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%q", key, val)
			}
		})
	}
}
