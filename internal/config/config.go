package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/fairshare/internal/archive"
	"github.com/dukerupert/fairshare/internal/negotiation"
	"github.com/dukerupert/fairshare/internal/recurrence"
	"github.com/dukerupert/fairshare/internal/scheduler"
)

const prefix = "FAIRSHARE_"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	Negotiation       negotiation.Config
	Recurrence        recurrence.Rules
	SchedulerInterval time.Duration

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	S3              archive.S3Config
}

// Load reads FAIRSHARE_* variables. Values from envFile are applied first
// without overriding the real environment; a missing file is ignored.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:            get("PORT", "8080"),
		DBPath:          get("DB_PATH", "fairshare.db"),
		LogLevel:        get("LOG_LEVEL", "info"),
		LogFormat:       get("LOG_FORMAT", "text"),
		Recurrence:      recurrence.Default,
		VAPIDPublicKey:  get("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: get("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    get("VAPID_SUBJECT", "mailto:admin@fairshare.local"),
		S3: archive.S3Config{
			Endpoint:  get("S3_ENDPOINT", ""),
			Bucket:    get("S3_BUCKET", ""),
			Region:    get("S3_REGION", "us-east-1"),
			AccessKey: get("S3_ACCESS_KEY", ""),
			SecretKey: get("S3_SECRET_KEY", ""),
		},
	}

	var err error
	if cfg.Negotiation.SkipPenalty, err = getFloat("SKIP_PENALTY", negotiation.DefaultSkipPenalty); err != nil {
		return Config{}, err
	}
	if cfg.Negotiation.OfferBonus, err = getFloat("OFFER_BONUS", negotiation.DefaultOfferBonus); err != nil {
		return Config{}, err
	}
	if cfg.Recurrence.BiweeklyCycle, err = getInt("BIWEEKLY_CYCLE", recurrence.Default.BiweeklyCycle); err != nil {
		return Config{}, err
	}
	if cfg.Recurrence.BiweeklyCycle < 1 {
		return Config{}, fmt.Errorf("%sBIWEEKLY_CYCLE must be positive", prefix)
	}
	if cfg.SchedulerInterval, err = getDuration("SCHEDULER_INTERVAL", scheduler.DefaultInterval); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PushEnabled reports whether both VAPID keys are configured.
func (c Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func get(key, def string) string {
	if v := os.Getenv(prefix + key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s%s: invalid number %q", prefix, key, v)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: invalid integer %q", prefix, key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s%s: invalid duration %q", prefix, key, v)
	}
	return d, nil
}
