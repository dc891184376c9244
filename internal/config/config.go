package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/reputation"
)

// Guard modes accepted by IPSENTRY_GUARD_MODE.
const (
	GuardModeDisabled = "disabled"
	GuardModeMonitor  = "monitor"
	GuardModeBlock    = "block"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string

	// AbuseIPDBKey is the oracle credential. Empty means no fresh lookups;
	// the gate fails open.
	AbuseIPDBKey string
	AbuseIPDBURL string
	CheckEnabled bool
	GuardMode    string
	JWTSecret    string

	Thresholds reputation.Thresholds
}

// Load reads env vars and falls back to defaults so the service can boot
// with zero configuration. A .env file in the working directory is honored
// when present. Threshold ordering is validated here; a violation aborts
// startup.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:  getEnv("IPSENTRY_ENV", "development"),
		HTTPPort:     getEnv("IPSENTRY_HTTP_PORT", "8080"),
		DatabasePath: getEnv("IPSENTRY_DB_PATH", filepath.Join("data", "ipsentry.db")),
		AbuseIPDBKey: getEnv("IPSENTRY_ABUSEIPDB_KEY", ""),
		AbuseIPDBURL: getEnv("IPSENTRY_ABUSEIPDB_URL", ""),
		CheckEnabled: getEnvBool("IPSENTRY_CHECK_ENABLED", true),
		GuardMode:    getEnv("IPSENTRY_GUARD_MODE", GuardModeMonitor),
		JWTSecret:    getEnv("IPSENTRY_JWT_SECRET", ""),
		Thresholds:   loadThresholds(),
	}

	switch cfg.GuardMode {
	case GuardModeDisabled, GuardModeMonitor, GuardModeBlock:
	default:
		return Config{}, fmt.Errorf("invalid guard mode %q", cfg.GuardMode)
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid confidence thresholds: %w", err)
	}
	if cfg.Thresholds.HasGap() {
		logger.Log().Warn("confidence bands leave a gap; gap values classify as yellowlist")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func loadThresholds() reputation.Thresholds {
	def := reputation.DefaultThresholds()
	return reputation.Thresholds{
		WhitelistMax:      getEnvFloat("IPSENTRY_WHITELIST_MAX", def.WhitelistMax),
		WhitelistTTLDays:  getEnvInt("IPSENTRY_WHITELIST_TTL_DAYS", def.WhitelistTTLDays),
		YellowlistMin:     getEnvFloat("IPSENTRY_YELLOWLIST_MIN", def.YellowlistMin),
		YellowlistMax:     getEnvFloat("IPSENTRY_YELLOWLIST_MAX", def.YellowlistMax),
		YellowlistTTLDays: getEnvInt("IPSENTRY_YELLOWLIST_TTL_DAYS", def.YellowlistTTLDays),
		BlacklistMin:      getEnvFloat("IPSENTRY_BLACKLIST_MIN", def.BlacklistMin),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}

	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}

	return fallback
}
