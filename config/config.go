// Package config loads server configuration from the environment.
// A .env file is honored when present; real environment variables win.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/workforce-engine/engine"
)

type Config struct {
	Port     int
	DBPath   string
	TokenTTL time.Duration

	// JWTSecret signs session tokens. Must be set outside development.
	JWTSecret string

	// Calendar holds the live weekend definition. Handlers that reload
	// the weekend set swap it through this holder; in-flight working-day
	// counts keep the config they loaded.
	Calendar *engine.ConfigHolder
}

// Load reads configuration, falling back to development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %s", err)
	}

	cfg := &Config{
		Port:      getEnvAsInt("PORT", 8080),
		DBPath:    getEnv("DB_PATH", "workforce.db"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "workforce-dev-secret"
		logrus.Warn("JWT_SECRET not set, using development default")
	}

	calendar, err := WeekendConfig()
	if err != nil {
		logrus.Fatalf("invalid WEEKEND_DAYS: %s", err)
	}
	cfg.Calendar = engine.NewConfigHolder(calendar)

	return cfg
}

// WeekendConfig parses WEEKEND_DAYS (comma-separated weekday names) into
// a calendar config. Empty means the Saturday/Sunday default.
func WeekendConfig() (engine.CalendarConfig, error) {
	raw := getEnv("WEEKEND_DAYS", "")
	if strings.TrimSpace(raw) == "" {
		return engine.DefaultCalendarConfig(), nil
	}
	return engine.ParseCalendarConfig(strings.Split(raw, ","))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logrus.Warnf("ignoring non-integer %s=%q", key, v)
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logrus.Warnf("ignoring unparseable %s=%q", key, v)
	}
	return fallback
}
