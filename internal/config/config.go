// Package config handles loading runtime configuration for the Pitstop API.
// Every setting comes from an environment variable so the same binary can run locally,
// in staging, and in production. A .env file is loaded first when one is present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port          string // TCP port the HTTP server listens on (e.g., "8000")
	Env           string // "development", "staging", or "production"
	DatabaseURL   string // PostgreSQL connection string
	MigrationsDir string // Directory holding the golang-migrate .sql files
	CORSOrigins   string // Comma-separated list of allowed origins ("*" in development)

	AdminJWTSecret string // HMAC secret used to verify admin tokens; admin routes are disabled when empty

	ErgastBaseURL string // Ergast-compatible API used for schedules and results
	OpenF1BaseURL string // OpenF1 API used for laps, telemetry and race control

	CachePath      string        // SQLite file backing the upstream response cache; empty disables caching
	CacheTTL       time.Duration // How long a cached upstream response stays fresh
	WorkerPoolSize int           // Maximum number of upstream fetches running at once
	FetchTimeout   time.Duration // Upper bound for a single dispatched fetch

	LocalZoneName    string // Display name of the fixed local offset (e.g., "EAT")
	LocalUTCOffset   int    // Hours east of UTC for the fixed local offset
	FallbackRaceTime string // Local "HH:MM" used when a race start time is unknown

	TelegramToken        string  // Bot token used to notify admins of new signups; optional
	TelegramAdminChatIDs []int64 // Chats that receive signup notifications

	RateLimitMax int // Write requests allowed per client IP per minute
}

// Load reads configuration from environment variables and returns a populated Config.
// A missing .env file is fine: deployments set real environment variables instead.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8000"),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   databaseURL(),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		ErgastBaseURL: strings.TrimRight(getEnv("ERGAST_BASE_URL", "https://api.jolpi.ca/ergast/f1"), "/"),
		OpenF1BaseURL: strings.TrimRight(getEnv("OPENF1_BASE_URL", "https://api.openf1.org/v1"), "/"),

		CachePath:      getEnv("CACHE_PATH", "./cache/f1data.db"),
		CacheTTL:       getDuration("CACHE_TTL", 6*time.Hour),
		WorkerPoolSize: getInt("WORKER_POOL_SIZE", 8),
		FetchTimeout:   getDuration("FETCH_TIMEOUT", 60*time.Second),

		LocalZoneName:    getEnv("LOCAL_TZ_NAME", "EAT"),
		LocalUTCOffset:   getInt("LOCAL_UTC_OFFSET_HOURS", 3),
		FallbackRaceTime: getEnv("FALLBACK_RACE_TIME", "14:00"),

		TelegramToken:        strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		TelegramAdminChatIDs: parseChatIDs(os.Getenv("TELEGRAM_ADMIN_CHAT_IDS")),

		RateLimitMax: getInt("RATE_LIMIT_MAX", 30),
	}
}

// IsProduction reports whether internal error details should be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LocalZone returns the fixed, DST-free zone that race times are projected into.
func (c *Config) LocalZone() *time.Location {
	return time.FixedZone(c.LocalZoneName, c.LocalUTCOffset*3600)
}

// databaseURL prefers DATABASE_URL and falls back to the individual DB_* variables.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_NAME", "pitstop"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// parseChatIDs turns "123, -456" into []int64{123, -456}, skipping anything unparsable.
func parseChatIDs(raw string) []int64 {
	var ids []int64
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
