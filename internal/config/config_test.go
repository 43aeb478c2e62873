package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "DATABASE_URL", "CACHE_TTL", "WORKER_POOL_SIZE", "LOCAL_UTC_OFFSET_HOURS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.CacheTTL != 6*time.Hour {
		t.Errorf("CacheTTL = %v, want 6h", cfg.CacheTTL)
	}
	if cfg.WorkerPoolSize != 8 {
		t.Errorf("WorkerPoolSize = %d, want 8", cfg.WorkerPoolSize)
	}
	if cfg.IsProduction() {
		t.Error("development config reported production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db/pitstop")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("WORKER_POOL_SIZE", "not-a-number")
	t.Setenv("ERGAST_BASE_URL", "http://ergast.local/f1/")
	t.Setenv("TELEGRAM_ADMIN_CHAT_IDS", "12, -34,abc,")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://u:p@db/pitstop" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v, want 15m", cfg.CacheTTL)
	}
	if cfg.WorkerPoolSize != 8 {
		t.Errorf("WorkerPoolSize = %d, want fallback 8", cfg.WorkerPoolSize)
	}
	if cfg.ErgastBaseURL != "http://ergast.local/f1" {
		t.Errorf("ErgastBaseURL = %q, trailing slash not trimmed", cfg.ErgastBaseURL)
	}
	if want := []int64{12, -34}; !reflect.DeepEqual(cfg.TelegramAdminChatIDs, want) {
		t.Errorf("TelegramAdminChatIDs = %v, want %v", cfg.TelegramAdminChatIDs, want)
	}
}

func TestDatabaseURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "club")

	want := "host=db.internal port=5432 user=postgres password= dbname=club sslmode=disable"
	if got := databaseURL(); got != want {
		t.Errorf("databaseURL() = %q, want %q", got, want)
	}
}

func TestLocalZone(t *testing.T) {
	cfg := &Config{LocalZoneName: "EAT", LocalUTCOffset: 3}
	name, offset := time.Date(2025, 7, 1, 0, 0, 0, 0, cfg.LocalZone()).Zone()
	if name != "EAT" || offset != 3*3600 {
		t.Errorf("zone = %s %d, want EAT 10800", name, offset)
	}
}
