package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr() != "0.0.0.0:3000" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr(), "0.0.0.0:3000")
	}
	if cfg.StoreDriver != StoreFile {
		t.Fatalf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreFile)
	}
	if cfg.StoreFilePath != "data/appointments.json" {
		t.Fatalf("StoreFilePath = %q", cfg.StoreFilePath)
	}
	if !reflect.DeepEqual(cfg.SlotTimes, []string{"09:00", "10:30", "13:00", "15:30"}) {
		t.Fatalf("SlotTimes = %v", cfg.SlotTimes)
	}
	if !reflect.DeepEqual(cfg.ClosedDays, []time.Weekday{time.Saturday, time.Sunday}) {
		t.Fatalf("ClosedDays = %v", cfg.ClosedDays)
	}
	if cfg.LockTTL != 5*time.Second || cfg.LockWait != 3*time.Second {
		t.Fatalf("lock = %v/%v, want 5s/3s", cfg.LockTTL, cfg.LockWait)
	}
	if cfg.FieldsterUseMock {
		t.Fatalf("FieldsterUseMock = true, want false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PESTBOOK_STORE_DRIVER", "Memory")
	t.Setenv("USE_FIELDSTER_MOCK", "1")
	t.Setenv("PESTBOOK_SLOTS_TIMES", "08:00, 12:00")
	t.Setenv("PESTBOOK_SLOTS_CLOSED_DAYS", "sun")
	t.Setenv("PESTBOOK_LOCK_WAIT", "250ms")
	t.Setenv("PESTBOOK_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreMemory)
	}
	if !cfg.FieldsterUseMock {
		t.Fatalf("FieldsterUseMock = false, want true")
	}
	if !reflect.DeepEqual(cfg.SlotTimes, []string{"08:00", "12:00"}) {
		t.Fatalf("SlotTimes = %v", cfg.SlotTimes)
	}
	if !reflect.DeepEqual(cfg.ClosedDays, []time.Weekday{time.Sunday}) {
		t.Fatalf("ClosedDays = %v", cfg.ClosedDays)
	}
	if cfg.LockWait != 250*time.Millisecond {
		t.Fatalf("LockWait = %v, want 250ms", cfg.LockWait)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadAddrOverride(t *testing.T) {
	t.Setenv("PESTBOOK_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr() != "127.0.0.1:9000" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr(), "127.0.0.1:9000")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"driver", "PESTBOOK_STORE_DRIVER", "mongo"},
		{"slot time", "PESTBOOK_SLOTS_TIMES", "9:00"},
		{"duplicate slot", "PESTBOOK_SLOTS_TIMES", "09:00,09:00"},
		{"no slots", "PESTBOOK_SLOTS_TIMES", " , "},
		{"weekday", "PESTBOOK_SLOTS_CLOSED_DAYS", "funday"},
		{"duration", "PESTBOOK_LOCK_TTL", "soon"},
		{"sample ratio", "PESTBOOK_OTEL_SAMPLE_RATIO", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PESTBOOK_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	t.Setenv("PESTBOOK_TEST_DOTENV", "")
	os.Unsetenv("PESTBOOK_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}
	if got := os.Getenv("PESTBOOK_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("PESTBOOK_TEST_DOTENV = %q, want %q", got, "from-file")
	}
}
