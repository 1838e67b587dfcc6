package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eslsoft/oghmai/internal/entity"
)

func validConfig() *Config {
	return &Config{
		App:        AppConfig{DefaultLanguage: "it"},
		Server:     ServerConfig{HTTPPort: 8080, UserHeader: "X-User-Id"},
		Database:   DatabaseConfig{Driver: "sqlite3", Path: "test.db"},
		Challenge:  ChallengeConfig{Store: "sql", TTL: time.Hour, MaxMisses: 2},
		Recycle:    RecycleConfig{Retention: 24 * time.Hour},
		LLM:        LLMConfig{BaseURL: "https://api.openai.com", Model: "gpt-4o-mini", Timeout: time.Minute},
		Generation: GenerationConfig{MaxAttempts: 3, Temperature: 0.7, JudgeTemperature: 0.2, MaxTokens: 500},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported driver")
	}
}

func TestValidateRequiresRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Challenge.Store = "redis"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "redis.addr") {
		t.Fatalf("expected redis.addr error, got %v", err)
	}
}

func TestReviewIntervalsParsesLowercaseKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Review.Intervals = map[string]int{"new": 2, "mastered": 30}
	intervals, err := cfg.ReviewIntervals()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intervals[entity.StatusNew] != 2 || intervals[entity.StatusMastered] != 30 {
		t.Fatalf("unexpected intervals: %v", intervals)
	}
	if _, ok := intervals[entity.StatusLearned]; ok {
		t.Fatal("LEARNED was not configured and must stay unscheduled")
	}
}

func TestReviewIntervalsRejectsUnknownStatus(t *testing.T) {
	cfg := validConfig()
	cfg.Review.Intervals = map[string]int{"expert": 2}
	if _, err := cfg.ReviewIntervals(); !errors.Is(err, entity.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := validConfig()
	if got := cfg.DatabaseURL(); !strings.HasPrefix(got, "file:test.db?") {
		t.Fatalf("unexpected sqlite dsn %q", got)
	}

	cfg.Database = DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Name: "oghmai", User: "app", Password: "p@ss", SSLMode: "disable"}
	want := "postgres://app:p%40ss@db:5432/oghmai?sslmode=disable"
	if got := cfg.DatabaseURL(); got != want {
		t.Fatalf("DatabaseURL = %q, want %q", got, want)
	}
}
