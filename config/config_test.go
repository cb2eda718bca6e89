package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("ALLOW_NEGATIVE_BALANCE", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("STREAK_TIMEZONE", "")
	t.Setenv("SERVER_PROCEDURES", "")
	t.Setenv("R2_BUCKET_NAME", "")

	cfg := Load()

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AllowNegativeBalance)
	assert.False(t, cfg.ServerProcedures)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, time.UTC, cfg.StreakTimezone)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("ALLOW_NEGATIVE_BALANCE", "false")
	t.Setenv("SERVER_PROCEDURES", "true")
	t.Setenv("SWEEP_INTERVAL", "90s")
	t.Setenv("STREAK_TIMEZONE", "not/a-zone")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "progression.db", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.AllowNegativeBalance)
	assert.True(t, cfg.ServerProcedures)
	assert.Equal(t, 90*time.Second, cfg.SweepInterval)
	assert.Equal(t, time.UTC, cfg.StreakTimezone)
}

func TestGetBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_FLAG", "maybe")
	assert.True(t, getBool("SOME_FLAG", true))
	assert.False(t, getBool("SOME_FLAG", false))
}
