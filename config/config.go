package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration, read from the environment (and .env when present)
type Config struct {
	Port           string
	DatabaseDriver string // postgres | sqlite
	DatabaseURL    string
	ServiceToken   string
	AllowedOrigins []string

	CatalogPath string // TOML catalog; empty uses the embedded default

	// ServerProcedures routes ledger and streak writes through the PL/pgSQL functions
	// instead of client-side gorm transactions. PostgreSQL only.
	ServerProcedures bool
	// AllowNegativeBalance lets benefit spends push total_points below zero.
	AllowNegativeBalance bool
	StreakTimezone       *time.Location

	SweepInterval      time.Duration
	SweepLookback      time.Duration
	NutritionSyncURL   string
	NutritionSyncToken string

	R2 R2Config
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "5200"),
		DatabaseDriver:       strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		ServiceToken:         os.Getenv("GAME_SERVICE_TOKEN"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		CatalogPath:          os.Getenv("CATALOG_PATH"),
		ServerProcedures:     getBool("SERVER_PROCEDURES", false),
		AllowNegativeBalance: getBool("ALLOW_NEGATIVE_BALANCE", true),
		StreakTimezone:       getLocation("STREAK_TIMEZONE", time.UTC),
		SweepInterval:        getDuration("SWEEP_INTERVAL", 15*time.Minute),
		SweepLookback:        getDuration("SWEEP_LOOKBACK", 24*time.Hour),
		NutritionSyncURL:     os.Getenv("NUTRITION_SYNC_URL"),
		NutritionSyncToken:   os.Getenv("NUTRITION_SYNC_TOKEN"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
		},
	}
	if cfg.DatabaseDriver == "sqlite" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "progression.db"
	}
	return cfg
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a boolean, using %t", key, v, defaultValue)
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️  %s=%q is not a positive duration, using %s", key, v, defaultValue)
		return defaultValue
	}
	return d
}

func getLocation(key string, defaultValue *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a known timezone, using %s", key, v, defaultValue)
		return defaultValue
	}
	return loc
}

// splitList splits a comma-separated value and trims each entry
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
