// Package config loads service settings from .env files and the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings
type Config struct {
	Port                 string
	GinMode              string
	DevMode              bool
	LogLevel             string
	DataDir              string
	SafeBrowsingAPIKey   string
	SafeBrowsingEndpoint string
	RateLimitRPS         float64
	RateLimitBurst       int
	DailyAuditQuota      int
	FetchTimeout         time.Duration
	AuxFetchTimeout      time.Duration
	ReputationTimeout    time.Duration
	UserAgent            string

	// EnvFileLoaded is set by Load when a .env file was read
	EnvFileLoaded bool
}

// LoadEnvFiles loads .env.development, falling back to .env. It reports whether a file was loaded.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.development"); err == nil {
		return true
	}
	return godotenv.Load() == nil
}

// FromEnv builds a Config from the process environment
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getenv("PORT", "8082"),
		GinMode:              getenv("GIN_MODE", "release"),
		DevMode:              strings.EqualFold(os.Getenv("DEV_MODE"), "true"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		DataDir:              getenv("DATA_DIR", "./data"),
		SafeBrowsingAPIKey:   strings.TrimSpace(os.Getenv("SAFE_BROWSING_API_KEY")),
		SafeBrowsingEndpoint: os.Getenv("SAFE_BROWSING_ENDPOINT"),
		UserAgent:            getenv("USER_AGENT", "SEOAuditor/1.0"),
	}

	var err error
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 2); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.DailyAuditQuota, err = getInt("DAILY_AUDIT_QUOTA", 0); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getSeconds("FETCH_TIMEOUT_SECONDS", 15); err != nil {
		return nil, err
	}
	if cfg.AuxFetchTimeout, err = getSeconds("AUX_FETCH_TIMEOUT_SECONDS", 5); err != nil {
		return nil, err
	}
	if cfg.ReputationTimeout, err = getSeconds("SAFE_BROWSING_TIMEOUT_SECONDS", 8); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads .env files and then the environment
func Load() (*Config, error) {
	loaded := LoadEnvFiles()
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	return v, nil
}

func getSeconds(key string, fallback int) (time.Duration, error) {
	secs, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", key, raw)
	}
	return v, nil
}
