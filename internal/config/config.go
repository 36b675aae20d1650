package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// HTTPTimeout bounds every outbound call (weather, geocoding, chat).
	HTTPTimeout time.Duration

	// GeocoderAPIKey enables reverse geocoding when set; empty degrades
	// place names to blank without blocking anything.
	GeocoderAPIKey string

	// Chat completion endpoint settings.
	ChatAPIURL    string
	ChatAPIKey    string
	ChatModel     string
	ChatMaxTokens int

	// ForecastHorizon is the number of future days forecast per metric.
	ForecastHorizon int

	// Session retention.
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.ChatAPIURL = getenvDefault("CHAT_API_URL", "https://api.openai.com/v1")
	cfg.ChatAPIKey = os.Getenv("CHAT_API_KEY")
	cfg.ChatModel = getenvDefault("CHAT_MODEL", "gpt-4o-mini")
	cfg.ChatMaxTokens = getenvInt("CHAT_MAX_TOKENS", 512)
	if cfg.ChatAPIKey == "" {
		log.Printf("WARN: CHAT_API_KEY is not set; chat turns will fail upstream")
	}

	cfg.ForecastHorizon = getenvInt("FORECAST_HORIZON_DAYS", 30)
	if cfg.ForecastHorizon <= 0 {
		return nil, fmt.Errorf("FORECAST_HORIZON_DAYS must be positive")
	}

	ttlStr := getenvDefault("SESSION_TTL", "1h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	sweepStr := getenvDefault("SESSION_SWEEP_INTERVAL", "5m")
	sweep, err := time.ParseDuration(sweepStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: %w", err)
	}
	cfg.SessionSweepInterval = sweep

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
