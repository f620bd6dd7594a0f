package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the client.
type Config struct {
	APIOrigin      string
	LogLevel       string
	SessionDBPath  string
	PrometheusPort string

	// LoginEmail/LoginName drive the dev-login flow. GoogleIDToken, when
	// set, takes precedence and uses the Google sign-in endpoint instead.
	LoginEmail    string
	LoginName     string
	GoogleIDToken string

	// Reconnect enables exponential-backoff redial of the push channel.
	// Off by default: a dropped connection stays dropped, matching the
	// behavior the rest of the client is written against.
	Reconnect bool

	// RSVPDebounce is the delay between an rsvp_updated push and the
	// RSVP re-fetch, absorbing backend write-then-read races.
	RSVPDebounce time.Duration

	// Optional Telegram notification bridge. Both must be set to enable it.
	TelegramToken  string
	TelegramChatID int64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		SessionDBPath:  getEnvOrDefault("SESSION_DB_PATH", "gatherings.db"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		LoginEmail:     os.Getenv("LOGIN_EMAIL"),
		LoginName:      getEnvOrDefault("LOGIN_NAME", "Gatherings CLI"),
		GoogleIDToken:  os.Getenv("GOOGLE_ID_TOKEN"),
		Reconnect:      os.Getenv("RECONNECT") == "true",
		RSVPDebounce:   100 * time.Millisecond,
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	if cfg.APIOrigin = os.Getenv("API_ORIGIN"); cfg.APIOrigin == "" {
		return nil, fmt.Errorf("API_ORIGIN environment variable is required")
	}

	if raw := os.Getenv("RSVP_DEBOUNCE_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("RSVP_DEBOUNCE_MS must be an integer: %w", err)
		}
		cfg.RSVPDebounce = time.Duration(ms) * time.Millisecond
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramChatID = id
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
