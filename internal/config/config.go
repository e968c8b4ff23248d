package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port    string
	BaseURL string

	// Transactions API
	APIURL     string
	APITimeout time.Duration
	APIBackend string
	DataDir    string

	// Firebase Authentication
	FirebaseAPIKey          string
	FirebaseAuthDomain      string
	FirebaseProjectID       string
	FirebaseAppID           string
	FirebaseCredentialsFile string

	// Sessions
	SessionStore string
	SQLiteDBPath string
	SessionTTL   time.Duration
	CookieSecure bool

	// AMQP activity events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	RateLimitPerMinute int
	LogLevel           string
	TrustedProxies     []string
}

var (
	validBackends      = []string{"api", "memory"}
	validSessionStores = []string{"memory", "sqlite"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		BaseURL: getEnv("BASE_URL", ""),

		APIURL:     getEnv("API_URL", "http://localhost:3333"),
		APITimeout: getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIBackend: getEnv("API_BACKEND", "api"),
		DataDir:    getEnv("DATA_DIR", "data"),

		FirebaseAPIKey:          getEnv("FIREBASE_API_KEY", ""),
		FirebaseAuthDomain:      getEnv("FIREBASE_AUTH_DOMAIN", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAppID:           getEnv("FIREBASE_APP_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		SessionStore: getEnv("SESSION_STORE", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/devbills.db"),
		SessionTTL:   getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "devbills"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "devbills.activity"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
	}

	return cfg
}

// DevLogin reports whether the development sign-in form replaces Firebase.
func (c *Config) DevLogin() bool {
	return c.FirebaseProjectID == "" && c.APIBackend == "memory"
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid base URL '%s': must be absolute", c.BaseURL))
		}
	}

	if !slices.Contains(validBackends, c.APIBackend) {
		errors = append(errors, fmt.Sprintf("invalid API backend '%s': must be one of %v", c.APIBackend, validBackends))
	}

	if c.APIBackend == "api" {
		if c.APIURL == "" {
			errors = append(errors, "API URL cannot be empty when using api backend")
		} else if u, err := url.Parse(c.APIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}

		// The API authorizes every call with a Firebase ID token.
		if c.FirebaseProjectID == "" {
			errors = append(errors, "Firebase project ID is required when using api backend")
		}
	}

	if c.APITimeout <= 0 || c.APITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 0 and 2 minutes", c.APITimeout))
	}

	if c.FirebaseProjectID != "" && c.FirebaseAPIKey == "" {
		errors = append(errors, "Firebase API key is required when a Firebase project is configured")
	}
	if c.FirebaseCredentialsFile != "" {
		if _, err := os.Stat(c.FirebaseCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Firebase credentials file does not exist: %s", c.FirebaseCredentialsFile))
		}
	}

	if !slices.Contains(validSessionStores, c.SessionStore) {
		errors = append(errors, fmt.Sprintf("invalid session store '%s': must be one of %v", c.SessionStore, validSessionStores))
	}

	if c.SessionStore == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite session store")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
