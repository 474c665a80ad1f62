package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store kinds.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Env         string
	LogLevel    string
	Port        string
	APIURL      string
	HTTPTimeout time.Duration

	TokenStore string
	TokenPath  string
	TokenTTL   time.Duration
	ClientID   string

	// TokenKey is a base64 AES-256 key; when set, stored user ids are encrypted.
	TokenKey string
	// TokenFallbackKeys still decrypt tokens written before a key rotation.
	TokenFallbackKeys []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionIdle    time.Duration
	MetricsEnabled bool
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Env:         getEnv("HOMECARE_ENV", "development"),
		LogLevel:    getEnv("HOMECARE_LOG_LEVEL", "info"),
		Port:        getEnv("PORT", "8080"),
		APIURL:      getEnv("HOMECARE_API_URL", "http://localhost:8001/api"),
		HTTPTimeout: getEnvAsDuration("HOMECARE_HTTP_TIMEOUT", 15*time.Second),

		TokenStore: strings.ToLower(getEnv("HOMECARE_TOKEN_STORE", StoreFile)),
		TokenPath:  getEnv("HOMECARE_TOKEN_PATH", ".homecare/auth"),
		TokenTTL:   getEnvAsDuration("HOMECARE_TOKEN_TTL", 0),
		ClientID:   getEnv("HOMECARE_CLIENT_ID", "default"),

		TokenKey:          getEnv("HOMECARE_TOKEN_KEY", ""),
		TokenFallbackKeys: getEnvAsList("HOMECARE_TOKEN_FALLBACK_KEYS"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SessionIdle:    getEnvAsDuration("HOMECARE_SESSION_IDLE", 30*time.Minute),
		MetricsEnabled: getEnvAsBool("HOMECARE_METRICS", true),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	switch c.TokenStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("HOMECARE_TOKEN_STORE must be file, redis or memory, got %q", c.TokenStore))
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		errs = append(errs, fmt.Errorf("HOMECARE_API_URL must be an http(s) URL, got %q", c.APIURL))
	}
	if c.TokenKey == "" && len(c.TokenFallbackKeys) > 0 {
		errs = append(errs, errors.New("HOMECARE_TOKEN_FALLBACK_KEYS needs HOMECARE_TOKEN_KEY"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("HOMECARE_CLIENT_ID cannot be empty"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
