package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendRealtimeDatabase = "rtdb"
	BackendFirestore        = "firestore"
)

type Config struct {
	ServerPort      string
	Environment     string
	LogLevel        string
	FirebaseProject string
	FirebaseApiKey  string
	ClientID        string

	ServiceAccountJSON string
	ServiceAccountPath string

	DatabaseURL          string
	DatabaseBackend      string
	DatabasePollInterval time.Duration

	StorageBucket          string
	StorageDownloadMaxSize int64
	StorageCORSOrigins     []string

	RevokeOnSignOut bool
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseApiKey:  getEnv("FIREBASE_API_KEY", ""),
		ClientID:        getEnv("FIREBASE_CLIENT_ID", ""),

		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),

		DatabaseURL:          getEnv("FIREBASE_DATABASE_URL", ""),
		DatabaseBackend:      strings.ToLower(getEnv("DATABASE_BACKEND", BackendRealtimeDatabase)),
		DatabasePollInterval: getEnvAsDuration("DATABASE_POLL_INTERVAL", time.Second),

		StorageBucket:          getEnv("FIREBASE_STORAGE_BUCKET", ""),
		StorageDownloadMaxSize: getEnvAsInt64("STORAGE_DOWNLOAD_MAX_SIZE", 1024*1024),
		StorageCORSOrigins:     getEnvAsList("STORAGE_CORS_ORIGINS"),

		RevokeOnSignOut: getEnvAsBool("REVOKE_ON_SIGN_OUT", false),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	switch c.DatabaseBackend {
	case BackendRealtimeDatabase, BackendFirestore:
	default:
		return fmt.Errorf("unknown DATABASE_BACKEND %q", c.DatabaseBackend)
	}
	if c.DatabasePollInterval <= 0 {
		return fmt.Errorf("DATABASE_POLL_INTERVAL must be positive")
	}
	if c.StorageDownloadMaxSize <= 0 {
		return fmt.Errorf("STORAGE_DOWNLOAD_MAX_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
