// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	API         APIConfig
	Snapshot    SnapshotConfig
	Log         LogConfig
}

type APIConfig struct {
	BaseURL   string
	Timeout   int // in seconds
	RateLimit float64
	RateBurst int
}

type SnapshotConfig struct {
	Backend            string // "file" or "s3"
	Dir                string
	S3Bucket           string
	S3Prefix           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		API: APIConfig{
			BaseURL:   getEnv("API_BASE_URL", "http://localhost:8080/api"),
			Timeout:   getEnvAsInt("API_TIMEOUT", 10),
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 10),
			RateBurst: getEnvAsInt("API_RATE_BURST", 20),
		},
		Snapshot: SnapshotConfig{
			Backend:            getEnv("SNAPSHOT_BACKEND", "file"),
			Dir:                getEnv("SNAPSHOT_DIR", ".storefront"),
			S3Bucket:           getEnv("SNAPSHOT_S3_BUCKET", ""),
			S3Prefix:           getEnv("SNAPSHOT_S3_PREFIX", "snapshots"),
			AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	switch c.Snapshot.Backend {
	case "file":
		if c.Snapshot.Dir == "" {
			return fmt.Errorf("snapshot directory is required for the file backend")
		}
	case "s3":
		if c.Snapshot.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
