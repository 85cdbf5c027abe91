package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StorageDriverS3     = "s3"
	StorageDriverMinio  = "minio"
	StorageDriverMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	LogLevel       string
	AllowedOrigins []string

	StorageDriver    string
	StorageBucket    string
	StoragePublicURL string
	StorageRegion    string
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageUseSSL    bool
	StoragePathStyle bool

	ImageFolder    string
	MaxUploadBytes int64

	SweepEnabled     bool
	SweepSchedule    string
	SweepGracePeriod time.Duration
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("DB_NAME", "wishlist_manager"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverS3)),
		StorageBucket:    getEnv("STORAGE_BUCKET", ""),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", "https://storage.googleapis.com"),
		StorageRegion:    getEnv("STORAGE_REGION", "us-east-1"),
		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageUseSSL:    getEnvBool("STORAGE_USE_SSL", true),
		StoragePathStyle: getEnvBool("STORAGE_PATH_STYLE", false),

		ImageFolder:    getEnv("IMAGE_FOLDER", "images"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_MB", 10) << 20,

		SweepEnabled:     getEnvBool("SWEEP_ENABLED", true),
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "@hourly"),
		SweepGracePeriod: getEnvDuration("SWEEP_GRACE_PERIOD", time.Hour),
	}
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StorageDriver {
	case StorageDriverS3, StorageDriverMinio:
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the %s driver", c.StorageDriver)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if strings.Trim(c.ImageFolder, "/") == "" {
		return fmt.Errorf("IMAGE_FOLDER must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid boolean in environment, using default")
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int64) int64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid integer in environment, using default")
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid duration in environment, using default")
		return fallback
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
