package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL overrides the base used when building public object URLs.
	// When empty, URLs are derived from Endpoint/UseSSL.
	PublicBaseURL string
}

// UploadConfig holds server-side upload constraints.
type UploadConfig struct {
	// MaxFileSizeBytes rejects individual files larger than this.
	MaxFileSizeBytes int64
}

// CleanupConfig holds settings for the daily purge job.
type CleanupConfig struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string
	// Token guards the HTTP cleanup trigger endpoint (Bearer token).
	Token string
	// BatchSize bounds each record enumeration pass.
	BatchSize int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables and passed explicitly to every
// component; there is no process-wide client singleton.
type AppConfig struct {
	AppHost string
	Port    string
	// AdminToken is the shared secret checked server-side before delete and
	// download operations are allowed.
	AdminToken string
	// StoreCallTimeoutSec bounds each individual store call made by handlers.
	StoreCallTimeoutSec int
	Database            DatabaseConfig
	MinIO               MinIOConfig
	Upload              UploadConfig
	Cleanup             CleanupConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:             getEnv("APP_HOST", "localhost:8080"),
		Port:                getEnv("PORT", "8080"),
		AdminToken:          getEnv("ADMIN_TOKEN", ""),
		StoreCallTimeoutSec: getEnvInt("STORE_CALL_TIMEOUT_SEC", 30),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", "gallery-images"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		Upload: UploadConfig{
			MaxFileSizeBytes: getEnvInt64("UPLOAD_MAX_FILE_SIZE_BYTES", 10*1024*1024),
		},
		Cleanup: CleanupConfig{
			Schedule:  getEnv("CLEANUP_SCHEDULE", "59 23 * * *"),
			Token:     getEnv("CLEANUP_TOKEN", ""),
			BatchSize: getEnvInt("CLEANUP_BATCH_SIZE", 500),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
