package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

// Settings holds everything the server and CLI read from the environment.
type Settings struct {
	Port          string
	DatabaseURL   string
	WebRoot       string
	BaseURL       string
	StorageDriver string
	LogLevel      string
	JWTSecret     string
	UploadsConfig string

	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

func loadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	})
}

// Config returns a required environment variable and exits when it is not set.
func Config(envVar string) string {
	loadEnv()

	envVarValue := os.Getenv(envVar)
	if envVarValue == "" {
		fmt.Fprintf(os.Stderr, "%s not set\n", envVar)
		os.Exit(1)
	}

	return envVarValue
}

// Get returns an optional environment variable or fallback.
func Get(envVar, fallback string) string {
	loadEnv()

	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		return v
	}
	return fallback
}

func Load() Settings {
	return Settings{
		Port:          Get("PORT", "3000"),
		DatabaseURL:   Get("DATABASE_URL", ""),
		WebRoot:       Get("WEB_ROOT", "./web"),
		BaseURL:       Get("BASE_URL", ""),
		StorageDriver: Get("STORAGE_DRIVER", "local"),
		LogLevel:      Get("LOG_LEVEL", "info"),
		JWTSecret:     Get("JWT_SECRET", ""),
		UploadsConfig: Get("UPLOADS_CONFIG", "uploads.yaml"),

		GCSProjectID:       Get("GCS_PROJECT_ID", ""),
		GCSBucketName:      Get("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: Get("GOOGLE_APPLICATION_CREDENTIALS", ""),

		S3Bucket:    Get("S3_BUCKET", ""),
		S3Region:    Get("S3_REGION", "us-east-1"),
		S3Endpoint:  Get("S3_ENDPOINT", ""),
		S3AccessKey: Get("S3_ACCESS_KEY", ""),
		S3SecretKey: Get("S3_SECRET_KEY", ""),
	}
}
