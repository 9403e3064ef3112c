package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment-driven setting for the gateway.
type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"60"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Google Cloud
	GCPProjectID        string `envconfig:"GCP_PROJECT_ID"`
	GCPLocation         string `envconfig:"GCP_LOCATION" default:"us-central1"`
	GeminiModelID       string `envconfig:"GEMINI_MODEL_ID" default:"gemini-1.5-flash-001"`
	GCSBucketName       string `envconfig:"GCS_BUCKET_NAME"`
	FirestoreCollection string `envconfig:"FIRESTORE_COLLECTION"`

	// Uploads
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE" default:"16777216"` // 16 MiB

	// Security
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	EnableAuth     bool     `envconfig:"ENABLE_AUTH" default:"false"`
	APIToken       string   `envconfig:"API_TOKEN"`
	SecretKey      string   `envconfig:"SECRET_KEY" default:"dev-key-change-in-production"`

	// Rate limiting
	UploadRatePerMinute int `envconfig:"UPLOAD_RATE_PER_MINUTE" default:"10"`
	RatePerHour         int `envconfig:"RATE_PER_HOUR" default:"50"`
	RatePerDay          int `envconfig:"RATE_PER_DAY" default:"200"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	c := new(Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks that required settings are present. Startup must fail on a
// missing project id or bucket name rather than surface the problem on the
// first upload.
func (c *Config) Validate() error {
	var missing []string
	if c.GCPProjectID == "" {
		missing = append(missing, "GCP_PROJECT_ID")
	}
	if c.GCSBucketName == "" {
		missing = append(missing, "GCS_BUCKET_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if c.EnableAuth && c.APIToken == "" {
		return fmt.Errorf("ENABLE_AUTH is true but API_TOKEN is not set")
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}

	return nil
}

// IsProduction reports whether the gateway runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
