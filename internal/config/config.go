package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Release
	ReleaseNumber string   `validate:"required"`
	SourceSpecies string   `validate:"required"`
	SpeciesConfig string   `validate:"required"`
	PantherFiles  []string `validate:"required,min=1,dive,required"`
	OutputDir     string   `validate:"required"`

	// ID mapping service
	IDMappingURL       string        `validate:"required,url"`
	BatchSize          int           `validate:"min=1"`
	MaxAttempts        int           `validate:"min=1"`
	PollInterval       time.Duration `validate:"min=0"`
	RetryDelay         time.Duration `validate:"min=0"`
	MinRequestDelay    time.Duration `validate:"min=0"`
	HTTPTimeout        time.Duration `validate:"min=0"`
	Concurrency        int           `validate:"min=1"`
	LogLevel           string        `validate:"oneof=debug info warn error"`
	MetricsFile        string
	VerifyDropFraction float64 `validate:"gt=0,lte=1"`

	// Previous release location for verification
	PreviousReleaseBucket string
	PreviousReleasePrefix string
	AWSRegion             string
	S3Endpoint            string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables. envFiles are read
// first; with none given, a .env file in the working directory is used if present.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, &ConfigError{Field: "config", Message: err.Error()}
		}
	} else {
		// Load .env file if it exists (ignore error if not found)
		_ = godotenv.Load()
	}

	release := getEnv("RELEASE_NUMBER", "")
	cfg := &Config{
		ReleaseNumber:         release,
		SourceSpecies:         getEnv("SOURCE_SPECIES", "hsap"),
		SpeciesConfig:         getEnv("SPECIES_CONFIG", "Species.json"),
		PantherFiles:          splitList(getEnv("PANTHER_FILES", "QfO_Genome_Orthologs.txt,Orthologs_HCOP.txt")),
		OutputDir:             getEnv("OUTPUT_DIR", release),
		IDMappingURL:          getEnv("IDMAPPING_URL", "https://rest.uniprot.org/idmapping"),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		MetricsFile:           getEnv("METRICS_FILE", ""),
		PreviousReleaseBucket: getEnv("PREVIOUS_RELEASE_BUCKET", ""),
		PreviousReleasePrefix: getEnv("PREVIOUS_RELEASE_PREFIX", "private/releases/{previous}/orthopairs/data/orthopairs/"),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:            getEnv("S3_ENDPOINT", ""),
		APIPort:               getEnv("API_PORT", "8080"),
		APIHost:               getEnv("API_HOST", "localhost"),
		APIEndpoint:           getEnv("API_ENDPOINT", "http://localhost:8080"),
	}

	var err error
	if cfg.BatchSize, err = getEnvInt("IDMAPPING_BATCH_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getEnvInt("IDMAPPING_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = getEnvInt("IDMAPPING_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getEnvDuration("IDMAPPING_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getEnvDuration("IDMAPPING_RETRY_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.MinRequestDelay, err = getEnvDuration("IDMAPPING_MIN_REQUEST_DELAY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("IDMAPPING_HTTP_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.VerifyDropFraction, err = getEnvFloat("VERIFY_DROP_THRESHOLD", 0.05); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("not an integer: %q", raw)}
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("not a number: %q", raw)}
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("not a duration: %q", raw)}
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fieldEnv maps struct fields to the variables that set them, for error messages.
var fieldEnv = map[string]string{
	"ReleaseNumber":      "RELEASE_NUMBER",
	"SourceSpecies":      "SOURCE_SPECIES",
	"SpeciesConfig":      "SPECIES_CONFIG",
	"PantherFiles":       "PANTHER_FILES",
	"OutputDir":          "OUTPUT_DIR",
	"IDMappingURL":       "IDMAPPING_URL",
	"BatchSize":          "IDMAPPING_BATCH_SIZE",
	"MaxAttempts":        "IDMAPPING_MAX_ATTEMPTS",
	"PollInterval":       "IDMAPPING_POLL_INTERVAL",
	"RetryDelay":         "IDMAPPING_RETRY_DELAY",
	"MinRequestDelay":    "IDMAPPING_MIN_REQUEST_DELAY",
	"HTTPTimeout":        "IDMAPPING_HTTP_TIMEOUT",
	"Concurrency":        "IDMAPPING_CONCURRENCY",
	"LogLevel":           "LOG_LEVEL",
	"VerifyDropFraction": "VERIFY_DROP_THRESHOLD",
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			field := fe.StructField()
			if env, ok := fieldEnv[field]; ok {
				field = env
			}
			return &ConfigError{Field: field, Message: fmt.Sprintf("failed %q validation", fe.Tag())}
		}
		return err
	}
	return nil
}

// PantherPaths resolves the dump file names. Relative names are kept as given.
func (c *Config) PantherPaths() []string {
	out := make([]string, len(c.PantherFiles))
	for i, f := range c.PantherFiles {
		out[i] = filepath.Clean(f)
	}
	return out
}

// PreviousRelease returns the release number before ReleaseNumber.
func (c *Config) PreviousRelease() (int, error) {
	n, err := strconv.Atoi(c.ReleaseNumber)
	if err != nil {
		return 0, &ConfigError{Field: "RELEASE_NUMBER", Message: "must be numeric to locate the previous release"}
	}
	return n - 1, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
