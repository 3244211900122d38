package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	LogLevel  slog.Level
	Database  DatabaseConfig
	Server    ServerConfig
	OCR       OCRConfig
	NER       NERConfig
	Geocoder  GeocoderConfig
	Staging   StagingConfig
	Workers   WorkerConfig
	AliasFile string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	MaxUploadBytes int64
}

// OCRConfig holds text recovery configuration
type OCRConfig struct {
	Language    string
	DPI         int
	MaxPages    int
	PageWorkers int
	TessdataDir string
	Pdftotext   string
	Pdftoppm    string
	Tesseract   string
	TextLayer   string
	Preprocess  bool
}

// NERConfig selects the statistical recognizer. Mode is prose, heuristic or
// http; http needs URL.
type NERConfig struct {
	Mode    string
	URL     string
	Timeout time.Duration
}

// MinArtifactTTL is the shortest STAGING_ARTIFACT_TTL accepted.
const MinArtifactTTL = time.Minute

// GeocoderConfig holds place-search configuration
type GeocoderConfig struct {
	URL       string
	UserAgent string
	Country   string
	Delay     time.Duration
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// StagingConfig holds upload staging configuration
type StagingConfig struct {
	Dir         string
	ArtifactTTL time.Duration
}

// WorkerConfig sizes the blocking-work pool
type WorkerConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "file:fra_claims.db?_pragma=foreign_keys(1)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8081"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 32<<20)),
		},
		OCR: OCRConfig{
			Language:    getEnv("OCR_LANG", "eng"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			PageWorkers: getEnvAsInt("OCR_PAGE_WORKERS", 2),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TextLayer:   getEnv("OCR_TEXT_LAYER", "auto"),
			Preprocess:  getEnvAsBool("OCR_PREPROCESS", true),
		},
		NER: NERConfig{
			Mode:    nerMode(),
			URL:     getEnv("NER_URL", ""),
			Timeout: getEnvAsDuration("NER_TIMEOUT", 15*time.Second),
		},
		Geocoder: GeocoderConfig{
			URL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "fra-claims/1.0"),
			Country:   getEnv("GEOCODER_COUNTRY", "India"),
			Delay:     getEnvAsDuration("GEOCODER_DELAY", 1100*time.Millisecond),
			Timeout:   getEnvAsDuration("GEOCODER_TIMEOUT", 10*time.Second),
			CacheTTL:  getEnvAsDuration("GEOCODER_CACHE_TTL", 24*time.Hour),
		},
		Staging: StagingConfig{
			Dir:         getEnv("STAGING_DIR", "uploads/temp"),
			ArtifactTTL: getEnvAsDuration("STAGING_ARTIFACT_TTL", time.Hour),
		},
		Workers: WorkerConfig{
			Workers:     getEnvAsInt("WORKERS", 4),
			QueueSize:   getEnvAsInt("QUEUE_SIZE", 256),
			TaskTimeout: getEnvAsDuration("TASK_TIMEOUT", 3*time.Minute),
		},
		AliasFile: getEnv("ALIASES_FILE", ""),
	}
}

// nerMode defaults to http when NER_URL is set and prose otherwise.
func nerMode() string {
	if m := getEnv("NER_MODE", ""); m != "" {
		return strings.ToLower(m)
	}
	if getEnv("NER_URL", "") != "" {
		return "http"
	}
	return "prose"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.DPI < 72 || c.OCR.DPI > 1200 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be within 72..1200", ErrInvalidInput)
	}
	switch c.OCR.TextLayer {
	case "auto", "native", "pdftotext":
	default:
		return NewAppError("CONFIG_ERROR", "OCR_TEXT_LAYER must be auto, native or pdftotext", ErrInvalidInput)
	}
	if c.Geocoder.URL == "" {
		return NewAppError("CONFIG_ERROR", "GEOCODER_URL is required", ErrInvalidInput)
	}
	if c.Geocoder.Delay < time.Second {
		return NewAppError("CONFIG_ERROR", "GEOCODER_DELAY must be at least 1s", ErrInvalidInput)
	}
	if c.Staging.Dir == "" {
		return NewAppError("CONFIG_ERROR", "STAGING_DIR is required", ErrInvalidInput)
	}
	if c.Staging.ArtifactTTL < MinArtifactTTL {
		return NewAppError("CONFIG_ERROR", "STAGING_ARTIFACT_TTL must be at least 1m", ErrInvalidInput)
	}
	switch c.NER.Mode {
	case "prose", "heuristic":
	case "http":
		if c.NER.URL == "" {
			return NewAppError("CONFIG_ERROR", "NER_URL is required when NER_MODE is http", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "NER_MODE must be prose, heuristic or http", ErrInvalidInput)
	}
	return nil
}
