package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultOFFBaseURL    = "https://world.openfoodfacts.org"
	DefaultParquetURL    = "https://huggingface.co/datasets/openfoodfacts/product-database/resolve/main/product-database.parquet"
)

// DefaultGeminiModels is the ranked model list used when GEMINI_MODELS is unset
var DefaultGeminiModels = []string{"gemini-2.5-flash", "gemini-2.0-flash-exp"}

// Config holds all configuration for foodlens
type Config struct {
	Environment string `validate:"required"`
	LogLevel    string

	// Recognition
	GeminiAPIKey       string
	GeminiBaseURL      string   `validate:"required,url"`
	GeminiModels       []string `validate:"min=1,dive,required"`
	RecognitionTimeout time.Duration
	ImageMaxWidth      int `validate:"gt=0"`
	ImageQuality       int `validate:"min=1,max=100"`

	// Barcode
	OFFBaseURL     string `validate:"required,url"`
	BarcodeTimeout time.Duration

	// Storage
	DataDir string `validate:"required"`
	DBPath  string `validate:"required"`

	// Offline catalog
	CatalogEnabled       bool
	ParquetURL           string
	ParquetPath          string
	MetadataPath         string
	LockFile             string
	DisableRemoteCheck   bool
	IgnoreLock           bool
	RefreshIntervalHours int `validate:"gte=0"`

	// Notifications
	SNSTopicARN string
	AWSRegion   string

	// Server
	AuthToken string
	Port      string `validate:"required,numeric"`
}

// FileReader abstracts file access so .env and YAML loading can be tested
type FileReader interface {
	Open(filename string) (io.ReadCloser, error)
	Stat(filename string) (os.FileInfo, error)
}

// OSFileReader reads from the real filesystem
type OSFileReader struct{}

func (OSFileReader) Open(filename string) (io.ReadCloser, error) { return os.Open(filename) }
func (OSFileReader) Stat(filename string) (os.FileInfo, error)   { return os.Stat(filename) }

// fileConfig is the optional YAML file named by FOODLENS_CONFIG. Environment
// variables win over anything set here.
type fileConfig struct {
	Environment string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	Gemini      struct {
		APIKey         string   `yaml:"api_key"`
		BaseURL        string   `yaml:"base_url"`
		Models         []string `yaml:"models"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
	} `yaml:"gemini"`
	Image struct {
		MaxWidth int `yaml:"max_width"`
		Quality  int `yaml:"quality"`
	} `yaml:"image"`
	Barcode struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"barcode"`
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
	Catalog struct {
		Enabled     bool   `yaml:"enabled"`
		ParquetURL  string `yaml:"parquet_url"`
		ParquetPath string `yaml:"parquet_path"`
	} `yaml:"catalog"`
	SNS struct {
		TopicARN string `yaml:"topic_arn"`
		Region   string `yaml:"region"`
	} `yaml:"sns"`
	Port string `yaml:"port"`
}

// Load reads configuration from .env, the optional YAML file and the environment
func Load() *Config {
	return LoadWithFileReader(OSFileReader{})
}

// LoadWithFileReader is Load with an injectable file reader
func LoadWithFileReader(reader FileReader) *Config {
	loadEnvFileWithReader(reader)

	var fc fileConfig
	if path := os.Getenv("FOODLENS_CONFIG"); path != "" {
		loaded, err := loadFileConfig(reader, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: ignoring config file %s: %v\n", path, err)
		} else {
			fc = *loaded
		}
	}

	dataDir := getEnv("DATA_DIR", or(fc.DataDir, "./data"))

	models := DefaultGeminiModels
	if len(fc.Gemini.Models) > 0 {
		models = fc.Gemini.Models
	}
	if v := os.Getenv("GEMINI_MODELS"); v != "" {
		models = splitList(v)
	}

	return &Config{
		Environment: getEnv("ENV", or(fc.Environment, "production")),
		LogLevel:    getEnv("LOG_LEVEL", fc.LogLevel),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", fc.Gemini.APIKey),
		GeminiBaseURL:      strings.TrimRight(getEnv("GEMINI_BASE_URL", or(fc.Gemini.BaseURL, DefaultGeminiBaseURL)), "/"),
		GeminiModels:       models,
		RecognitionTimeout: time.Duration(getEnvInt("RECOGNITION_TIMEOUT_SECONDS", orInt(fc.Gemini.TimeoutSeconds, 30))) * time.Second,
		ImageMaxWidth:      getEnvInt("IMAGE_MAX_WIDTH", orInt(fc.Image.MaxWidth, 512)),
		ImageQuality:       getEnvInt("IMAGE_QUALITY", orInt(fc.Image.Quality, 50)),

		OFFBaseURL:     strings.TrimRight(getEnv("OFF_BASE_URL", or(fc.Barcode.BaseURL, DefaultOFFBaseURL)), "/"),
		BarcodeTimeout: time.Duration(getEnvInt("BARCODE_TIMEOUT_SECONDS", orInt(fc.Barcode.TimeoutSeconds, 20))) * time.Second,

		DataDir: dataDir,
		DBPath:  getEnv("DB_PATH", or(fc.DBPath, filepath.Join(dataDir, "foodlens.db"))),

		CatalogEnabled:       getEnvBool("CATALOG_ENABLED", fc.Catalog.Enabled),
		ParquetURL:           getEnv("PARQUET_URL", or(fc.Catalog.ParquetURL, DefaultParquetURL)),
		ParquetPath:          getEnv("PARQUET_PATH", or(fc.Catalog.ParquetPath, filepath.Join(dataDir, "product-database.parquet"))),
		MetadataPath:         getEnv("METADATA_PATH", filepath.Join(dataDir, "metadata.json")),
		LockFile:             getEnv("LOCK_FILE", filepath.Join(dataDir, "refresh.lock")),
		DisableRemoteCheck:   getEnvBool("DISABLE_REMOTE_CHECK", false),
		IgnoreLock:           getEnvBool("IGNORE_LOCK", false),
		RefreshIntervalHours: getEnvInt("REFRESH_INTERVAL_HOURS", 24),

		SNSTopicARN: getEnv("SNS_TOPIC_ARN", fc.SNS.TopicARN),
		AWSRegion:   getEnv("AWS_REGION", fc.SNS.Region),

		AuthToken: getEnv("AUTH_TOKEN", ""),
		Port:      getEnv("PORT", or(fc.Port, "8080")),
	}
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment reports whether ENV=development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// RefreshInterval returns the catalog refresh interval as a duration
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalHours) * time.Hour
}

// loadEnvFileWithReader applies .env values for keys that are not already set,
// so variables from the shell always take precedence
func loadEnvFileWithReader(reader FileReader) {
	if _, err := reader.Stat(".env"); err != nil {
		return
	}
	f, err := reader.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to parse .env: %v\n", err)
		return
	}
	for key, value := range values {
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}

func loadFileConfig(reader FileReader, path string) (*fileConfig, error) {
	f, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
	return &fc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
