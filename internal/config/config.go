package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

const defaultConfigPath = "config.yaml"

// Storage drivers for recipe images.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds application level configuration.
// Values are layered: defaults, then config.yaml, then environment variables.
type Config struct {
	ServerPort  string `koanf:"server_port"`
	MySQLDSN    string `koanf:"mysql_dsn"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	RedisPass   string `koanf:"redis_password"`
	JWTSecret   string `koanf:"jwt_secret"`
	SwaggerHost string `koanf:"swagger_host"`
	ResetDB     bool   `koanf:"reset_db"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	StorageDriver string `koanf:"storage_driver"`
	MediaRoot     string `koanf:"media_root"`
	MediaURL      string `koanf:"media_url"`
	S3Bucket      string `koanf:"s3_bucket"`
	S3Region      string `koanf:"s3_region"`
	S3Endpoint    string `koanf:"s3_endpoint"`
	S3AccessKey   string `koanf:"s3_access_key"`
	S3SecretKey   string `koanf:"s3_secret_key"`
	S3PublicURL   string `koanf:"s3_public_url"`

	PageSize      int     `koanf:"page_size"`
	RecipesLimit  int     `koanf:"recipes_limit"`
	MaxImageWidth int     `koanf:"max_image_width"`
	RateLimit     float64 `koanf:"rate_limit"`

	// PDFFont optionally replaces the bundled DejaVu font of shopping list PDFs.
	PDFFont string `koanf:"pdf_font"`
}

func defaults() Config {
	return Config{
		ServerPort:    "8080",
		MySQLDSN:      "user:password@tcp(localhost:3306)/foodgram?charset=utf8mb4&parseTime=True&loc=Local",
		RedisAddr:     "localhost:6379",
		RedisDB:       0,
		JWTSecret:     "change-me",
		LogLevel:      "info",
		LogFormat:     "json",
		StorageDriver: StorageLocal,
		MediaRoot:     "media",
		MediaURL:      "/media/",
		S3Region:      "us-east-1",
		PageSize:      6,
		RecipesLimit:  3,
		MaxImageWidth: 1280,
		RateLimit:     20,
	}
}

// Load builds Config from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	// .env is a convenience for local runs; its absence is not an error.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := configPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret must not be empty"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.RecipesLimit < 0 {
		errs = append(errs, fmt.Errorf("recipes_limit must not be negative, got %d", c.RecipesLimit))
	}
	switch c.StorageDriver {
	case StorageLocal:
		if c.MediaRoot == "" {
			errs = append(errs, errors.New("media_root is required for local storage"))
		}
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3_bucket is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage_driver %q", c.StorageDriver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func configPath() string {
	path := os.Getenv(ConfigPathEnvVar)
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
