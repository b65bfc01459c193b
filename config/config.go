package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageFS     = "fs"
	StorageS3     = "s3"
	StorageMemory = "memory"

	DetectorRemote = "remote"
	DetectorGoCV   = "gocv"
)

type Config struct {
	AppEnv   string `validate:"required"`
	LogLevel string `validate:"required,oneof=trace debug info warn warning error"`
	LogFile  string

	HTTPPort       string  `validate:"required,numeric"`
	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"gt=0"`

	TelegramToken string

	MaxUploadSize  int64  `validate:"gt=0"`
	StorageBackend string `validate:"required,oneof=fs s3 memory"`
	UploadDir      string `validate:"required_if=StorageBackend fs"`

	AWSRegion          string `validate:"required_if=StorageBackend s3"`
	AWSBucketName      string `validate:"required_if=StorageBackend s3"`
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSPrefix          string

	DetectorBackend     string `validate:"required,oneof=remote gocv"`
	InferenceURL        string `validate:"required_if=DetectorBackend remote"`
	ModelPath           string `validate:"required_if=DetectorBackend gocv"`
	ModelConfigPath     string
	LabelsPath          string
	DetectTimeout       time.Duration
	DetectorConcurrency int     `validate:"gte=1"`
	MinScore            float64 `validate:"gte=0,lte=1"`

	BoxColor    string `validate:"required,hexcolor"`
	StrokeWidth int    `validate:"gte=1"`
}

// Load читает .env (если есть) и переменные окружения, затем проверяет значения.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		StorageBackend:     getEnv("STORAGE_BACKEND", StorageFS),
		UploadDir:          getEnv("UPLOAD_DIR", "static/uploads"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSBucketName:      os.Getenv("AWS_BUCKET_NAME"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSPrefix:          os.Getenv("AWS_PREFIX"),

		DetectorBackend: getEnv("DETECTOR_BACKEND", DetectorRemote),
		InferenceURL:    getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		ModelPath:       os.Getenv("MODEL_PATH"),
		ModelConfigPath: os.Getenv("MODEL_CONFIG_PATH"),
		LabelsPath:      os.Getenv("LABELS_PATH"),

		BoxColor: getEnv("BOX_COLOR", "#ff0000"),
	}

	var err error
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSize, err = getInt64("MAX_UPLOAD_SIZE", 16<<20); err != nil {
		return nil, err
	}
	if cfg.DetectTimeout, err = getDuration("DETECT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DetectorConcurrency, err = getInt("DETECTOR_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.MinScore, err = getFloat("MIN_SCORE", 0); err != nil {
		return nil, err
	}
	if cfg.StrokeWidth, err = getInt("STROKE_WIDTH", 2); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию по тегам validate
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
