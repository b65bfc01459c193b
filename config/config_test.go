package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FILE", "HTTP_PORT", "TELEGRAM_TOKEN", "STORAGE_BACKEND", "UPLOAD_DIR",
		"AWS_REGION", "AWS_BUCKET_NAME", "DETECTOR_BACKEND", "INFERENCE_URL", "MODEL_PATH",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_UPLOAD_SIZE", "DETECT_TIMEOUT",
		"DETECTOR_CONCURRENCY", "MIN_SCORE", "STROKE_WIDTH", "BOX_COLOR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, int64(16<<20), cfg.MaxUploadSize)
	require.Equal(t, StorageFS, cfg.StorageBackend)
	require.Equal(t, "static/uploads", cfg.UploadDir)
	require.Equal(t, DetectorRemote, cfg.DetectorBackend)
	require.Equal(t, "http://localhost:5000/predict", cfg.InferenceURL)
	require.Equal(t, 30*time.Second, cfg.DetectTimeout)
	require.Equal(t, 1, cfg.DetectorConcurrency)
	require.Equal(t, "#ff0000", cfg.BoxColor)
	require.Equal(t, 2, cfg.StrokeWidth)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("DETECT_TIMEOUT", "5s")
	t.Setenv("DETECTOR_CONCURRENCY", "4")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("MIN_SCORE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(1024), cfg.MaxUploadSize)
	require.Equal(t, 5*time.Second, cfg.DetectTimeout)
	require.Equal(t, 4, cfg.DetectorConcurrency)
	require.Equal(t, StorageMemory, cfg.StorageBackend)
	require.Equal(t, 0.25, cfg.MinScore)
}

func TestLoad_Invalid(t *testing.T) {
	for key, val := range map[string]string{
		"STORAGE_BACKEND":      "ftp",
		"DETECTOR_BACKEND":     "magic",
		"MAX_UPLOAD_SIZE":      "-1",
		"DETECT_TIMEOUT":       "soon",
		"DETECTOR_CONCURRENCY": "0",
		"BOX_COLOR":            "red",
		"MIN_SCORE":            "2",
		"HTTP_PORT":            "http",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "s3")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_BUCKET_NAME", "uploads")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "uploads", cfg.AWSBucketName)
}

func TestLoad_GoCVRequiresModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("DETECTOR_BACKEND", "gocv")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("MODEL_PATH", "models/ssd.pb")
	_, err = Load()
	require.NoError(t, err)
}
