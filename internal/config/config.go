package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	DetectorOpenCV = "opencv"
	DetectorDlib   = "dlib"
	DetectorRemote = "remote"
)

type Config struct {
	HTTPAddr    string
	MaxFileSize int64
	LogLevel    string
	LogFormat   string
	Storage     StorageConfig
	Detector    DetectorConfig
}

type StorageConfig struct {
	Backend string
	Dir     string
	S3      S3Config
}

type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	UsePathStyle bool
}

type DetectorConfig struct {
	Backend      string
	ModelPath    string
	ModelConfig  string
	LabelsPath   string
	CascadePath  string
	DlibModelDir string
	InferenceURL string
	Timeout      time.Duration
	TopK         int
	TargetLabel  string
}

// LoadEnvFile seeds the process environment from a dotenv file. Variables
// already set in the environment win. A missing default .env is not an error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	maxFileSize, err := strconv.ParseInt(getEnv("VISION_MAX_FILE_SIZE", "16777216"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_MAX_FILE_SIZE: %w", err)
	}

	topK, err := strconv.Atoi(getEnv("VISION_TOP_K", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_TOP_K: %w", err)
	}
	if topK < 1 {
		return nil, fmt.Errorf("invalid VISION_TOP_K: must be positive, got %d", topK)
	}

	timeout, err := time.ParseDuration(getEnv("VISION_INFERENCE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_INFERENCE_TIMEOUT: %w", err)
	}

	usePathStyle, err := strconv.ParseBool(getEnv("VISION_S3_USE_PATH_STYLE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid VISION_S3_USE_PATH_STYLE: %w", err)
	}

	cfg := &Config{
		HTTPAddr:    getEnv("VISION_HTTP_ADDR", ":5000"),
		MaxFileSize: maxFileSize,
		LogLevel:    getEnv("VISION_LOG_LEVEL", "info"),
		LogFormat:   getEnv("VISION_LOG_FORMAT", "json"),
		Storage: StorageConfig{
			Backend: getEnv("VISION_STORAGE", StorageLocal),
			Dir:     getEnv("VISION_UPLOAD_DIR", "uploads"),
			S3: S3Config{
				Bucket:       getEnv("VISION_S3_BUCKET", ""),
				Prefix:       getEnv("VISION_S3_PREFIX", "uploads/"),
				Region:       getEnv("VISION_S3_REGION", ""),
				Endpoint:     getEnv("VISION_S3_ENDPOINT", ""),
				UsePathStyle: usePathStyle,
			},
		},
		Detector: DetectorConfig{
			Backend:      getEnv("VISION_DETECTOR", DetectorOpenCV),
			ModelPath:    getEnv("VISION_MODEL_PATH", "models/mobilenet_v2.onnx"),
			ModelConfig:  getEnv("VISION_MODEL_CONFIG", ""),
			LabelsPath:   getEnv("VISION_LABELS_PATH", "models/imagenet_class_index.json"),
			CascadePath:  getEnv("VISION_CASCADE_PATH", "models/haarcascade_frontalface_default.xml"),
			DlibModelDir: getEnv("VISION_DLIB_MODEL_DIR", "models/dlib"),
			InferenceURL: getEnv("VISION_INFERENCE_URL", "http://localhost:8500"),
			Timeout:      timeout,
			TopK:         topK,
			TargetLabel:  getEnv("VISION_TARGET_LABEL", "car"),
		},
	}

	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.Dir == "" {
			return errors.New("upload directory must not be empty")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("VISION_S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Detector.Backend {
	case DetectorOpenCV, DetectorDlib, DetectorRemote:
	default:
		return fmt.Errorf("unknown detector backend %q", c.Detector.Backend)
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
