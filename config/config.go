package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type Config struct {
	Address       string
	ModelPath     string
	ModelInfoPath string
	UploadDir     string
	MaxUploadMB   int
	Release       bool
	LogLevel      string

	RedisAddress        string
	RedisMaxConnections int
	ResultTTL           time.Duration

	SentryDSN      string
	OnnxRuntimeLib string
	MaxQueueSize   int
	Statistics     datastructures.Statistics
}

// DefaultStatistics are the figures shown on the statistics page.
var DefaultStatistics = datastructures.Statistics{
	TotalScans:     12543,
	PneumoniaCases: 3247,
	NormalCases:    9296,
	Accuracy:       94.2,
	Precision:      92.8,
	Recall:         95.1,
}

// Load reads an optional .env file and then the process environment.
// Command line flags registered with RegisterFlags override the result.
func Load(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug("[Config] No .env file found, using system environment variables")
	}

	return &Config{
		Address:             getEnv("ADDR", ":5000"),
		ModelPath:           getEnv("MODEL_PATH", "pneumonia_detection_cnn.pb"),
		ModelInfoPath:       getEnv("MODEL_INFO_PATH", "pneumonia_model_info.json"),
		UploadDir:           getEnv("UPLOAD_DIR", "static/uploads/"),
		MaxUploadMB:         getEnvInt("MAX_UPLOAD_MB", 16),
		Release:             getEnvBool("RELEASE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisAddress:        getEnv("REDIS_ADDRESS", ""),
		RedisMaxConnections: getEnvInt("REDIS_MAX_CONNECTIONS", 10),
		ResultTTL:           time.Duration(getEnvInt("RESULT_TTL_SECONDS", 3600)) * time.Second,
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		OnnxRuntimeLib:      getEnv("ONNXRUNTIME_LIB", ""),
		MaxQueueSize:        getEnvInt("MAX_QUEUE_SIZE", 100),
		Statistics:          DefaultStatistics,
	}
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Address, "addr", c.Address, "Address the HTTP server listens on")
	fs.StringVar(&c.ModelPath, "model", c.ModelPath, "Path to the model (.pb, SavedModel dir or .onnx)")
	fs.StringVar(&c.ModelInfoPath, "model-info", c.ModelInfoPath, "Path to the model metadata (.json or .yaml)")
	fs.StringVar(&c.UploadDir, "upload-dir", c.UploadDir, "Directory uploaded images are saved to")
	fs.IntVar(&c.MaxUploadMB, "max-upload-mb", c.MaxUploadMB, "Maximum request body size in MiB")
	fs.BoolVar(&c.Release, "release", c.Release, "Run gin in release mode")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.RedisAddress, "redis-address", c.RedisAddress, "Address of the Redis server used to cache results (empty disables the cache)")
	fs.IntVar(&c.RedisMaxConnections, "redis-max-connections", c.RedisMaxConnections, "Max connections to Redis")
	fs.DurationVar(&c.ResultTTL, "result-ttl", c.ResultTTL, "How long cached results are kept")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", c.SentryDSN, "Sentry DSN for crash reports")
	fs.StringVar(&c.OnnxRuntimeLib, "onnxruntime-lib", c.OnnxRuntimeLib, "Path to the onnxruntime shared library")
	fs.IntVar(&c.MaxQueueSize, "max-queue-size", c.MaxQueueSize, "The size of the prediction job queue")
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return defaultVal
}
