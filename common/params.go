package common

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	CacheBackendSqlite = "sqlite"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

type Params struct {
	logLevel          string
	cacheBackend      string
	cacheDb           string
	redisAddr         string
	redisPassword     string
	workers           int
	queueSize         int
	replyBarSize      int
	retinaFactor      int
	maxDecodeFailures int
	s3Bucket          string
	s3Region          string
	s3Endpoint        string
	metricsAddr       string
	timeout           time.Duration
	rootPath          string
}

func NewEmptyParams() *Params {
	return &Params{
		logLevel:          "INFO",
		cacheBackend:      CacheBackendNone,
		workers:           1,
		queueSize:         1,
		replyBarSize:      36,
		retinaFactor:      1,
		maxDecodeFailures: 3,
		timeout:           10 * time.Second,
	}
}

// ParseParams reads an optional .env file and then the command line. Values
// from the environment only change the flag defaults.
func ParseParams() (*Params, error) {
	_ = godotenv.Load()
	return parseParams(flag.CommandLine, os.Args[1:])
}

// ParseParamsFrom parses args without touching the process wide flags.
func ParseParamsFrom(args []string) (*Params, error) {
	flags := flag.NewFlagSet("media-preview", flag.ContinueOnError)
	return parseParams(flags, args)
}

func parseParams(flags *flag.FlagSet, args []string) (*Params, error) {
	logLevel := flags.String("logLevel", getEnv("LOG_LEVEL", "INFO"), "Log level: ERROR, WARN, INFO, DEBUG, Trace")
	cacheBackend := flags.String("cacheBackend", getEnv("CACHE_BACKEND", CacheBackendSqlite), "Persistent image cache: sqlite, redis or none")
	cacheDb := flags.String("cacheDb", getEnv("CACHE_DB", ""), "SQLite cache file. Empty keeps the cache in memory")
	redisAddr := flags.String("redisAddr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis address when cacheBackend is redis")
	workers := flags.Int("workers", getEnvInt("LOADER_WORKERS", 4), "Number of concurrent loads")
	queueSize := flags.Int("queueSize", getEnvInt("LOADER_QUEUE_SIZE", 64), "Loader request queue size")
	replyBarSize := flags.Int("replyBarSize", getEnvInt("REPLY_BAR_SIZE", 36), "Reply preview edge in logical pixels")
	retinaFactor := flags.Int("retinaFactor", getEnvInt("RETINA_FACTOR", 1), "Device pixel ratio")
	maxDecodeFailures := flags.Int("maxDecodeFailures", getEnvInt("MAX_DECODE_FAILURES", 3), "Load failures before a source gives up")
	s3Bucket := flags.String("s3Bucket", getEnv("S3_BUCKET", ""), "Fetch unregistered locations from this S3 bucket")
	s3Region := flags.String("s3Region", getEnv("S3_REGION", "us-east-1"), "S3 region")
	s3Endpoint := flags.String("s3Endpoint", getEnv("S3_ENDPOINT", ""), "Custom S3 endpoint, e.g. MinIO")
	metricsAddr := flags.String("metricsAddr", getEnv("METRICS_ADDR", ""), "Serve Prometheus metrics on this address")
	timeout := flags.Duration("timeout", getEnvDuration("TIMEOUT", 10*time.Second), "How long to wait for previews")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	params := &Params{
		logLevel:          *logLevel,
		cacheBackend:      *cacheBackend,
		cacheDb:           *cacheDb,
		redisAddr:         *redisAddr,
		redisPassword:     os.Getenv("REDIS_PASSWORD"),
		workers:           *workers,
		queueSize:         *queueSize,
		replyBarSize:      *replyBarSize,
		retinaFactor:      *retinaFactor,
		maxDecodeFailures: *maxDecodeFailures,
		s3Bucket:          *s3Bucket,
		s3Region:          *s3Region,
		s3Endpoint:        *s3Endpoint,
		metricsAddr:       *metricsAddr,
		timeout:           *timeout,
		rootPath:          flags.Arg(0),
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *Params) validate() error {
	switch s.cacheBackend {
	case CacheBackendSqlite, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("invalid cache backend '%s'", s.cacheBackend)
	}
	if s.workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.workers)
	}
	if s.queueSize < 1 {
		return fmt.Errorf("queueSize must be at least 1, got %d", s.queueSize)
	}
	if s.replyBarSize < 1 {
		return fmt.Errorf("replyBarSize must be at least 1, got %d", s.replyBarSize)
	}
	if s.retinaFactor < 1 {
		return fmt.Errorf("retinaFactor must be at least 1, got %d", s.retinaFactor)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func (s *Params) GetLogLevel() string {
	return s.logLevel
}

func (s *Params) GetCacheBackend() string {
	return s.cacheBackend
}

func (s *Params) GetCacheDb() string {
	return s.cacheDb
}

func (s *Params) GetRedisAddr() string {
	return s.redisAddr
}

func (s *Params) GetRedisPassword() string {
	return s.redisPassword
}

func (s *Params) GetWorkers() int {
	return s.workers
}

func (s *Params) GetQueueSize() int {
	return s.queueSize
}

func (s *Params) GetReplyBarSize() int {
	return s.replyBarSize
}

func (s *Params) GetRetinaFactor() int {
	return s.retinaFactor
}

func (s *Params) GetMaxDecodeFailures() int {
	return s.maxDecodeFailures
}

func (s *Params) GetS3Bucket() string {
	return s.s3Bucket
}

func (s *Params) GetS3Region() string {
	return s.s3Region
}

func (s *Params) GetS3Endpoint() string {
	return s.s3Endpoint
}

func (s *Params) GetMetricsAddr() string {
	return s.metricsAddr
}

func (s *Params) GetTimeout() time.Duration {
	return s.timeout
}

func (s *Params) GetRootPath() string {
	return s.rootPath
}
