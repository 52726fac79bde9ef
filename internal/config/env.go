package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by the object client factory.
const (
	DriverS3     = "s3"
	DriverMinio  = "minio"
	DriverMemory = "memory"
)

// Generator providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port string

	StoreDriver       string
	BucketEndpoint    string
	BucketRegion      string
	BucketKey         string
	BucketSecret      string
	BucketName        string
	BucketFolder      string
	BucketCDNEndpoint string
	BucketUseSSL      bool

	ImageRetention time.Duration
	CleanupTimeout time.Duration
	CleanOnStartup bool
	FetchTimeout   time.Duration
	MaxSourceBytes int64
	MaxPixels      int64
	BatchMax       int
	BatchParallel  int

	GeneratorProvider string
	GeneratorPrompt   string
	OpenAIAPIKey      string
	OpenAIImageModel  string
	GeminiAPIKey      string
	GeminiImageModel  string

	CORSOrigins      []string
	LogLevel         string
	MetricsNamespace string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "3000"),

		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverS3)),
		BucketEndpoint:    getEnv("BUCKET_ENDPOINT", ""),
		BucketRegion:      getEnv("BUCKET_REGION", "fra1"),
		BucketKey:         getEnv("BUCKET_KEY", ""),
		BucketSecret:      getEnv("BUCKET_SECRET", ""),
		BucketName:        getEnv("BUCKET_NAME", ""),
		BucketFolder:      strings.Trim(getEnv("BUCKET_FOLDER", "baboons"), "/"),
		BucketCDNEndpoint: strings.TrimRight(getEnv("BUCKET_CDN_ENDPOINT", ""), "/"),
		BucketUseSSL:      getEnvBool("BUCKET_USE_SSL", true),

		ImageRetention: getEnvDuration("IMAGE_RETENTION_LIFESPAN", 10*time.Second),
		CleanupTimeout: getEnvDuration("CLEANUP_TIMEOUT", 30*time.Second),
		CleanOnStartup: getEnvBool("CLEAN_ON_STARTUP", true),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxSourceBytes: int64(getEnvInt("MAX_SOURCE_BYTES", 25<<20)),
		MaxPixels:      int64(getEnvInt("MAX_SOURCE_PIXELS", 40_000_000)),
		BatchMax:       getEnvInt("BATCH_MAX_QUANTITY", 20),
		BatchParallel:  getEnvInt("BATCH_PARALLELISM", 4),

		GeneratorProvider: strings.ToLower(getEnv("GENERATOR_PROVIDER", ProviderOpenAI)),
		GeneratorPrompt:   getEnv("GENERATOR_PROMPT", "A realistic photograph of a baboon in the wild, full body, natural light"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIImageModel:  getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation"),

		CORSOrigins:      getEnvList("CORS_ORIGINS", []string{"*"}),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "baboon"),
	}

	return cfg
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverS3, DriverMinio:
		// s3 falls back to the AWS endpoint for the region
		if c.StoreDriver == DriverMinio && c.BucketEndpoint == "" {
			return fmt.Errorf("BUCKET_ENDPOINT not set")
		}
		if c.BucketKey == "" || c.BucketSecret == "" {
			return fmt.Errorf("bucket credentials not set")
		}
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME not set")
		}
		if c.BucketCDNEndpoint == "" {
			return fmt.Errorf("BUCKET_CDN_ENDPOINT not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.GeneratorProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown GENERATOR_PROVIDER %q", c.GeneratorProvider)
	}

	if c.ImageRetention <= 0 {
		return fmt.Errorf("IMAGE_RETENTION_LIFESPAN must be positive")
	}
	if c.BatchMax < 1 {
		return fmt.Errorf("BATCH_MAX_QUANTITY must be at least 1")
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.ReplaceAll(v, "_", ""))
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("10s", "1m30s") as well as bare
// milliseconds ("10000", "10_000").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	if ms, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
