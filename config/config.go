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

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	S3         S3Config
	Dataset    DatasetConfig
	Search     SearchConfig
	Comparison ComparisonConfig
	Scheduler  SchedulerConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogFormat   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// DatasetSource names where venue records are read from.
type DatasetSource string

const (
	DatasetSourceFile     DatasetSource = "file"
	DatasetSourceS3       DatasetSource = "s3"
	DatasetSourceDatabase DatasetSource = "database"
)

type DatasetConfig struct {
	Source   DatasetSource
	FilePath string
	S3Key    string
	CacheTTL time.Duration // 0 disables the Redis dataset cache
}

type SearchConfig struct {
	// CombineModes ANDs free text onto the faceted result instead of
	// ignoring it while any facet is active.
	CombineModes bool
}

type ComparisonConfig struct {
	SessionTTL time.Duration
}

type SchedulerConfig struct {
	ReloadSpec string // cron expression, empty disables periodic reload
}

type RateLimitConfig struct {
	ReloadPerMinute int
	ReloadBurst     int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "venues"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns: parseInt(getEnv("DB_MAX_IDLE_CONNS", "5"), 5),
			MaxOpenConns: parseInt(getEnv("DB_MAX_OPEN_CONNS", "20"), 20),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "venue-datasets"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Dataset: DatasetConfig{
			Source:   DatasetSource(getEnv("DATASET_SOURCE", string(DatasetSourceFile))),
			FilePath: getEnv("DATASET_FILE", "data/venues.json"),
			S3Key:    getEnv("DATASET_S3_KEY", "datasets/venues.json"),
			CacheTTL: parseDuration(getEnv("DATASET_CACHE_TTL", "0s"), 0),
		},
		Search: SearchConfig{
			CombineModes: parseBool(getEnv("SEARCH_COMBINE_MODES", "false")),
		},
		Comparison: ComparisonConfig{
			SessionTTL: parseDuration(getEnv("COMPARISON_SESSION_TTL", "24h"), 24*time.Hour),
		},
		Scheduler: SchedulerConfig{
			ReloadSpec: getEnv("DATASET_RELOAD_CRON", ""),
		},
		RateLimit: RateLimitConfig{
			ReloadPerMinute: parseInt(getEnv("RELOAD_RATE_PER_MINUTE", "6"), 6),
			ReloadBurst:     parseInt(getEnv("RELOAD_RATE_BURST", "2"), 2),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Dataset.Source {
	case DatasetSourceFile:
		if c.Dataset.FilePath == "" {
			return fmt.Errorf("DATASET_FILE is required when DATASET_SOURCE=file")
		}
	case DatasetSourceS3:
		if c.S3.Bucket == "" || c.Dataset.S3Key == "" {
			return fmt.Errorf("AWS_S3_BUCKET and DATASET_S3_KEY are required when DATASET_SOURCE=s3")
		}
	case DatasetSourceDatabase:
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q", c.Dataset.Source)
	}
	if c.Dataset.CacheTTL > 0 && !c.Redis.Enabled {
		return fmt.Errorf("DATASET_CACHE_TTL requires REDIS_ENABLED=true")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
