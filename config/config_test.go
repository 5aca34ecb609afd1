package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		S3:      S3Config{Bucket: "venue-datasets"},
		Dataset: DatasetConfig{Source: DatasetSourceFile, FilePath: "data/venues.json", S3Key: "datasets/venues.json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"file source", func(c *Config) {}, false},
		{"file source without path", func(c *Config) { c.Dataset.FilePath = "" }, true},
		{"s3 source", func(c *Config) { c.Dataset.Source = DatasetSourceS3 }, false},
		{"s3 source without bucket", func(c *Config) {
			c.Dataset.Source = DatasetSourceS3
			c.S3.Bucket = ""
		}, true},
		{"database source", func(c *Config) { c.Dataset.Source = DatasetSourceDatabase }, false},
		{"unknown source", func(c *Config) { c.Dataset.Source = "ftp" }, true},
		{"cache without redis", func(c *Config) { c.Dataset.CacheTTL = time.Minute }, true},
		{"cache with redis", func(c *Config) {
			c.Dataset.CacheTTL = time.Minute
			c.Redis.Enabled = true
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATASET_SOURCE", "database")
	t.Setenv("SEARCH_COMBINE_MODES", "true")
	t.Setenv("COMPARISON_SESSION_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("RELOAD_RATE_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DatasetSourceDatabase, cfg.Dataset.Source)
	assert.True(t, cfg.Search.CombineModes)
	assert.Equal(t, 2*time.Hour, cfg.Comparison.SessionTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 6, cfg.RateLimit.ReloadPerMinute)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "first")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "venues", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=venues sslmode=disable", db.DSN())

	r := RedisConfig{Host: "cache", Port: "6380"}
	assert.Equal(t, "cache:6380", r.Addr())
}
