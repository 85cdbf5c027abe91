package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BUCKET", "capstone-bucket")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageDriverS3, cfg.StorageDriver)
	assert.Equal(t, "images", cfg.ImageFolder)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.SweepGracePeriod)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "MINIO")
	t.Setenv("STORAGE_BUCKET", "wishes")
	t.Setenv("STORAGE_USE_SSL", "false")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("SWEEP_GRACE_PERIOD", "15m")
	t.Setenv("SWEEP_ENABLED", "not-a-bool")

	cfg := LoadConfig()

	assert.Equal(t, StorageDriverMinio, cfg.StorageDriver)
	assert.False(t, cfg.StorageUseSSL)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.SweepGracePeriod)
	assert.True(t, cfg.SweepEnabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:      "secret",
		StorageDriver:  StorageDriverS3,
		StorageBucket:  "bucket",
		ImageFolder:    "images",
		MaxUploadBytes: 1 << 20,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "missing bucket", mutate: func(c *Config) { c.StorageBucket = "" }, wantErr: "STORAGE_BUCKET"},
		{name: "memory without bucket", mutate: func(c *Config) {
			c.StorageDriver = StorageDriverMemory
			c.StorageBucket = ""
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "ftp" }, wantErr: "unknown STORAGE_DRIVER"},
		{name: "empty folder", mutate: func(c *Config) { c.ImageFolder = "/" }, wantErr: "IMAGE_FOLDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
