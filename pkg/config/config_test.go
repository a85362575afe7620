package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, DefaultMaxUploadBytes, cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, "/uploads/assignments", cfg.Uploads.PublicPrefix)
	assert.Contains(t, cfg.Uploads.AllowedMIMEs, "application/pdf")
	assert.Contains(t, cfg.Uploads.AllowedMIMEs, "text/plain")
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("UPLOADS_MAX_FILE_SIZE", 0)
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	v.Set("UPLOADS_PUBLIC_PREFIX", "/files/")

	cfg := fromViper(v)

	assert.Equal(t, DefaultMaxUploadBytes, cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "/files", cfg.Uploads.PublicPrefix)
}

func TestSplitAndTrimEmpty(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
}
