package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeEnvFile(t, "MONGODB_URI=mongodb://localhost:27017\n")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8002, cfg.ServerPort)
	assert.Equal(t, "sparrow", cfg.Mongo.Database)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, 60, cfg.Redis.TrackingTTLSeconds)
	assert.Equal(t, "https://notification-service.vercel.app", cfg.Notifications.ServiceURL)
}

func TestLoad_MissingRequired(t *testing.T) {
	dir := writeEnvFile(t, "APP_ENV=production\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")
}

func TestLoad_OverridesFromFile(t *testing.T) {
	dir := writeEnvFile(t,
		"MONGODB_URI=mongodb://db:27017\n"+
			"MONGODB_DATABASE=sparrow_test\n"+
			"PORT=9000\n"+
			"NOTIFICATION_SERVICE_URL=http://notifications.local\n"+
			"TRACKING_CACHE_TTL_SECONDS=5\n")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "sparrow_test", cfg.Mongo.Database)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "http://notifications.local", cfg.Notifications.ServiceURL)
	assert.Equal(t, 5, cfg.Redis.TrackingTTLSeconds)
}

func TestLoad_NoEnvFile(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://env:27017")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI)
}
