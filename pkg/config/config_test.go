package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "demo-project")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, BackendRealtimeDatabase, cfg.DatabaseBackend)
	assert.Equal(t, time.Second, cfg.DatabasePollInterval)
	assert.Equal(t, int64(1024*1024), cfg.StorageDownloadMaxSize)
	assert.False(t, cfg.RevokeOnSignOut)
	assert.Nil(t, cfg.StorageCORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "demo-project")
	t.Setenv("DATABASE_BACKEND", "Firestore")
	t.Setenv("DATABASE_POLL_INTERVAL", "250ms")
	t.Setenv("STORAGE_DOWNLOAD_MAX_SIZE", "2048")
	t.Setenv("STORAGE_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REVOKE_ON_SIGN_OUT", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendFirestore, cfg.DatabaseBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.DatabasePollInterval)
	assert.Equal(t, int64(2048), cfg.StorageDownloadMaxSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.StorageCORSOrigins)
	assert.True(t, cfg.RevokeOnSignOut)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing project", map[string]string{"FIREBASE_PROJECT_ID": ""}},
		{"unknown backend", map[string]string{"FIREBASE_PROJECT_ID": "p", "DATABASE_BACKEND": "mongo"}},
		{"zero interval", map[string]string{"FIREBASE_PROJECT_ID": "p", "DATABASE_POLL_INTERVAL": "0s"}},
		{"negative max size", map[string]string{"FIREBASE_PROJECT_ID": "p", "STORAGE_DOWNLOAD_MAX_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
