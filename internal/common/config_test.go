package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Queue.Concurrency)
	assert.Equal(t, 1500, cfg.Chunking.MaxChars)
	assert.Equal(t, "\n", cfg.Chunking.SplitTag)
	assert.Equal(t, "gemini", cfg.Embeddings.Provider)
	assert.Equal(t, 768, cfg.Embeddings.Dimension)
	assert.Equal(t, "badger", cfg.VectorStore.Provider)
	assert.Equal(t, 0.5, cfg.Evidence.VerifyThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFiles_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "citatum.toml")
	content := `
[server]
port = 9999

[chunking]
max_chars = 500

[embeddings]
dimension = 1536
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Chunking.MaxChars)
	assert.Equal(t, 1536, cfg.Embeddings.Dimension)
	// Untouched values keep defaults
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "badger", cfg.VectorStore.Provider)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.toml")
	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 1111\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 2222\n"), 0644))

	cfg, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 2222, cfg.Server.Port)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("CITATUM_SERVER_PORT", "7777")
	t.Setenv("CITATUM_QUEUE_CONCURRENCY", "5")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Queue.Concurrency)
}

func TestValidate_SoftTimeoutMustBeShorter(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Queue.SoftTimeout = "2h"
	cfg.Queue.VisibilityTimeout = "1h"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soft_timeout")
}

func TestValidate_RejectsBadDuration(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Embeddings.RateLimit = "not-a-duration"

	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownProviders(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Embeddings.Provider = "cohere"
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.VectorStore.Provider = "pinecone"
	assert.Error(t, cfg.Validate())
}

func TestDurationHelpers(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 60*time.Minute, cfg.VisibilityTimeout())
	assert.Equal(t, 55*time.Minute, cfg.SoftTimeout())
	assert.Equal(t, time.Second, cfg.PollInterval())

	// Fallbacks on bad values
	cfg.Queue.VisibilityTimeout = "garbage"
	cfg.Queue.SoftTimeout = ""
	cfg.Queue.PollInterval = "-5s"
	assert.Equal(t, time.Hour, cfg.VisibilityTimeout())
	assert.Equal(t, 55*time.Minute, cfg.SoftTimeout())
	assert.Equal(t, time.Second, cfg.PollInterval())
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 4321, "0.0.0.0")
	assert.Equal(t, 4321, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	ApplyFlagOverrides(cfg, 0, "")
	assert.Equal(t, 4321, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestIsProduction(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.IsProduction())

	cfg.Environment = "production"
	assert.True(t, cfg.IsProduction())

	cfg.Environment = "PROD"
	assert.True(t, cfg.IsProduction())
}
