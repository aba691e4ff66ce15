package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "https://ollama.com/install.sh", cfg.InstallerURL)
	assert.Equal(t, "ollama", cfg.ServiceName)
	assert.Equal(t, 60*time.Second, cfg.KeepaliveInterval())
	assert.False(t, cfg.AllowNoGPU)
}

func TestYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ollama_base_url: http://10.0.0.5:11434
keepalive_seconds: 30
allow_no_gpu: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:11434", cfg.OllamaBaseURL)
	assert.Equal(t, 30*time.Second, cfg.KeepaliveInterval())
	assert.True(t, cfg.AllowNoGPU)
	// Untouched keys keep defaults.
	assert.Equal(t, "ollama", cfg.ServiceName)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.yaml")
	require.NoError(t, os.WriteFile(path, []byte("journal_path: from-file.db\n"), 0o644))

	t.Setenv("JOURNAL_PATH", "from-env.db")
	t.Setenv("KEEPALIVE_SECONDS", "15")
	t.Setenv("SKIP_MODELS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.JournalPath)
	assert.Equal(t, 15, cfg.KeepaliveSeconds)
	assert.True(t, cfg.SkipModels)
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("KEEPALIVE_SECONDS", "soon")
	t.Setenv("ALLOW_NO_GPU", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.KeepaliveSeconds)
	assert.False(t, cfg.AllowNoGPU)
}

func TestMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
