package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	d := Defaults()
	assert.Equal(t, d.Provider, cfg.Provider)
	assert.Equal(t, StoreMemory, cfg.Store.Type)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Fetch.Attempts)
	assert.Equal(t, 120*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, 4096, cfg.MaxInputSize)
	assert.Zero(t, cfg.MaxListIndex)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", `
provider: openai
log_level: debug
openai:
  api_key: sk-file
  image_model: dall-e-2
store:
  type: redis
  redis:
    addr: cache:6379
    ttl: 2h
server:
  port: 9090
fetch:
  timeout: 30s
max_input_size: 1024
max_list_index: 32
`)

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-file", cfg.ActiveProvider().APIKey)
	assert.Equal(t, "dall-e-2", cfg.OpenAI.ImageModel)
	assert.Equal(t, StoreRedis, cfg.Store.Type)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock, "unset keys keep their defaults")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 1024, cfg.MaxInputSize)
	assert.Equal(t, 32, cfg.MaxListIndex)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("VIBECAM_STORE_TYPE", "file")
	t.Setenv("VIBECAM_STORE_DIR", "/tmp/sessions")
	t.Setenv("VIBECAM_SERVER_PORT", "7000")
	t.Setenv("VIBECAM_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "conventional-key")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, StoreFile, cfg.Store.Type)
	assert.Equal(t, "/tmp/sessions", cfg.Store.Dir)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "conventional-key", cfg.Gemini.APIKey)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Setenv("VIBECAM_OPENAI_API_KEY", "prefixed")
	t.Setenv("OPENAI_API_KEY", "conventional")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.OpenAI.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("VIBECAM_PROVIDER", "replicate")
	t.Setenv("VIBECAM_STORE_TYPE", "sqlite")
	t.Setenv("VIBECAM_LOG_LEVEL", "chatty")

	_, err := Load(NewViper(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "replicate"`)
	assert.Contains(t, err.Error(), `unknown store type "sqlite"`)
	assert.Contains(t, err.Error(), `unknown log level "chatty"`)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	cfg.Fetch.Attempts = 0
	cfg.Store = StoreConfig{Type: StoreFile}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "fetch.attempts")
	assert.Contains(t, err.Error(), "store.dir")
}

func TestValidate_Limits(t *testing.T) {
	cfg := Defaults()
	cfg.MaxInputSize = 0
	cfg.MaxListIndex = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_input_size")
	assert.Contains(t, err.Error(), "max_list_index")

	t.Setenv("VIBECAM_MAX_INPUT_SIZE", "10")
	loaded, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.MaxInputSize)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "VIBECAM_DOTENV_PROBE"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	path := writeFile(t, dir, ".env", key+"=from-dotenv\n")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
}

func TestLoadDotEnv_ExistingWins(t *testing.T) {
	const key = "VIBECAM_DOTENV_EXISTING"
	t.Setenv(key, "shell")

	path := writeFile(t, t.TempDir(), ".env", key+"=file\n")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "shell", os.Getenv(key))
}
