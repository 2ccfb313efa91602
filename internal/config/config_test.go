package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:5000/api", cfg.Server.APIURL)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Server.SocketURL)
	assert.Equal(t, 20, cfg.Chat.HistoryLimit)
	assert.Empty(t, cfg.Server.Token)
	assert.Empty(t, cfg.Cache.RedisURL)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Server.APIURL = "https://api.example.com/api"
	cfg.Server.Token = "tok-123"
	cfg.Server.UserID = "user-9"
	cfg.Chat.HistoryLimit = 50
	cfg.Cache.RedisURL = "localhost:6379"
	cfg.Cache.RedisDB = 2

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")
	require.NoError(t, Save(DefaultConfig(), path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"token": "abc"}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Server.Token)
	assert.Equal(t, "http://localhost:5000/api", cfg.Server.APIURL, "unset fields keep defaults")
	assert.Equal(t, 20, cfg.Chat.HistoryLimit)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_JSONUsesCamelCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Server.UserID = "u1"
	cfg.Cache.RedisPassword = "secret"
	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"apiUrl"`)
	assert.Contains(t, string(data), `"socketUrl"`)
	assert.Contains(t, string(data), `"userId"`)
	assert.Contains(t, string(data), `"historyLimit"`)
	assert.Contains(t, string(data), `"redisPassword"`)
}
