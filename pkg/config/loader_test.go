package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	AppName string  `mapstructure:"app_name"`
	Logger  Logger  `mapstructure:"logger"`
	Crawl   Crawl   `mapstructure:"crawl"`
	Admins  Admins  `mapstructure:"admins"`
	Storage Storage `mapstructure:"storage"`
}

func (c *testConfig) Validate() error {
	if c.AppName == "" {
		return errors.New("app_name is required")
	}
	return nil
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_MergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defaults.yaml", `
app_name: giftscout
logger:
  level: info
crawl:
  limit_users: 20
  pace: 500ms
admins:
  ids: [1, 2]
`)
	writeFile(t, dir, "config.local.yaml", `
logger:
  level: debug
crawl:
  limit_users: 5
`)

	cfg, err := Load[testConfig](Options{
		Paths: []string{dir},
		Names: []string{"defaults", "config.local"},
	})
	require.NoError(t, err)

	assert.Equal(t, "giftscout", cfg.AppName)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.Crawl.LimitUsers)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawl.Pace)
	assert.Equal(t, []int64{1, 2}, cfg.Admins.IDs)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app_name: giftscout
storage:
  db_path: data/peers.db
`)
	t.Setenv("GSTEST_STORAGE_DB_PATH", "/tmp/other.db")

	cfg, err := Load[testConfig](Options{
		Paths:     []string{dir},
		Names:     []string{"config"},
		EnvPrefix: "GSTEST",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.DBPath)
}

func TestLoad_DotEnvFeedsEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "app_name: from-file\n")
	writeFile(t, dir, ".env", "GSDOT_APP_NAME=from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("GSDOT_APP_NAME") })

	cfg, err := Load[testConfig](Options{
		Paths:     []string{dir},
		Names:     []string{"config"},
		EnvPrefix: "GSDOT",
		DotEnv:    []string{filepath.Join(dir, ".env"), filepath.Join(dir, "missing.env")},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.AppName)
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Load[testConfig](Options{Paths: []string{dir}, Names: []string{"nope"}})
	require.Error(t, err)

	_, err = Load[testConfig](Options{Paths: []string{dir}, Names: []string{"nope"}, OptionalFiles: true})
	require.Error(t, err, "validation must still run")
	assert.Contains(t, err.Error(), "app_name is required")
}

func TestBlocks_Validate(t *testing.T) {
	t.Run("crawl", func(t *testing.T) {
		c := Crawl{LimitUsers: 20, MessageScanCap: 3000, HistoryPage: 100, GiftPage: 100, Pace: time.Second, ChunkLimit: 4000}
		require.NoError(t, c.Validate())

		c.HistoryPage = 101
		require.Error(t, c.Validate())
	})

	t.Run("admins drops zero ids", func(t *testing.T) {
		a := Admins{IDs: []int64{0, 42, 0}}
		require.NoError(t, a.Validate())
		assert.Equal(t, []int64{42}, a.IDs)
		assert.True(t, a.Has(42))
		assert.False(t, a.Has(7))

		empty := Admins{}
		require.Error(t, empty.Validate())
	})

	t.Run("logger level", func(t *testing.T) {
		l := Logger{Level: "verbose"}
		require.Error(t, l.Validate())
		l.Level = "WARN"
		require.NoError(t, l.Validate())
	})
}
