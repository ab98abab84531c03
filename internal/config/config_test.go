package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/itemd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "./data", cfg.Database.URI)
	assert.Equal(t, "appdb", cfg.Database.Name)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Database.OperationTimeout)
	assert.Equal(t, 50, cfg.Database.PoolSize)
	assert.Equal(t, 24*time.Hour, cfg.Database.Retention)
	assert.Equal(t, time.Minute, cfg.Database.ReapInterval)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)

	opts := cfg.DatabaseOptions()
	assert.Equal(t, filepath.Join("data", "appdb.db"), opts.Filename())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()

	filename := filepath.Join(dir, "itemd.yml")
	err := os.WriteFile(filename, []byte("port: 8080\ndatabase:\n  name: inventory\n  pool_size: 10\nlog:\n  level: debug\n"), 0o600)
	require.NoError(t, err)

	cfg, err := config.Load(filename, "")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "inventory", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.PoolSize)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URI", "file:///var/lib/itemd")
	t.Setenv("DATABASE_RETENTION", "1h")

	cfg, err = config.Load(filename, "")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "inventory", cfg.Database.Name)
	assert.Equal(t, time.Hour, cfg.Database.Retention)
	assert.Equal(t, "/var/lib/itemd/inventory.db", cfg.DatabaseOptions().Filename())
}

func TestLoadDotenv(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	err := os.WriteFile(dotenv, []byte("DATABASE_NAME=fromdotenv\n"), 0o600)
	require.NoError(t, err)

	t.Setenv("DATABASE_NAME", "") // registers the variable for restoration
	os.Unsetenv("DATABASE_NAME")

	cfg, err := config.Load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, "fromdotenv", cfg.Database.Name)

	_, err = config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadLegacyEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MONGODB_URI", "file://"+dir)
	t.Setenv("MONGODB_DB", "legacy")

	cfg, err := config.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Database.Name)
	assert.Equal(t, filepath.Join(dir, "legacy.db"), cfg.DatabaseOptions().Filename())

	t.Setenv("DATABASE_NAME", "current")

	cfg, err = config.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "current", cfg.Database.Name)
}

func TestValidateDatabaseURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	_, err := config.Load("", "")
	assert.EqualError(t, err, `unsupported database uri "mongodb://localhost:27017", expected a directory or a file:// uri`)
}

func TestValidate(t *testing.T) {
	t.Setenv("PORT", "0")

	_, err := config.Load("", "")
	assert.EqualError(t, err, "invalid port 0")
}
