package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 3000, s.Port)
	assert.Equal(t, Development, s.Environment)
	assert.Equal(t, DriverMemory, s.StoreDriver)
	assert.False(t, s.IsProduction())
	assert.Equal(t, []string{"*"}, s.Origins())
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=4000\nENVIRONMENT=production\nCORS_ORIGINS=http://a.com, http://b.com\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("CORS_ORIGINS")
	})

	s, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 4000, s.Port)
	assert.True(t, s.IsProduction())
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, s.Origins())
}

func TestNodeEnvFallback(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	s, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, s.IsProduction())

	// ENVIRONMENT wins
	t.Setenv("ENVIRONMENT", "test")
	s, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Test, s.Environment)

	t.Setenv("NODE_ENV", "staging")
	os.Unsetenv("ENVIRONMENT")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := &Service{Port: 3000, Environment: Development, LogLevel: "info", StoreDriver: DriverPostgres}
	assert.Error(t, s.Validate(), "postgres driver without connection string")

	s.Postgres = "host=localhost user=postgres"
	s.PostgresPassword = "docker"
	assert.NoError(t, s.Validate())
	assert.Equal(t, "host=localhost user=postgres password=docker", s.PostgresDataSource())

	s.StoreDriver = "cassandra"
	assert.Error(t, s.Validate())
}
