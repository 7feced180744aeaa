package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks keys a developer shell might export; viper ignores empty
// environment values.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "Demo Reviewer", cfg.ReviewerName)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadEnvFileAndFlags(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REVIEWER_NAME=Pat\nDATABASE_URL=postgres://x\nPORT=7000\n"), 0o644))

	cfg, err := Load([]string{"--env-file", envFile, "--port", "9090", "--store", "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "Pat", cfg.ReviewerName)
	assert.Equal(t, "9090", cfg.Port, "flag wins over env file")
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
}

func TestLoadRejectsPostgresWithoutURL(t *testing.T) {
	clearEnv(t)
	_, err := Load([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--store", "postgres"})
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	_, err := Load([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--store", "mongo"})
	assert.Error(t, err)
}

func TestLoadReadsProcessEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://intake@db/finops")
	t.Setenv("ADMIN_KEY", "s3cret")
	t.Setenv("SUGGESTIONS_URL", "http://agent.internal")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--store", "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://intake@db/finops", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.AdminKey)
	assert.Equal(t, "http://agent.internal", cfg.SuggestionsURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
}

func TestEnvironmentOverridesEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ADMIN_KEY=from-file\nREVIEWER_NAME=Pat\n"), 0o644))
	t.Setenv("ADMIN_KEY", "from-env")

	cfg, err := Load([]string{"--env-file", envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AdminKey)
	assert.Equal(t, "Pat", cfg.ReviewerName)
}
