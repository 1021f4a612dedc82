package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchakour/tb/internal/output"
)

// testEnv sets up isolated config dir, viper, and output for testing.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	// Reset viper
	viper.Reset()
	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("default_project", "")
	viper.SetDefault("session_path", filepath.Join(dir, "session"))
	viper.SetDefault("db_path", filepath.Join(dir, "tb.db"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Initialize output
	ui = output.New()

	return dir
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := testEnv(t)

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.NoError(t, err, "config file should exist")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tb configuration")
	assert.Contains(t, string(data), "base_url")
	assert.Contains(t, string(data), "anthropic")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	err := configInitRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data), "file should be untouched")
}

func TestConfigInit_ForceOverwrites(t *testing.T) {
	dir := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = true
	t.Cleanup(func() { configForce = false })

	err := configInitRun()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tb configuration")
}

func TestReadConfigFileValues_FlattensNestedKeys(t *testing.T) {
	dir := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := "db_path: /tmp/tb.db\nanthropic:\n  model: claude-haiku-4-5-20251001\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	values := readConfigFileValues(cfgPath)
	assert.True(t, values["db_path"])
	assert.True(t, values["anthropic.model"])
	assert.False(t, values["anthropic.api_key"])
}

func TestDetectSource(t *testing.T) {
	fileValues := map[string]bool{"db_path": true}

	assert.Equal(t, "(file)", detectSource("db_path", "TB_DB_PATH", fileValues))
	assert.Equal(t, "(default)", detectSource("api.base_url", "TB_API_BASE_URL", fileValues))

	t.Setenv("TB_API_BASE_URL", "http://example.test")
	assert.Equal(t, "(env: TB_API_BASE_URL)", detectSource("api.base_url", "TB_API_BASE_URL", fileValues))
}
