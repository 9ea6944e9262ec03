package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/bake/internal/adapters/config"
	"go.trai.ch/bake/internal/core/domain"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.Filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeSettings(t, `
workers: 8
checkpointInterval: 30s
checksum: true
logLevel: debug
`)

	settings, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, settings.Workers)
	assert.Equal(t, 30*time.Second, settings.CheckpointInterval)
	assert.True(t, settings.Checksum)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	settings, err := config.Load(filepath.Join(t.TempDir(), config.Filename))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeSettings(t, "workers: 2\n")

	settings, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Workers)
	assert.Equal(t, domain.DefaultSettings().CheckpointInterval, settings.CheckpointInterval)
	assert.Equal(t, domain.DefaultSettings().LogLevel, settings.LogLevel)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeSettings(t, "workers: [not a number\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_BadInterval(t *testing.T) {
	path := writeSettings(t, "checkpointInterval: soon\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_UnknownLogLevel(t *testing.T) {
	path := writeSettings(t, "logLevel: loud\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_NegativeWorkers(t *testing.T) {
	path := writeSettings(t, "workers: -1\n")

	_, err := config.Load(path)
	require.Error(t, err)
}
