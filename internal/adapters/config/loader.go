// Package config loads build settings from a YAML file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Filename is the default settings file name at the project root.
const Filename = "bake.yaml"

// FileLoader implements ports.SettingsLoader using a YAML file.
type FileLoader struct{}

// NewLoader creates a FileLoader.
func NewLoader() *FileLoader {
	return &FileLoader{}
}

var _ ports.SettingsLoader = (*FileLoader)(nil)

// settingsDTO is the on-disk shape of the settings file.
type settingsDTO struct {
	Workers            int    `yaml:"workers"`
	CheckpointInterval string `yaml:"checkpointInterval"`
	Checksum           bool   `yaml:"checksum"`
	LogLevel           string `yaml:"logLevel"`
}

// Load reads the settings file at path. A missing file is not an
// error: every setting has a usable default.
func (l *FileLoader) Load(path string) (domain.Settings, error) {
	return Load(path)
}

// Load reads a settings file from the given path.
func Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return settings, zerr.Wrap(err, "failed to read settings file")
	}

	var dto settingsDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return settings, zerr.Wrap(err, "failed to parse settings file")
	}

	if dto.Workers < 0 {
		return settings, zerr.With(zerr.New("workers must not be negative"), "workers", dto.Workers)
	}
	if dto.Workers > 0 {
		settings.Workers = dto.Workers
	}

	if dto.CheckpointInterval != "" {
		interval, err := time.ParseDuration(dto.CheckpointInterval)
		if err != nil {
			return settings, zerr.Wrap(err, "failed to parse checkpoint interval")
		}
		settings.CheckpointInterval = interval
	}

	settings.Checksum = dto.Checksum

	if dto.LogLevel != "" {
		if !slices.Contains([]string{"debug", "info", "warn", "error"}, dto.LogLevel) {
			return settings, zerr.With(zerr.New("unknown log level"), "log_level", dto.LogLevel)
		}
		settings.LogLevel = dto.LogLevel
	}

	return settings, nil
}
