package ports

import "go.trai.ch/bake/internal/core/domain"

// SettingsLoader loads tool settings from a project's config file.
//
//go:generate go run go.uber.org/mock/mockgen -source=settings_loader.go -destination=mocks/mock_settings_loader.go -package=mocks
type SettingsLoader interface {
	// Load reads the settings file at path. A missing file yields the
	// defaults, not an error.
	Load(path string) (domain.Settings, error)
}
