package config

import (
	"github.com/notchlight-io/notchlight/internal/models"
)

// LoadSettings loads the global settings from ~/.notchlight/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	applySettingsDefaults(settings)
	return settings, nil
}

// SaveSettings saves the global settings to ~/.notchlight/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// applySettingsDefaults backfills zero values from a hand-edited settings file.
func applySettingsDefaults(s *models.Settings) {
	def := models.NewSettings()
	if s.Port == 0 {
		s.Port = def.Port
	}
	if s.Timeouts.SweepInterval <= 0 {
		s.Timeouts.SweepInterval = def.Timeouts.SweepInterval
	}
	if s.Timeouts.ActivityTimeout <= 0 {
		s.Timeouts.ActivityTimeout = def.Timeouts.ActivityTimeout
	}
	if s.Timeouts.IdleTimeout <= 0 {
		s.Timeouts.IdleTimeout = def.Timeouts.IdleTimeout
	}
}
