package models

// TimeoutsConfig holds the monitor timing knobs, all in seconds.
type TimeoutsConfig struct {
	// SweepInterval is how often the staleness monitor runs.
	SweepInterval int `yaml:"sweep_interval"`
	// ActivityTimeout is how long a session may sit without activity
	// before its in-flight tool is considered stuck and cleared.
	ActivityTimeout int `yaml:"activity_timeout"`
	// IdleTimeout is how long with no active session before the
	// global idle flag flips.
	IdleTimeout int `yaml:"idle_timeout"`
}

// AlertsConfig holds alert escalation settings.
type AlertsConfig struct {
	// Enabled controls whether waiting-for-permission alerts escalate at all.
	Enabled bool `yaml:"enabled"`
}

// UpdatesConfig holds settings for update checking.
type UpdatesConfig struct {
	CheckOnStartup bool `yaml:"check_on_startup"`
}

// Settings represents global application settings.
// This corresponds to ~/.notchlight/settings.yaml.
type Settings struct {
	Version  int            `yaml:"version"`
	Port     int            `yaml:"port"`
	Display  string         `yaml:"display"` // display identifier for the overlay, "" = built-in
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Updates  UpdatesConfig  `yaml:"updates"`
}

// DefaultPort is the fixed control-plane port. Hook scripts written by the
// installer hardcode it, so it must be stable across restarts.
const DefaultPort = 41823

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Port:    DefaultPort,
		Display: "",
		Timeouts: TimeoutsConfig{
			SweepInterval:   2,
			ActivityTimeout: 45,
			IdleTimeout:     30,
		},
		Alerts: AlertsConfig{
			Enabled: true,
		},
		Updates: UpdatesConfig{
			CheckOnStartup: true,
		},
	}
}
