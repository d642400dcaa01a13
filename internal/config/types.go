// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config is the resolved pybox configuration.
	Config struct {
		// ContainerEngine is the preferred engine ("podman" or "docker").
		ContainerEngine string `mapstructure:"container_engine"`

		// BaseImage is the default pinned base runtime for builds.
		BaseImage string `mapstructure:"base_image"`

		// CacheDir is where pybox keeps its image cache manifest.
		// Empty means the platform cache dir (~/.cache/pybox on Linux).
		CacheDir string `mapstructure:"cache_dir"`

		// UI holds output-related settings.
		UI UIConfig `mapstructure:"ui"`
	}

	// UIConfig holds output-related settings.
	UIConfig struct {
		// Verbose enables verbose output by default.
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: "podman",
		BaseImage:       "python:3.11",
	}
}
