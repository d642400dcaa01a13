// SPDX-License-Identifier: MPL-2.0

package config

var (
	// configFilePathOverride is set via the --config flag.
	configFilePathOverride string

	// configDirOverride lets tests redirect the config directory.
	configDirOverride string
)

// SetConfigFilePathOverride sets an explicit config file path (from the
// --config flag). An empty string clears the override.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// SetConfigDirOverride redirects the config directory, for tests.
// An empty string clears the override.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
