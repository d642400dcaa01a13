// SPDX-License-Identifier: MPL-2.0

// Package config loads pybox configuration: defaults, an optional CUE
// config file validated against an embedded schema, and PYBOX_* environment
// variables, merged through viper in that order of increasing precedence.
package config
