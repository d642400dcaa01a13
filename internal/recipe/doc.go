// SPDX-License-Identifier: MPL-2.0

// Package recipe models the container build description for a Python
// application: pinned base runtime, staging destination, dependency
// manifest, and entry module. A recipe renders to the Dockerfile that the
// builder hands to the container engine.
package recipe
