// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container engines
// (Docker/Podman). The builder and launcher packages drive image builds and
// container launches through the Engine interface; the concrete engines
// shell out to the docker or podman CLI.
package container
