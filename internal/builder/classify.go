// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"strings"

	"pybox-cli/internal/container"
	"pybox-cli/internal/recipe"
)

// Build output markers emitted by docker/podman and pip. Matching is done
// case-insensitively against the combined stdout/stderr of the build.
var (
	baseImageMarkers = []string{
		"pull access denied",
		"manifest unknown",
		"manifest for",
		"failed to resolve source metadata",
		"not found: manifest unknown",
		"unauthorized: authentication required",
		"name unknown",
		"error getting image",
	}

	copyMarkers = []string{
		"copy failed",
		"failed to compute cache key",
		"file not found in build context",
		"forbidden path outside the build context",
		"error building at step copy",
	}

	dependencyMarkers = []string{
		"could not find a version that satisfies the requirement",
		"no matching distribution found",
		"error: invalid requirement",
		"could not open requirements file",
		"pip._internal.exceptions",
		"error: subprocess-exited-with-error",
		"failed building wheel",
		"resolutionimpossible",
	}
)

// classifyBuildFailure maps a failed engine build to the error taxonomy by
// inspecting the captured build output. The engine reports every failed
// Dockerfile instruction the same way (non-zero exit), so the output text is
// the only signal distinguishing a bad base image from a bad requirement.
// Unrecognized failures are returned as-is.
func classifyBuildFailure(output, contextDir string, r recipe.Recipe, cause error) error {
	lower := strings.ToLower(output)

	if containsAny(lower, dependencyMarkers) || failedDuringInstall(lower, r) {
		return &DependencyInstallError{Manifest: r.Manifest, Cause: cause}
	}
	if containsAny(lower, copyMarkers) {
		return &CopyError{Path: contextDir, Cause: cause}
	}
	if containsAny(lower, baseImageMarkers) {
		return &BaseImageUnavailableError{Image: container.ImageTag(r.BaseImage), Cause: cause}
	}
	return cause
}

// failedDuringInstall reports whether the build output shows the pip install
// instruction as the failing step. pip failure modes are open-ended, so a
// non-zero exit attributed to the RUN pip line is classified as a dependency
// failure even when no known pip marker matched.
func failedDuringInstall(lowerOutput string, r recipe.Recipe) bool {
	installLine := strings.ToLower("run pip install --no-cache-dir -r " + r.Manifest)
	if !strings.Contains(lowerOutput, installLine) {
		return false
	}
	return strings.Contains(lowerOutput, "did not complete successfully") ||
		strings.Contains(lowerOutput, "exit code") ||
		strings.Contains(lowerOutput, "exit status")
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
