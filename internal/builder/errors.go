// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"errors"
	"fmt"

	"pybox-cli/internal/container"
)

var (
	// ErrBaseImageUnavailable is the sentinel wrapped by BaseImageUnavailableError.
	ErrBaseImageUnavailable = errors.New("base image unavailable")

	// ErrCopy is the sentinel wrapped by CopyError.
	ErrCopy = errors.New("build context copy failed")

	// ErrDependencyInstall is the sentinel wrapped by DependencyInstallError.
	ErrDependencyInstall = errors.New("dependency install failed")
)

type (
	// BaseImageUnavailableError is returned when the pinned base runtime
	// identifier cannot be resolved or fetched.
	BaseImageUnavailableError struct {
		Image container.ImageTag
		Cause error
	}

	// CopyError is returned when the build context cannot be staged:
	// the directory is missing, empty, or unreadable, or the copy itself
	// fails.
	CopyError struct {
		Path  string
		Cause error
	}

	// DependencyInstallError is returned when the dependency manifest is
	// missing or a declared dependency cannot be resolved or installed.
	// It is never retried; the build aborts.
	DependencyInstallError struct {
		Manifest string
		Cause    error
	}
)

// Error implements the error interface.
func (e *BaseImageUnavailableError) Error() string {
	return fmt.Sprintf("base image %s unavailable: %v", e.Image, e.Cause)
}

// Unwrap exposes the sentinel and the cause for errors.Is/As.
func (e *BaseImageUnavailableError) Unwrap() []error {
	return wrapPair(ErrBaseImageUnavailable, e.Cause)
}

// Error implements the error interface.
func (e *CopyError) Error() string {
	return fmt.Sprintf("cannot stage build context %s: %v", e.Path, e.Cause)
}

// Unwrap exposes the sentinel and the cause for errors.Is/As.
func (e *CopyError) Unwrap() []error {
	return wrapPair(ErrCopy, e.Cause)
}

// Error implements the error interface.
func (e *DependencyInstallError) Error() string {
	return fmt.Sprintf("cannot install dependencies from %s: %v", e.Manifest, e.Cause)
}

// Unwrap exposes the sentinel and the cause for errors.Is/As.
func (e *DependencyInstallError) Unwrap() []error {
	return wrapPair(ErrDependencyInstall, e.Cause)
}

func wrapPair(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}
