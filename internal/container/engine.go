// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Engine defines the interface for container operations.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Available checks if the engine is available on the system.
	Available() bool
	// Version returns the engine version.
	Version(ctx context.Context) (string, error)
	// BinaryPath returns the path to the engine binary.
	BinaryPath() string

	// Pull fetches an image from its registry.
	Pull(ctx context.Context, opts PullOptions) error
	// Build builds an image from a Dockerfile.
	Build(ctx context.Context, opts BuildOptions) error
	// Run runs a container from an image.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
	// BuildRunArgs builds the argument slice for a 'run' command without
	// executing. Used for interactive mode where the command is attached
	// to a PTY by the caller.
	BuildRunArgs(opts RunOptions) []string
	// ImageExists checks if an image exists locally.
	ImageExists(ctx context.Context, image ImageTag) (bool, error)
	// RemoveImage removes an image.
	RemoveImage(ctx context.Context, image ImageTag, force bool) error
	// InspectImage returns the engine's JSON description of an image.
	InspectImage(ctx context.Context, image ImageTag) (string, error)
}

// ImageTag identifies a container image (name, name:tag, or digest form).
// A valid tag must be non-empty and contain no whitespace.
type ImageTag string

// ErrInvalidImageTag is the sentinel error wrapped by InvalidImageTagError.
var ErrInvalidImageTag = errors.New("invalid image tag")

// InvalidImageTagError is returned when an ImageTag fails validation.
type InvalidImageTagError struct {
	Value ImageTag
}

// Error implements the error interface.
func (e *InvalidImageTagError) Error() string {
	return fmt.Sprintf("invalid image tag %q: must be non-empty without whitespace", e.Value)
}

// Unwrap returns ErrInvalidImageTag so callers can use errors.Is.
func (e *InvalidImageTagError) Unwrap() error { return ErrInvalidImageTag }

// String returns the string representation of the ImageTag.
func (t ImageTag) String() string { return string(t) }

// Validate returns an error if the ImageTag is empty or contains whitespace.
func (t ImageTag) Validate() error {
	s := string(t)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t\n") {
		return &InvalidImageTagError{Value: t}
	}
	return nil
}

// PullOptions contains options for pulling an image.
type PullOptions struct {
	// Image is the image reference to pull.
	Image ImageTag
	// Stdout is where to write pull progress.
	Stdout io.Writer
	// Stderr is where to write pull errors.
	Stderr io.Writer
}

// BuildOptions contains options for building an image.
type BuildOptions struct {
	// ContextDir is the build context directory.
	ContextDir string
	// Dockerfile is the path to the Dockerfile, relative to ContextDir.
	Dockerfile string
	// Tag is the image tag applied to the result.
	Tag ImageTag
	// BuildArgs are build-time variables.
	BuildArgs map[string]string
	// NoCache disables the engine's layer cache.
	NoCache bool
	// Stdout is where to write build output.
	Stdout io.Writer
	// Stderr is where to write build errors.
	Stderr io.Writer
}

// Validate checks the typed fields of BuildOptions.
func (o BuildOptions) Validate() error {
	if o.ContextDir == "" {
		return errors.New("build options: context directory must be set")
	}
	if o.Tag != "" {
		return o.Tag.Validate()
	}
	return nil
}

// RunOptions contains options for running a container.
type RunOptions struct {
	// Image is the image to run.
	Image ImageTag
	// Command overrides the image's default CMD. The image ENTRYPOINT is
	// preserved; these become its arguments.
	Command []string
	// Entrypoint explicitly replaces the image's ENTRYPOINT declaration.
	Entrypoint string
	// WorkDir is the working directory inside the container.
	WorkDir string
	// Env contains environment variables.
	Env map[string]string
	// Volumes are volume mounts in "host:container" format.
	Volumes []string
	// Remove automatically removes the container after exit.
	Remove bool
	// Name is the container name.
	Name string
	// Interactive keeps stdin open (-i).
	Interactive bool
	// TTY allocates a pseudo-TTY (-t).
	TTY bool
	// Stdin is the standard input.
	Stdin io.Reader
	// Stdout is where to write standard output.
	Stdout io.Writer
	// Stderr is where to write standard error.
	Stderr io.Writer
}

// Validate checks the typed fields of RunOptions.
func (o RunOptions) Validate() error {
	return o.Image.Validate()
}

// RunResult contains the result of running a container.
type RunResult struct {
	// ExitCode is the container process exit code, passed through untouched.
	ExitCode int
	// Error contains any infrastructure error (engine binary missing, etc.).
	// A non-zero exit code of the containerized process is NOT an error here.
	Error error
}

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrNoEngineAvailable is the sentinel error wrapped by ErrEngineNotAvailable.
var ErrNoEngineAvailable = errors.New("no container engine available")

// ErrEngineNotAvailable is returned when a container engine is not available.
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable so callers can use errors.Is.
func (e *ErrEngineNotAvailable) Unwrap() error { return ErrNoEngineAvailable }

// NewEngine creates a container engine based on preference, falling back to
// the other engine when the preferred one is not installed.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
// Podman is probed first since it is more commonly available rootless.
func AutoDetectEngine() (Engine, error) {
	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (podman or docker) is available on this system",
	}
}
