// SPDX-License-Identifier: MPL-2.0

// Package launcher starts containers from built images and reports the
// containerized process exit code unchanged. The image ENTRYPOINT is never
// replaced at launch: extra arguments substitute the image's default
// argument, so an override runs the same entry executable with a different
// target.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"pybox-cli/internal/container"
)

type (
	// Launcher runs containers on a container engine.
	Launcher struct {
		engine container.Engine
		logger *log.Logger
	}

	// Options tunes one launch.
	Options struct {
		// Image is the image to run.
		Image container.ImageTag
		// Args replaces the image's default command argument when non-empty.
		// The image ENTRYPOINT still decides the executable.
		Args []string
		// Entrypoint explicitly replaces the image's entry executable.
		// Empty preserves the image ENTRYPOINT.
		Entrypoint string
		// Env are additional environment variables for this launch.
		Env map[string]string
		// Name is an optional container name.
		Name string
		// Interactive attaches the launch to the caller's terminal through
		// a PTY.
		Interactive bool
		// Stdin, Stdout, Stderr are the launch streams. Nil values default
		// to the process streams.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger sets the launch logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// New creates a Launcher bound to a container engine.
func New(engine container.Engine, opts ...Option) *Launcher {
	l := &Launcher{
		engine: engine,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch runs a container from the image and returns the exit code of the
// containerized process, passed through without interpretation. The second
// return value carries infrastructure failures only; an application exiting
// non-zero is not an error.
func (l *Launcher) Launch(ctx context.Context, opts Options) (int, error) {
	if err := opts.Image.Validate(); err != nil {
		return -1, err
	}

	runOpts := container.RunOptions{
		Image:      opts.Image,
		Command:    opts.Args,
		Entrypoint: opts.Entrypoint,
		Env:        opts.Env,
		Name:       opts.Name,
		Remove:     true,
		Stdin:      opts.Stdin,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
	}
	if runOpts.Stdin == nil {
		runOpts.Stdin = os.Stdin
	}
	if runOpts.Stdout == nil {
		runOpts.Stdout = os.Stdout
	}
	if runOpts.Stderr == nil {
		runOpts.Stderr = os.Stderr
	}

	l.logger.Debug("launching container", "image", opts.Image, "args", opts.Args, "interactive", opts.Interactive)

	if opts.Interactive {
		return l.launchInteractive(ctx, runOpts)
	}

	result, err := l.engine.Run(ctx, runOpts)
	if err != nil {
		return -1, fmt.Errorf("failed to launch container from %s: %w", opts.Image, err)
	}
	if result.Error != nil {
		return result.ExitCode, result.Error
	}
	return result.ExitCode, nil
}
