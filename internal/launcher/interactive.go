// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"pybox-cli/internal/container"
)

// launchInteractive runs the container attached to the caller's terminal.
// The engine command is started on a PTY, the local terminal is switched to
// raw mode, and window size changes are forwarded for the duration of the
// launch.
func (l *Launcher) launchInteractive(ctx context.Context, runOpts container.RunOptions) (int, error) {
	runOpts.Interactive = true
	runOpts.TTY = true

	args := l.engine.BuildRunArgs(runOpts)
	cmd := exec.CommandContext(ctx, l.engine.BinaryPath(), args...)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return -1, fmt.Errorf("failed to start interactive launch: %w", err)
	}
	defer ptmx.Close()

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	winch <- syscall.SIGWINCH

	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		oldState, rawErr := term.MakeRaw(stdinFd)
		if rawErr != nil {
			return -1, fmt.Errorf("failed to set terminal raw mode: %w", rawErr)
		}
		defer func() { _ = term.Restore(stdinFd, oldState) }()
	}

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("interactive launch failed: %w", err)
	}
	return 0, nil
}
