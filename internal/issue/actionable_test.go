// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	cause := errors.New("pull access denied")
	err := NewErrorContext().
		WithOperation("acquire base image").
		WithResource("python:3.11").
		Wrap(cause).
		BuildError()

	want := "failed to acquire base image: python:3.11: pull access denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("ActionableError does not unwrap to its cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	ae := NewErrorContext().
		WithOperation("stage build context").
		WithResource("/tmp/ctx").
		WithSuggestion("Check directory permissions").
		WithSuggestion("Run from the project root").
		Wrap(errors.New("permission denied")).
		Build()

	plain := ae.Format(false)
	if !strings.Contains(plain, "• Check directory permissions") {
		t.Errorf("Format(false) missing suggestion bullet:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain:") {
		t.Error("Format(false) must not include the error chain")
	}

	verbose := ae.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
	if !strings.Contains(verbose, "1. permission denied") {
		t.Errorf("Format(true) missing chained cause:\n%s", verbose)
	}
}

func TestErrorContext_RequiresOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}
