// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

const (
	// DefaultBaseImage is the pinned Python base runtime.
	DefaultBaseImage = "python:3.11"
	// DefaultWorkDir is where the build context is staged inside the image.
	DefaultWorkDir = "/app"
	// DefaultManifest is the dependency manifest path, relative to the
	// context root.
	DefaultManifest = "requirements.txt"
	// DefaultEntryModule is the application module run by the default
	// command, relative to the working directory.
	DefaultEntryModule = "src/app.py"
	// EntryExecutable is the fixed entry executable declared as the image
	// ENTRYPOINT. Launch-time command overrides replace the default
	// argument, never this.
	EntryExecutable = "python"
)

var (
	// ErrInvalidRecipe is the sentinel error wrapped by InvalidRecipeError.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

type (
	// Recipe describes one image build: which base runtime to start from,
	// where to stage the context, which manifest to install, and which
	// module the container runs by default.
	Recipe struct {
		// BaseImage is the pinned base runtime identifier.
		BaseImage string
		// WorkDir is the staging destination and container working directory.
		WorkDir string
		// Manifest is the dependency manifest path relative to the context root.
		Manifest string
		// EntryModule is the default argument to the entry executable,
		// relative to WorkDir.
		EntryModule string
		// Env are additional environment variables baked into the image.
		Env map[string]string
	}

	// InvalidRecipeError is returned when one or more Recipe fields are invalid.
	InvalidRecipeError struct {
		FieldErrs []error
	}
)

// Error implements the error interface.
func (e *InvalidRecipeError) Error() string {
	msgs := make([]string, len(e.FieldErrs))
	for i, err := range e.FieldErrs {
		msgs[i] = err.Error()
	}
	return "invalid recipe: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidRecipe so callers can use errors.Is.
func (e *InvalidRecipeError) Unwrap() error { return ErrInvalidRecipe }

// Default returns the recipe matching the original build description:
// python:3.11, /app, requirements.txt, src/app.py.
func Default() Recipe {
	return Recipe{
		BaseImage:   DefaultBaseImage,
		WorkDir:     DefaultWorkDir,
		Manifest:    DefaultManifest,
		EntryModule: DefaultEntryModule,
	}
}

// Validate returns an error if any field of the Recipe is invalid.
// Manifest and EntryModule must be clean relative paths that stay inside
// the context; WorkDir must be absolute.
func (r Recipe) Validate() error {
	var errs []error

	if strings.TrimSpace(r.BaseImage) == "" {
		errs = append(errs, errors.New("base image must be set"))
	}
	if !path.IsAbs(r.WorkDir) {
		errs = append(errs, fmt.Errorf("working directory %q must be absolute", r.WorkDir))
	}
	if err := validateRelPath("manifest", r.Manifest); err != nil {
		errs = append(errs, err)
	}
	if err := validateRelPath("entry module", r.EntryModule); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return &InvalidRecipeError{FieldErrs: errs}
	}
	return nil
}

// Render produces the Dockerfile for this recipe.
//
// The manifest is copied and installed before the rest of the context so
// unchanged dependency sets hit the engine's layer cache. The entry
// executable is declared as ENTRYPOINT and the module as CMD, so a
// launch-time command override replaces the default argument while
// preserving the executable.
func (r Recipe) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", r.BaseImage)
	fmt.Fprintf(&sb, "WORKDIR %s\n\n", r.WorkDir)

	fmt.Fprintf(&sb, "COPY %s %s\n", r.Manifest, r.Manifest)
	fmt.Fprintf(&sb, "RUN pip install --no-cache-dir -r %s\n\n", r.Manifest)

	sb.WriteString("COPY . .\n")

	if len(r.Env) > 0 {
		sb.WriteString("\n")
		keys := make([]string, 0, len(r.Env))
		for k := range r.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "ENV %s=%q\n", k, r.Env[k])
		}
	}

	fmt.Fprintf(&sb, "\nENTRYPOINT [%q]\n", EntryExecutable)
	fmt.Fprintf(&sb, "CMD [%q]\n", r.EntryModule)

	return sb.String()
}

// validateRelPath rejects absolute, empty, and context-escaping paths.
func validateRelPath(field, p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%s path must be set", field)
	}
	if path.IsAbs(p) {
		return fmt.Errorf("%s path %q must be relative to the context root", field, p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%s path %q escapes the build context", field, p)
	}
	return nil
}
