// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"pybox-cli/internal/container"
	"pybox-cli/internal/recipe"
)

// fakeEngine implements container.Engine with scripted results so pipeline
// behavior can be tested without docker or podman installed.
type fakeEngine struct {
	pullErr     error
	pullOutput  string
	buildErr    error
	buildOutput string
	imageExists bool
	removeErr   error

	pulls   []container.ImageTag
	builds  []container.BuildOptions
	removed []container.ImageTag

	onBuild func(opts container.BuildOptions)
}

func (f *fakeEngine) Name() string                            { return "fake" }
func (f *fakeEngine) Available() bool                         { return true }
func (f *fakeEngine) Version(context.Context) (string, error) { return "0.0.0-test", nil }
func (f *fakeEngine) BinaryPath() string                      { return "/usr/bin/fake" }
func (f *fakeEngine) BuildRunArgs(container.RunOptions) []string { return nil }

func (f *fakeEngine) Pull(_ context.Context, opts container.PullOptions) error {
	f.pulls = append(f.pulls, opts.Image)
	if opts.Stderr != nil && f.pullOutput != "" {
		fmt.Fprint(opts.Stderr, f.pullOutput)
	}
	return f.pullErr
}

func (f *fakeEngine) Build(_ context.Context, opts container.BuildOptions) error {
	f.builds = append(f.builds, opts)
	if f.onBuild != nil {
		f.onBuild(opts)
	}
	if opts.Stdout != nil && f.buildOutput != "" {
		fmt.Fprint(opts.Stdout, f.buildOutput)
	}
	return f.buildErr
}

func (f *fakeEngine) Run(context.Context, container.RunOptions) (*container.RunResult, error) {
	return &container.RunResult{}, nil
}

func (f *fakeEngine) ImageExists(context.Context, container.ImageTag) (bool, error) {
	return f.imageExists, nil
}

func (f *fakeEngine) RemoveImage(_ context.Context, image container.ImageTag, _ bool) error {
	f.removed = append(f.removed, image)
	return f.removeErr
}

func (f *fakeEngine) InspectImage(context.Context, container.ImageTag) (string, error) {
	return "[]", nil
}

// writeContext creates a minimal valid build context and returns its path.
func writeContext(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func validContext(t *testing.T) string {
	t.Helper()
	return writeContext(t, map[string]string{
		"requirements.txt": "flask==3.0.0\n",
		"src/app.py":       "print('hello')\n",
	})
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestBuild_MissingContext(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	b := New(engine, WithLogger(quietLogger()))

	_, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "nope"), recipe.Default(), Options{})
	if !errors.Is(err, ErrCopy) {
		t.Fatalf("error = %v, want ErrCopy", err)
	}
	if len(engine.pulls) != 0 {
		t.Errorf("pull invoked %d times for an unreadable context, want 0", len(engine.pulls))
	}
}

func TestBuild_EmptyContext(t *testing.T) {
	t.Parallel()

	b := New(&fakeEngine{}, WithLogger(quietLogger()))

	_, err := b.Build(context.Background(), t.TempDir(), recipe.Default(), Options{})
	if !errors.Is(err, ErrCopy) {
		t.Fatalf("error = %v, want ErrCopy for empty context", err)
	}
}

func TestBuild_PullFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		pullErr:    errors.New("exit status 125"),
		pullOutput: "Error: initializing source docker://python:9.99: manifest unknown\n",
	}
	b := New(engine, WithLogger(quietLogger()))

	r := recipe.Default()
	r.BaseImage = "python:9.99"

	_, err := b.Build(context.Background(), validContext(t), r, Options{})
	if !errors.Is(err, ErrBaseImageUnavailable) {
		t.Fatalf("error = %v, want ErrBaseImageUnavailable", err)
	}

	var unavailable *BaseImageUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error %v is not a *BaseImageUnavailableError", err)
	}
	if unavailable.Image != "python:9.99" {
		t.Errorf("Image = %q, want python:9.99", unavailable.Image)
	}
	if len(engine.builds) != 0 {
		t.Errorf("build invoked %d times after a failed pull, want 0", len(engine.builds))
	}
}

func TestBuild_MissingManifest(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	b := New(engine, WithLogger(quietLogger()))

	dir := writeContext(t, map[string]string{"src/app.py": "print('hi')\n"})

	_, err := b.Build(context.Background(), dir, recipe.Default(), Options{})
	if !errors.Is(err, ErrDependencyInstall) {
		t.Fatalf("error = %v, want ErrDependencyInstall", err)
	}

	// Base image acquisition precedes the dependency step, so the pull
	// must already have happened.
	if len(engine.pulls) != 1 {
		t.Errorf("pulls = %d, want 1 before the manifest check", len(engine.pulls))
	}
	if len(engine.builds) != 0 {
		t.Errorf("build invoked %d times without a manifest, want 0", len(engine.builds))
	}
}

func TestBuild_DependencyResolutionFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		buildErr:    errors.New("exit status 1"),
		buildOutput: "ERROR: No matching distribution found for no-such-package==1.0\n",
	}
	b := New(engine, WithLogger(quietLogger()))

	_, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{})
	if !errors.Is(err, ErrDependencyInstall) {
		t.Fatalf("error = %v, want ErrDependencyInstall", err)
	}

	var depErr *DependencyInstallError
	if !errors.As(err, &depErr) {
		t.Fatalf("error %v is not a *DependencyInstallError", err)
	}
	if depErr.Manifest != "requirements.txt" {
		t.Errorf("Manifest = %q, want requirements.txt", depErr.Manifest)
	}
}

func TestBuild_Success(t *testing.T) {
	t.Parallel()

	var staged []string
	engine := &fakeEngine{
		onBuild: func(opts container.BuildOptions) {
			entries, err := os.ReadDir(opts.ContextDir)
			if err != nil {
				t.Errorf("staging dir unreadable during build: %v", err)
				return
			}
			for _, e := range entries {
				staged = append(staged, e.Name())
			}
		},
	}
	b := New(engine, WithLogger(quietLogger()))

	res, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Cached {
		t.Error("Cached = true on a fresh build")
	}
	if !strings.HasPrefix(res.Tag.String(), "pybox-") {
		t.Errorf("Tag = %q, want pybox- prefix", res.Tag)
	}

	if len(engine.builds) != 1 {
		t.Fatalf("builds = %d, want 1", len(engine.builds))
	}
	opts := engine.builds[0]
	if opts.Dockerfile != dockerfileName {
		t.Errorf("Dockerfile = %q, want %q", opts.Dockerfile, dockerfileName)
	}

	want := map[string]bool{
		dockerfileName:     false,
		".dockerignore":    false,
		"requirements.txt": false,
		"src":              false,
	}
	for _, name := range staged {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("staging dir is missing %q (got %v)", name, staged)
		}
	}
}

func TestBuild_DeterministicTag(t *testing.T) {
	t.Parallel()

	dir := validContext(t)
	b := New(&fakeEngine{}, WithLogger(quietLogger()))

	first, err := b.Build(context.Background(), dir, recipe.Default(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build(context.Background(), dir, recipe.Default(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if first.Tag != second.Tag {
		t.Errorf("tags differ for unchanged context: %q vs %q", first.Tag, second.Tag)
	}
	if first.Digest != second.Digest {
		t.Errorf("digests differ for unchanged context")
	}
}

func TestBuild_CacheHit(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{imageExists: true}
	b := New(engine, WithLogger(quietLogger()))

	res, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !res.Cached {
		t.Error("Cached = false, want reuse of existing image")
	}
	if len(engine.pulls) != 0 || len(engine.builds) != 0 {
		t.Errorf("cache hit still ran the engine (pulls=%d builds=%d)", len(engine.pulls), len(engine.builds))
	}
}

func TestBuild_NoCacheForcesRebuild(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{imageExists: true}
	b := New(engine, WithLogger(quietLogger()))

	res, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{NoCache: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Cached {
		t.Error("Cached = true with NoCache set")
	}
	if len(engine.builds) != 1 {
		t.Fatalf("builds = %d, want 1", len(engine.builds))
	}
	if !engine.builds[0].NoCache {
		t.Error("engine build did not receive NoCache")
	}
}

func TestBuild_ExplicitTag(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	b := New(engine, WithLogger(quietLogger()))

	res, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{Tag: "myapp:v1"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Tag != "myapp:v1" {
		t.Errorf("Tag = %q, want myapp:v1", res.Tag)
	}
}

func TestBuild_RecordsManifest(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	b := New(&fakeEngine{}, WithLogger(quietLogger()), WithCacheDir(cacheDir))

	res, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	m, err := b.Images()
	if err != nil {
		t.Fatalf("Images() error = %v", err)
	}
	rec := m.Lookup(res.Tag.String())
	if rec == nil {
		t.Fatalf("built image %q not recorded in manifest", res.Tag)
	}
	if rec.Digest != res.Digest {
		t.Errorf("recorded digest = %q, want %q", rec.Digest, res.Digest)
	}
	if rec.BaseImage != recipe.DefaultBaseImage {
		t.Errorf("recorded base image = %q, want %q", rec.BaseImage, recipe.DefaultBaseImage)
	}
}

func TestForget(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	engine := &fakeEngine{}
	b := New(engine, WithLogger(quietLogger()), WithCacheDir(cacheDir))

	res, err := b.Build(context.Background(), validContext(t), recipe.Default(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Forget(context.Background(), res.Tag, true); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if len(engine.removed) != 1 || engine.removed[0] != res.Tag {
		t.Errorf("removed = %v, want [%s]", engine.removed, res.Tag)
	}

	m, err := b.Images()
	if err != nil {
		t.Fatal(err)
	}
	if m.Lookup(res.Tag.String()) != nil {
		t.Error("image still in manifest after Forget")
	}
}
