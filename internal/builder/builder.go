// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"pybox-cli/internal/container"
	"pybox-cli/internal/recipe"
)

type (
	// Builder runs the build pipeline against a container engine.
	Builder struct {
		engine   container.Engine
		logger   *log.Logger
		cacheDir string
	}

	// Options tunes one build.
	Options struct {
		// Tag overrides the derived deterministic tag.
		Tag container.ImageTag
		// NoCache forces a rebuild even when the derived tag already exists,
		// and disables the engine's layer cache.
		NoCache bool
		// Output receives the engine's build progress. Nil discards it.
		Output io.Writer
	}

	// Result describes a completed build.
	Result struct {
		// Tag is the identifier the image was tagged with.
		Tag container.ImageTag
		// Digest is the full content digest of the context plus recipe.
		Digest string
		// Cached reports whether an existing image was reused instead of
		// rebuilding.
		Cached bool
	}
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the build logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithCacheDir sets the directory holding the image manifest.
func WithCacheDir(dir string) Option {
	return func(b *Builder) { b.cacheDir = dir }
}

// New creates a Builder bound to a container engine.
func New(engine container.Engine, opts ...Option) *Builder {
	b := &Builder{
		engine: engine,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build executes the pipeline for one context and recipe. Steps run in
// order and the first failure aborts the build; the returned error is one of
// the taxonomy types (BaseImageUnavailableError, CopyError,
// DependencyInstallError) when the failure is attributable, or the raw
// engine error otherwise.
func (b *Builder) Build(ctx context.Context, contextDir string, r recipe.Recipe, opts Options) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := validateContext(contextDir); err != nil {
		return nil, err
	}

	dockerfile := r.Render()

	digest, err := contextDigest(contextDir, dockerfile)
	if err != nil {
		return nil, err
	}

	tag := opts.Tag
	if tag == "" {
		tag = container.ImageTag(fmt.Sprintf("pybox-%s:%s", sanitizeContextName(contextDir), shortDigest(digest)))
	}
	if err := tag.Validate(); err != nil {
		return nil, err
	}

	if !opts.NoCache {
		exists, err := b.engine.ImageExists(ctx, tag)
		if err == nil && exists {
			b.logger.Info("image up to date", "tag", tag, "digest", shortDigest(digest))
			return &Result{Tag: tag, Digest: digest, Cached: true}, nil
		}
	}

	b.logger.Info("pulling base image", "image", r.BaseImage)
	if err := b.pullBaseImage(ctx, r, opts.Output); err != nil {
		return nil, err
	}

	b.logger.Info("staging build context", "context", contextDir)
	stagingDir, cleanup, err := stageContext(contextDir, dockerfile)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := validateManifest(contextDir, r.Manifest); err != nil {
		return nil, err
	}

	b.logger.Info("building image", "tag", tag, "engine", b.engine.Name())
	if err := b.runEngineBuild(ctx, stagingDir, contextDir, tag, r, opts); err != nil {
		return nil, err
	}

	if err := b.record(contextDir, r, tag, digest); err != nil {
		b.logger.Warn("failed to record image in manifest", "error", err)
	}

	b.logger.Info("build complete", "tag", tag, "digest", shortDigest(digest))
	return &Result{Tag: tag, Digest: digest}, nil
}

// pullBaseImage fetches the pinned base runtime up front so an unresolvable
// identifier fails the build before any staging work happens.
func (b *Builder) pullBaseImage(ctx context.Context, r recipe.Recipe, output io.Writer) error {
	var buf bytes.Buffer
	stdout, stderr := tee(output, &buf)

	err := b.engine.Pull(ctx, container.PullOptions{
		Image:  container.ImageTag(r.BaseImage),
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		cause := err
		if out := strings.TrimSpace(buf.String()); out != "" {
			cause = fmt.Errorf("%w: %s", err, firstLines(out, 5))
		}
		return &BaseImageUnavailableError{Image: container.ImageTag(r.BaseImage), Cause: cause}
	}
	return nil
}

// runEngineBuild invokes the engine build with captured output and maps a
// failure onto the error taxonomy.
func (b *Builder) runEngineBuild(ctx context.Context, stagingDir, contextDir string, tag container.ImageTag, r recipe.Recipe, opts Options) error {
	var buf bytes.Buffer
	stdout, stderr := tee(opts.Output, &buf)

	err := b.engine.Build(ctx, container.BuildOptions{
		ContextDir: stagingDir,
		Dockerfile: dockerfileName,
		Tag:        tag,
		NoCache:    opts.NoCache,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	if err != nil {
		return classifyBuildFailure(buf.String(), contextDir, r, err)
	}
	return nil
}

// record upserts the built image into the cache manifest.
func (b *Builder) record(contextDir string, r recipe.Recipe, tag container.ImageTag, digest string) error {
	if b.cacheDir == "" {
		return nil
	}

	m, err := loadManifest(b.cacheDir)
	if err != nil {
		return err
	}
	m.Upsert(ImageRecord{
		Tag:        tag.String(),
		BaseImage:  r.BaseImage,
		ContextDir: contextDir,
		Digest:     digest,
		CreatedAt:  time.Now().UTC(),
	})
	return saveManifest(b.cacheDir, m)
}

// Images returns the recorded image manifest.
func (b *Builder) Images() (*Manifest, error) {
	if b.cacheDir == "" {
		return &Manifest{}, nil
	}
	return loadManifest(b.cacheDir)
}

// Forget removes an image from the engine and from the manifest.
func (b *Builder) Forget(ctx context.Context, tag container.ImageTag, force bool) error {
	if err := b.engine.RemoveImage(ctx, tag, force); err != nil {
		return err
	}
	if b.cacheDir == "" {
		return nil
	}

	m, err := loadManifest(b.cacheDir)
	if err != nil {
		return err
	}
	m.Remove(tag.String())
	return saveManifest(b.cacheDir, m)
}

// tee duplicates engine output into a capture buffer while optionally
// streaming it to the caller.
func tee(out io.Writer, capture *bytes.Buffer) (stdout, stderr io.Writer) {
	if out == nil {
		return capture, capture
	}
	w := io.MultiWriter(out, capture)
	return w, w
}

// firstLines truncates multi-line engine output for error messages.
func firstLines(s string, n int) string {
	lines := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines++
			if lines == n {
				return s[:i] + " [...]"
			}
		}
	}
	return s
}
