// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"pybox-cli/internal/builder"
	"pybox-cli/internal/config"
	"pybox-cli/internal/container"
	"pybox-cli/internal/issue"
	"pybox-cli/internal/recipe"

	"github.com/spf13/cobra"
)

var (
	buildTag     string
	buildNoCache bool
	buildBase    string
	buildMani    string
	buildEntry   string

	buildCmd = &cobra.Command{
		Use:   "build [context]",
		Short: "Build a container image from a Python project directory",
		Long: `Build a container image from a Python project directory.

The build stages the directory into the image working directory, installs
the dependencies declared in the manifest, and sets the image to run the
entry module under the python executable. The steps run strictly in order
and the first failure aborts the build; a failed build leaves no image
behind and is never retried automatically.

The image tag is derived from the context contents, so rebuilding an
unchanged project resolves to the same image.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextDir, err := resolveContextDir(args)
			if err != nil {
				return err
			}

			res, err := buildImage(cmd, contextDir)
			if err != nil {
				return err
			}

			if res.Cached {
				fmt.Printf("%s %s %s\n", SuccessStyle.Render("✓"), "Image up to date:", TagStyle.Render(res.Tag.String()))
			} else {
				fmt.Printf("%s %s %s\n", SuccessStyle.Render("✓"), "Built image:", TagStyle.Render(res.Tag.String()))
			}
			return nil
		},
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildTag, "tag", "t", "", "image tag (default derived from the context contents)")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "rebuild even if an image for this context already exists")
	buildCmd.Flags().StringVar(&buildBase, "base", "", "base runtime image (default from config, python:3.11)")
	buildCmd.Flags().StringVar(&buildMani, "manifest", "", "dependency manifest path relative to the context (default requirements.txt)")
	buildCmd.Flags().StringVar(&buildEntry, "entry", "", "entry module run by the default command (default src/app.py)")
}

// resolveContextDir turns the optional positional argument into an absolute
// context directory, defaulting to the current directory.
func resolveContextDir(args []string) (string, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve context directory %q: %w", dir, err)
	}
	return abs, nil
}

// buildRecipe assembles the build recipe from configuration and flags.
func buildRecipe(cfg *config.Config) recipe.Recipe {
	r := recipe.Default()
	if cfg.BaseImage != "" {
		r.BaseImage = cfg.BaseImage
	}
	if buildBase != "" {
		r.BaseImage = buildBase
	}
	if buildMani != "" {
		r.Manifest = buildMani
	}
	if buildEntry != "" {
		r.EntryModule = buildEntry
	}
	return r
}

// resolveCacheDir returns the directory for the image manifest. An empty
// string disables recording.
func resolveCacheDir(cfg *config.Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	dir, err := config.CacheDir()
	if err != nil {
		return ""
	}
	return dir
}

// buildImage runs the build pipeline for a context directory. Shared by
// 'pybox build' and 'pybox run'.
func buildImage(cmd *cobra.Command, contextDir string) (*builder.Result, error) {
	cfg := loadConfigOrDefaults()

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	var progress io.Writer
	if verbose {
		progress = cmd.ErrOrStderr()
	}

	b := builder.New(engine, builder.WithCacheDir(resolveCacheDir(cfg)))
	res, err := b.Build(cmd.Context(), contextDir, buildRecipe(cfg), builder.Options{
		Tag:     container.ImageTag(buildTag),
		NoCache: buildNoCache,
		Output:  progress,
	})
	if err != nil {
		renderBuildIssue(err)
		return nil, err
	}
	return res, nil
}

// renderBuildIssue prints the help card matching a build failure class.
func renderBuildIssue(err error) {
	var id issue.Id
	switch {
	case errors.Is(err, builder.ErrBaseImageUnavailable):
		id = issue.BaseImageUnavailableId
	case errors.Is(err, builder.ErrDependencyInstall):
		if errors.Is(err, fs.ErrNotExist) {
			id = issue.ManifestMissingId
		} else {
			id = issue.BuildFailedId
		}
	case errors.Is(err, builder.ErrCopy):
		id = issue.ContextUnreadableId
	default:
		return
	}

	if rendered, renderErr := issue.Get(id).Render("dark"); renderErr == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}
