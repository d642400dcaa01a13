// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"pybox-cli/internal/container"
	"pybox-cli/internal/launcher"

	"github.com/spf13/cobra"
)

var (
	runImage       string
	runEntrypoint  string
	runEnv         []string
	runName        string
	runInteractive bool

	runCmd = &cobra.Command{
		Use:   "run [context] [-- args...]",
		Short: "Build (if needed) and launch a containerized Python application",
		Long: `Build an image from a Python project directory and launch it.

Without extra arguments the container runs the entry module baked into the
image. Arguments after '--' replace that default: they are handed to the
same python entry executable, so 'pybox run . -- src/worker.py' runs a
different module and 'pybox run . -- -c "..."' runs inline code.

The containerized process exit code is passed through unchanged as the
pybox exit code. Use --image to launch an already-built image without
touching the build pipeline.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional := args
			if cmd.ArgsLenAtDash() >= 0 {
				positional = args[:cmd.ArgsLenAtDash()]
			}
			overrideArgs := args[len(positional):]

			tag, err := resolveRunImage(cmd, positional)
			if err != nil {
				return err
			}

			cfg := loadConfigOrDefaults()
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			l := launcher.New(engine)
			code, err := l.Launch(cmd.Context(), launcher.Options{
				Image:       tag,
				Args:        overrideArgs,
				Entrypoint:  runEntrypoint,
				Env:         parseEnvAssignments(runEnv),
				Name:        runName,
				Interactive: runInteractive,
				Stdin:       cmd.InOrStdin(),
				Stdout:      cmd.OutOrStdout(),
				Stderr:      cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			if code != 0 {
				// Propagate the container exit code without printing an
				// extra error message.
				cmd.SilenceErrors = true
				return &ExitError{Code: code}
			}
			return nil
		},
	}
)

func init() {
	runCmd.Flags().StringVar(&runImage, "image", "", "launch an existing image instead of building from a context")
	runCmd.Flags().StringVar(&runEntrypoint, "entrypoint", "", "explicitly replace the image entry executable")
	runCmd.Flags().StringArrayVarP(&runEnv, "env", "e", nil, "environment variable for the launch (KEY=VALUE, repeatable)")
	runCmd.Flags().StringVar(&runName, "name", "", "container name")
	runCmd.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "attach the launch to the terminal through a PTY")
}

// resolveRunImage decides what to launch: an explicit image tag, or the
// result of building the context directory.
func resolveRunImage(cmd *cobra.Command, positional []string) (container.ImageTag, error) {
	if runImage != "" {
		if len(positional) > 0 {
			return "", fmt.Errorf("--image and a context directory are mutually exclusive")
		}
		tag := container.ImageTag(runImage)
		return tag, tag.Validate()
	}

	if len(positional) > 1 {
		return "", fmt.Errorf("at most one context directory may be given, got %d", len(positional))
	}
	contextDir, err := resolveContextDir(positional)
	if err != nil {
		return "", err
	}
	res, err := buildImage(cmd, contextDir)
	if err != nil {
		return "", err
	}
	return res.Tag, nil
}

// parseEnvAssignments turns KEY=VALUE flags into a map. Entries without '='
// are ignored.
func parseEnvAssignments(assignments []string) map[string]string {
	if len(assignments) == 0 {
		return nil
	}
	env := make(map[string]string, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}
