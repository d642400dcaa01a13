// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pybox-cli/internal/config"
	"pybox-cli/internal/container"
	"pybox-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// engineFlag overrides the configured container engine
	engineFlag string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "pybox",
		Short: "Package a Python source tree into a container image and run it",
		Long: TitleStyle.Render("pybox") + SubtitleStyle.Render(" - containerize and launch Python applications") + `

pybox builds a container image from a Python project directory: it pins a
Python base runtime, stages your source tree into the image, installs the
dependencies declared in requirements.txt, and sets the image up to run
your application module. Built images are launched with their exit codes
passed through unchanged.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Put a requirements.txt and src/app.py in your project directory
  2. Build an image with: pybox build .
  3. Launch it with: pybox run .

` + SubtitleStyle.Render("Examples:") + `
  pybox build .                     Build an image from the current directory
  pybox run .                       Build (if needed) and launch
  pybox run . -- src/worker.py      Launch with a different entry module
  pybox image list                  List images pybox has built
  pybox config show                 Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pybox/config.cue)")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "container engine to use (podman or docker, default from config)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// loadConfigOrDefaults returns the resolved configuration, falling back to
// built-in defaults when loading fails (the warning was already printed by
// initRootConfig).
func loadConfigOrDefaults() *config.Config {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// newEngine resolves the container engine from the --engine flag or the
// configuration, rendering the engine help card when none is available.
func newEngine(cfg *config.Config) (container.Engine, error) {
	preferred := cfg.ContainerEngine
	if engineFlag != "" {
		preferred = engineFlag
	}

	engine, err := container.NewEngine(container.EngineType(preferred))
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ContainerEngineNotFoundId).Render("dark"); renderErr == nil {
			fmt.Fprint(os.Stderr, rendered)
		}
		return nil, err
	}
	return engine, nil
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
