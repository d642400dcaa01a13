// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"pybox-cli/internal/config"
	"pybox-cli/internal/issue"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage pybox configuration",
		Long: `Manage pybox configuration.

Configuration is stored in:
  - Linux: ~/.config/pybox/config.cue
  - macOS: ~/Library/Application Support/pybox/config.cue
  - Windows: %APPDATA%\pybox\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render("dark"); renderErr == nil {
			fmt.Fprint(os.Stderr, rendered)
		}
		return err
	}

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	cfgPath, pathErr := config.ConfigFilePath()
	if pathErr == nil && fileExistsCheck(cfgPath) {
		fmt.Printf("%s: %s\n", TagStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Printf("%s: %s\n", TagStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", TagStyle.Render("container_engine"), SuccessStyle.Render(cfg.ContainerEngine))
	fmt.Printf("%s: %s\n", TagStyle.Render("base_image"), SuccessStyle.Render(cfg.BaseImage))

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		if dir, dirErr := config.CacheDir(); dirErr == nil {
			cacheDir = dir + " " + SubtitleStyle.Render("(default)")
		}
	}
	fmt.Printf("%s: %s\n", TagStyle.Render("cache_dir"), cacheDir)

	fmt.Println()
	fmt.Printf("%s:\n", TagStyle.Render("ui"))
	fmt.Printf("  verbose: %s\n", SuccessStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfigFile() error {
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}

	if fileExistsCheck(path) {
		fmt.Printf("%s Configuration file already exists: %s\n", WarningStyle.Render("!"), path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.StarterConfig()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
