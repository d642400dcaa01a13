// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"pybox-cli/internal/builder"
	"pybox-cli/internal/container"

	"github.com/spf13/cobra"
)

var (
	imageRmForce bool

	imageCmd = &cobra.Command{
		Use:   "image",
		Short: "Manage images built by pybox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	imageListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List images pybox has built",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			b := builder.New(engine, builder.WithCacheDir(resolveCacheDir(cfg)))
			m, err := b.Images()
			if err != nil {
				return err
			}

			if len(m.Images) == 0 {
				fmt.Println(SubtitleStyle.Render("No images built yet. Try: pybox build ."))
				return nil
			}

			fmt.Println(TitleStyle.Render("Images"))
			for _, rec := range m.Images {
				fmt.Printf("  %s\n", TagStyle.Render(rec.Tag))
				fmt.Printf("    %s %s\n", SubtitleStyle.Render("base:"), rec.BaseImage)
				fmt.Printf("    %s %s\n", SubtitleStyle.Render("context:"), rec.ContextDir)
				fmt.Printf("    %s %s\n", SubtitleStyle.Render("built:"), rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	imageRmCmd = &cobra.Command{
		Use:   "rm <tag>",
		Short: "Remove a built image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			tag := container.ImageTag(args[0])
			if err := tag.Validate(); err != nil {
				return err
			}

			b := builder.New(engine, builder.WithCacheDir(resolveCacheDir(cfg)))
			if err := b.Forget(cmd.Context(), tag, imageRmForce); err != nil {
				return err
			}

			fmt.Printf("%s Removed %s\n", SuccessStyle.Render("✓"), TagStyle.Render(tag.String()))
			return nil
		},
	}

	imageInspectCmd = &cobra.Command{
		Use:   "inspect <tag>",
		Short: "Show the engine's JSON description of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			tag := container.ImageTag(args[0])
			if err := tag.Validate(); err != nil {
				return err
			}

			out, err := engine.InspectImage(cmd.Context(), tag)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
)

func init() {
	imageRmCmd.Flags().BoolVarP(&imageRmForce, "force", "f", false, "force removal even if containers use the image")

	imageCmd.AddCommand(imageListCmd)
	imageCmd.AddCommand(imageRmCmd)
	imageCmd.AddCommand(imageInspectCmd)
}
