package cmd

import (
	"fmt"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure generation settings",
		Long:  "Interactive wizard for target platforms, video, image, caption and workflow settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			updated, err := runWizard(*current)
			if err != nil {
				return err
			}
			if updated == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Setup cancelled.")
				return nil
			}
			if path, err := config.Path(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", path)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings and credential status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, s.Render())

			creds := config.LoadCredentials()
			fmt.Fprintln(out, "\nCredentials:")
			if missing := creds.OpenAI.Missing(); len(missing) > 0 {
				fmt.Fprintf(out, "  %s OpenAI: missing %v\n", genpost.FailureMarker, missing)
			} else {
				fmt.Fprintln(out, "  ✓ OpenAI")
			}
			for _, p := range genpost.Platforms {
				if missing := creds.Missing(p); len(missing) > 0 {
					fmt.Fprintf(out, "  %s %s: missing %v\n", genpost.FailureMarker, p.Title(), missing)
					continue
				}
				fmt.Fprintf(out, "  ✓ %s\n", p.Title())
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	return cmd
}
