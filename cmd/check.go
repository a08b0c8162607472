package cmd

import (
	"strings"

	"github.com/blacktop/genpost/internal/tools"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Review content against the policy or design guidelines",
	}
	cmd.AddCommand(newCheckPolicyCommand(), newCheckDesignCommand())
	return cmd
}

func newCheckPolicyCommand() *cobra.Command {
	var caption, platform string
	cmd := &cobra.Command{
		Use:   "policy <description>",
		Short: "Check content and caption against the policy guidelines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tools.CheckPolicy, map[string]any{
				"content_description": strings.Join(args, " "),
				"caption":             caption,
				"platform":            platform,
			})
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Caption that accompanies the content")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Target platform")
	return cmd
}

func newCheckDesignCommand() *cobra.Command {
	var contentType, resolution, file string
	cmd := &cobra.Command{
		Use:   "design <description>",
		Short: "Check an image or video against the design guidelines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tools.CheckDesign, map[string]any{
				"content_description": strings.Join(args, " "),
				"content_type":        contentType,
				"resolution":          resolution,
				"file_path":           file,
			})
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", "image", "Content type (image or video)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "Resolution, e.g. 1920x1080")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Image file to read the resolution from")
	return cmd
}
