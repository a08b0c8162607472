package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/tools"
	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an image, video or caption",
	}
	cmd.AddCommand(newGenerateImageCommand(), newGenerateVideoCommand(), newGenerateCaptionCommand())
	return cmd
}

func newGenerateImageCommand() *cobra.Command {
	var size, quality string
	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate an image with DALL-E 3",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tools.GenerateImage, map[string]any{
				"prompt":  strings.Join(args, " "),
				"size":    size,
				"quality": quality,
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "Image size ("+strings.Join(config.ImageSizes, ", ")+"); defaults to the configured size")
	cmd.Flags().StringVar(&quality, "quality", "", "Image quality ("+strings.Join(config.ImageQualities, ", ")+"); defaults to the configured quality")
	return cmd
}

func newGenerateVideoCommand() *cobra.Command {
	var (
		platform, aspect string
		seconds          int
	)
	cmd := &cobra.Command{
		Use:   "video <prompt>",
		Short: "Generate a video with Sora",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tools.GenerateVideo, map[string]any{
				"prompt":       strings.Join(args, " "),
				"platform":     platform,
				"aspect_ratio": aspect,
				"seconds":      seconds,
			})
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Target platform; picks style and aspect ratio")
	cmd.Flags().StringVar(&aspect, "aspect-ratio", "", "Aspect ratio ("+strings.Join(config.AspectRatioNames(), ", ")+")")
	cmd.Flags().IntVar(&seconds, "seconds", 0, fmt.Sprintf("Length in seconds (%d-%d)", config.MinVideoDuration, config.MaxVideoDuration))
	return cmd
}

func newGenerateCaptionCommand() *cobra.Command {
	var (
		platform, style  string
		noHashtags, noEm bool
	)
	cmd := &cobra.Command{
		Use:   "caption <description>",
		Short: "Write a platform-optimized caption",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, tools.GenerateCaption, map[string]any{
				"content_description": strings.Join(args, " "),
				"platform":            platform,
				"style":               style,
				"include_hashtags":    !noHashtags,
				"include_emojis":      !noEm,
			})
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "instagram", "Platform (instagram, linkedin, twitter, tiktok, facebook)")
	cmd.Flags().StringVar(&style, "style", "", "Tone, e.g. professional, casual, creative")
	cmd.Flags().BoolVar(&noHashtags, "no-hashtags", false, "Leave out hashtags")
	cmd.Flags().BoolVar(&noEm, "no-emojis", false, "Leave out emojis")
	return cmd
}

// runTool calls one tool and prints its output. Failure output becomes an error exit.
func runTool(cmd *cobra.Command, name string, args map[string]any) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	a, err := newApp(*settings, config.LoadCredentials())
	if err != nil {
		return err
	}
	out, err := callTool(cmd.Context(), a.registry, name, args)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	if strings.HasPrefix(out, genpost.FailureMarker) {
		return errors.New(name + " failed")
	}
	return nil
}

func callTool(ctx context.Context, r *tools.Registry, name string, args map[string]any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode %s arguments: %w", name, err)
	}
	return r.Call(ctx, name, raw)
}
