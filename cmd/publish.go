package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/tools"
	"github.com/spf13/cobra"
)

type publishOptions struct {
	platforms     []string
	file          string
	captionPrompt string
	contentType   string
	title         string
	dryRun        bool
}

func newPublishCommand() *cobra.Command {
	opts := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an image or video to one or more platforms",
		Long: "Publish a local file to LinkedIn, Instagram and/or Facebook. A platform-specific caption is " +
			"generated from --caption-prompt. When --file does not exist the most recently generated file of " +
			"the same type is used.",
		Example: `  genpost publish --platform linkedin --file ./launch.png --caption-prompt "New product launch"
  genpost publish --platform all --file ./team.jpg --caption-prompt "Team offsite"
  genpost publish --platform facebook --type video --file ./demo.mp4 --title "Demo" --caption-prompt "Product demo"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.platforms, "platform", "p", nil, "Platforms to publish to (linkedin, instagram, facebook, or all); defaults to the configured targets")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to the image or video")
	cmd.Flags().StringVarP(&opts.captionPrompt, "caption-prompt", "c", "", "Short description used to generate the caption")
	cmd.Flags().StringVarP(&opts.contentType, "type", "t", string(genpost.Image), "Content type (image or video)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Video title for LinkedIn and Facebook")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print actions without publishing")
	cmd.Flags().SortFlags = false
	_ = cmd.MarkFlagRequired("caption-prompt")
	return cmd
}

func runPublish(cmd *cobra.Command, opts *publishOptions) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	platforms, err := normalizePlatforms(opts.platforms, settings.Platforms())
	if err != nil {
		return err
	}

	req := genpost.Request{
		ContentPath:   opts.file,
		CaptionPrompt: opts.captionPrompt,
		ContentType:   opts.contentType,
		VideoTitle:    opts.title,
	}
	out := cmd.OutOrStdout()
	if opts.dryRun {
		for _, p := range platforms {
			fmt.Fprintf(out, "[dry-run] would publish %s %q to %s (caption prompt: %q)\n", req.ContentType, req.ContentPath, p.Title(), req.CaptionPrompt)
		}
		return nil
	}

	a, err := newApp(*settings, config.LoadCredentials())
	if err != nil {
		return err
	}
	return publishAll(cmd.Context(), a.dispatcher, platforms, req, out)
}

// normalizePlatforms de-duplicates the requested platforms, expanding "all".
func normalizePlatforms(values []string, defaults []genpost.Platform) ([]genpost.Platform, error) {
	if len(values) == 0 {
		if len(defaults) == 0 {
			return nil, errors.New("no platforms selected")
		}
		return defaults, nil
	}

	var result []genpost.Platform
	seen := map[genpost.Platform]struct{}{}
	for _, raw := range values {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" {
			continue
		}
		if raw == "all" {
			return append([]genpost.Platform(nil), genpost.Platforms...), nil
		}
		p, err := genpost.ParsePlatform(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	if len(result) == 0 {
		return nil, errors.New("no platforms selected")
	}
	return result, nil
}

func publishAll(ctx context.Context, d tools.Dispatcher, platforms []genpost.Platform, req genpost.Request, out io.Writer) error {
	var errs []error
	for _, p := range platforms {
		fmt.Fprintf(out, "publishing to %s...\n", p.Title())
		req.Platform = string(p)
		res := d.Publish(ctx, req)
		if !res.Success {
			fmt.Fprintln(out, res.ErrorMessage)
			errs = append(errs, fmt.Errorf("%s: %w", p.Title(), res.Err))
			continue
		}
		fmt.Fprintln(out, tools.PublishSummary(res, req.CaptionPrompt))
		fmt.Fprintln(out)
	}
	return errors.Join(errs...)
}
