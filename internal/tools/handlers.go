package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blacktop/genpost/internal/advisor"
	"github.com/blacktop/genpost/internal/generate"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/media"
)

var optimalPlatforms = map[string][]string{
	"16:9": {"YouTube", "LinkedIn", "Twitter", "Facebook"},
	"9:16": {"TikTok", "Instagram Reels", "YouTube Shorts", "Snapchat"},
	"1:1":  {"Instagram Feed", "Facebook", "LinkedIn"},
	"4:5":  {"Instagram Feed", "Facebook"},
}

type handlers struct {
	deps Deps
}

func decode(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// failure renders err under label, dropping a "what: " prefix the callee already added.
func failure(label, what string, err error) string {
	msg := strings.TrimPrefix(err.Error(), what+": ")
	return fmt.Sprintf("%s %s failed: %s", genpost.FailureMarker, label, msg)
}

func (h *handlers) image(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Prompt  string `json:"prompt"`
		Size    string `json:"size"`
		Quality string `json:"quality"`
	}
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if h.deps.Generator == nil {
		return fmt.Sprintf("%s Image generation failed: no image generator configured", genpost.FailureMarker), nil
	}
	if args.Size == "" {
		args.Size = h.deps.Settings.ImageSize
	}
	if args.Quality == "" {
		args.Quality = h.deps.Settings.ImageQuality
	}

	asset, err := h.deps.Generator.Image(ctx, generate.ImageRequest{Prompt: args.Prompt, Size: args.Size, Quality: args.Quality})
	if err != nil && (asset == nil || asset.URL == "") {
		return failure("Image generation", "generate image", err), nil
	}
	local := asset.LocalPath
	if err != nil {
		logutil.Warnf("image generated but not saved: %v", err)
		local = "Download failed: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("✓ Image Generated Successfully!\n\n")
	fmt.Fprintf(&b, "🖼️  Image URL: %s\n\n", asset.URL)
	fmt.Fprintf(&b, "💾 Local Path: %s\n\n", local)
	fmt.Fprintf(&b, "📝 DALL-E's Interpretation: %s\n\n", asset.RevisedPrompt)
	fmt.Fprintf(&b, "📐 Size: %s | Quality: %s\n\n", asset.Size, asset.Quality)
	b.WriteString("💡 Tip: The image has been saved locally and can be accessed at the path above.")
	return b.String(), nil
}

func (h *handlers) video(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Prompt      string `json:"prompt"`
		Platform    string `json:"platform"`
		AspectRatio string `json:"aspect_ratio"`
		Seconds     int    `json:"seconds"`
	}
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if h.deps.Generator == nil {
		return fmt.Sprintf("%s Video generation failed: no video generator configured", genpost.FailureMarker), nil
	}
	if args.Seconds == 0 {
		args.Seconds = h.deps.Settings.VideoDuration
	}
	if args.AspectRatio == "" {
		args.AspectRatio = h.deps.Settings.VideoAspectRatio
	}

	asset, err := h.deps.Generator.Video(ctx, generate.VideoRequest{
		Prompt:      args.Prompt,
		Platform:    args.Platform,
		AspectRatio: args.AspectRatio,
		Seconds:     args.Seconds,
	})
	if err != nil && (asset == nil || asset.ID == "") {
		return failure("Video generation", "create video", err), nil
	}

	download := "💾 Local Path: " + asset.LocalPath
	if err != nil {
		logutil.Warnf("video %s generated but not saved: %v", asset.ID, err)
		download = fmt.Sprintf("⚠️  Local download failed: %v\n   Fetch the content of video %s manually.", err, asset.ID)
	}
	platform := "General"
	if asset.Platform != "" {
		platform = strings.ToUpper(asset.Platform)
	}

	var b strings.Builder
	b.WriteString("✓ Video Generated Successfully!\n\n")
	fmt.Fprintf(&b, "🎬 Video ID: %s\n\n", asset.ID)
	fmt.Fprintf(&b, "%s\n\n", download)
	fmt.Fprintf(&b, "📱 Platform: %s\n\n", platform)
	b.WriteString("📊 Video Details:\n")
	fmt.Fprintf(&b, "   • Duration: %d seconds\n", asset.Seconds)
	fmt.Fprintf(&b, "   • Aspect Ratio: %s\n", asset.AspectRatio)
	fmt.Fprintf(&b, "   • Resolution: %s\n\n", asset.Resolution)
	fmt.Fprintf(&b, "🎯 Optimal Platforms for %s: %s\n\n", asset.AspectRatio, strings.Join(optimalPlatforms[asset.AspectRatio], ", "))
	b.WriteString("✓ Generated following brand design and policy guidelines.")
	return b.String(), nil
}

func (h *handlers) caption(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Description     string `json:"content_description"`
		Platform        string `json:"platform"`
		Style           string `json:"style"`
		IncludeHashtags *bool  `json:"include_hashtags"`
		IncludeEmojis   *bool  `json:"include_emojis"`
	}
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if h.deps.Advisor == nil {
		return fmt.Sprintf("%s Caption generation failed: no completion service configured", genpost.FailureMarker), nil
	}
	if args.Style == "" {
		args.Style = h.deps.Settings.CaptionStyle
	}

	out, err := h.deps.Advisor.Caption(ctx, advisor.CaptionRequest{
		Description:     args.Description,
		Platform:        args.Platform,
		Style:           args.Style,
		IncludeHashtags: boolOr(args.IncludeHashtags, true),
		IncludeEmojis:   boolOr(args.IncludeEmojis, true),
	})
	if err != nil {
		return failure("Caption generation", "caption generation", err), nil
	}
	return out, nil
}

func (h *handlers) policy(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Description string `json:"content_description"`
		Caption     string `json:"caption"`
		Platform    string `json:"platform"`
	}
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if h.deps.Advisor == nil {
		return fmt.Sprintf("%s Policy compliance check failed: no completion service configured", genpost.FailureMarker), nil
	}
	report, err := h.deps.Advisor.CheckPolicy(ctx, args.Description, args.Caption, args.Platform)
	if err != nil {
		return failure("Policy compliance check", "policy compliance check", err), nil
	}
	return report, nil
}

func (h *handlers) design(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Description string `json:"content_description"`
		ContentType string `json:"content_type"`
		Resolution  string `json:"resolution"`
		FilePath    string `json:"file_path"`
	}
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if h.deps.Advisor == nil {
		return fmt.Sprintf("%s Design compliance check failed: no completion service configured", genpost.FailureMarker), nil
	}
	if args.Resolution == "" && args.FilePath != "" && !strings.EqualFold(args.ContentType, string(genpost.Video)) {
		if res, err := media.Resolution(args.FilePath); err == nil {
			args.Resolution = res
		} else {
			logutil.Debugf("detect resolution of %s: %v", args.FilePath, err)
		}
	}
	report, err := h.deps.Advisor.CheckDesign(ctx, args.Description, args.ContentType, args.Resolution)
	if err != nil {
		return failure("Design compliance check", "design compliance check", err), nil
	}
	return report, nil
}

func (h *handlers) publish(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		Platform      string `json:"platform"`
		ContentPath   string `json:"content_path"`
		CaptionPrompt string `json:"caption_prompt"`
		ContentType   string `json:"content_type"`
		VideoTitle    string `json:"video_title"`
	}
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if h.deps.Dispatcher == nil {
		return fmt.Sprintf("%s Publishing failed: no publishers configured", genpost.FailureMarker), nil
	}

	res := h.deps.Dispatcher.Publish(ctx, genpost.Request{
		Platform:      args.Platform,
		ContentPath:   args.ContentPath,
		CaptionPrompt: args.CaptionPrompt,
		ContentType:   args.ContentType,
		VideoTitle:    args.VideoTitle,
	})
	if !res.Success {
		return res.ErrorMessage, nil
	}
	return PublishSummary(res, args.CaptionPrompt), nil
}

// PublishSummary renders a successful publish result.
func PublishSummary(res genpost.Result, captionPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Published to %s!\n\n", res.Platform.Title())
	fmt.Fprintf(&b, "📱 Platform: %s\n", res.Platform.Title())
	fmt.Fprintf(&b, "📄 Content: %s\n", res.ContentType.Title())
	fmt.Fprintf(&b, "📁 File: %s\n", res.FilePath)
	if res.Platform == genpost.Instagram {
		fmt.Fprintf(&b, "📝 Generated Caption: %s", res.Caption)
		if res.PostID != "" {
			fmt.Fprintf(&b, "\n🆔 Post ID: %s", res.PostID)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "📝 Caption Prompt: %s\n\n", captionPrompt)
	details := string(res.Raw)
	if details == "" {
		details = res.PostID
	}
	fmt.Fprintf(&b, "🔗 Post Details: %s", details)
	return b.String()
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
