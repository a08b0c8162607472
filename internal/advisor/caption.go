package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
)

const (
	captionTemperature = 0.8
	captionMaxTokens   = 1000
)

// PlatformGuide holds per-network caption limits.
type PlatformGuide struct {
	MaxLength    int
	HashtagCount string
	Notes        string
}

var platformGuides = map[string]PlatformGuide{
	"instagram": {2200, "20-30", "Visual-first, storytelling works well, hashtags in comments or at end"},
	"linkedin":  {3000, "3-5", "Professional tone, thought leadership, industry-specific hashtags"},
	"twitter":   {280, "1-3", "Concise, punchy, trending hashtags work best"},
	"tiktok":    {2200, "4-6", "Trendy, casual, include trending sounds/challenges references"},
	"facebook":  {63206, "1-3", "Conversational, questions engage well, minimal hashtags"},
}

// Guide returns the guide for platform, falling back to instagram.
func Guide(platform string) (string, PlatformGuide) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if g, ok := platformGuides[platform]; ok {
		return platform, g
	}
	return "instagram", platformGuides["instagram"]
}

// CaptionRequest describes a standalone caption.
type CaptionRequest struct {
	Description     string
	Platform        string
	Style           string
	IncludeHashtags bool
	IncludeEmojis   bool
}

// Caption writes a platform-tuned caption and appends the guidelines it applied.
func (a *Advisor) Caption(ctx context.Context, req CaptionRequest) (string, error) {
	platform, guide := Guide(req.Platform)
	style := strings.ToLower(strings.TrimSpace(req.Style))
	if style == "" {
		style = "professional"
	}
	if a.completer == nil {
		return "", fmt.Errorf("caption generation: no completion service configured")
	}

	logutil.Debugf("caption: platform=%s style=%s hashtags=%t emojis=%t", platform, style, req.IncludeHashtags, req.IncludeEmojis)
	text, err := a.completer.Complete(ctx, llm.Request{
		System:      captionSystemPrompt(platform, style, guide, req.IncludeHashtags, req.IncludeEmojis),
		User:        fmt.Sprintf("Create a %s caption for %s about:\n\n%s\n\nMake it engaging and optimized for maximum reach and engagement.", style, platform, req.Description),
		Model:       a.model,
		Temperature: captionTemperature,
		MaxTokens:   captionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("caption generation: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Caption Generated for %s!\n\n", strings.ToUpper(platform))
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n📊 Platform Guidelines Applied:\n")
	fmt.Fprintf(&b, "   • Max Length: %d chars\n", guide.MaxLength)
	fmt.Fprintf(&b, "   • Recommended Hashtags: %s\n", guide.HashtagCount)
	fmt.Fprintf(&b, "   • Style: %s", strings.ToUpper(style[:1])+style[1:])
	return b.String(), nil
}

func captionSystemPrompt(platform, style string, g PlatformGuide, hashtags, emojis bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert social media content creator specializing in %s.\n\n", platform)
	b.WriteString("Your task is to create engaging captions that:\n")
	fmt.Fprintf(&b, "1. Match the %s tone/style\n", style)
	fmt.Fprintf(&b, "2. Are optimized for %s (max %d characters)\n", platform, g.MaxLength)
	if hashtags {
		fmt.Fprintf(&b, "3. Include %s relevant, trending hashtags\n", g.HashtagCount)
	} else {
		b.WriteString("3. Do NOT include hashtags\n")
	}
	if emojis {
		b.WriteString("4. Include appropriate emojis\n")
	} else {
		b.WriteString("4. Do NOT include emojis\n")
	}
	fmt.Fprintf(&b, "5. %s\n\n", g.Notes)
	b.WriteString("Format your response as:\nCAPTION:\n[The main caption text]\n")
	if hashtags {
		b.WriteString("\nHASHTAGS:\n[Space-separated hashtags]\n")
	}
	return b.String()
}
