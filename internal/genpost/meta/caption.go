package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/llm"
)

const (
	captionSystem    = "You write short, engaging Instagram and Facebook captions."
	captionMaxTokens = 120
	captionTemp      = 0.7
)

// CaptionRequest builds the short-caption prompt Facebook and Instagram share.
func CaptionRequest(prompt string) llm.Request {
	return llm.Request{
		System:      captionSystem,
		User:        fmt.Sprintf("Write a short caption (max 2 lines) with 5 relevant hashtags for: %s", prompt),
		Model:       llm.DefaultModel,
		MaxTokens:   captionMaxTokens,
		Temperature: captionTemp,
	}
}

// Caption runs CaptionRequest and wraps failures as a CaptionError.
func Caption(ctx context.Context, completer llm.Completer, provider, prompt string) (string, error) {
	if completer == nil {
		return "", &genpost.CaptionError{Provider: provider, Err: fmt.Errorf("no completion service configured")}
	}
	text, err := completer.Complete(ctx, CaptionRequest(prompt))
	if err != nil {
		return "", &genpost.CaptionError{Provider: provider, Err: err}
	}
	return strings.TrimSpace(text), nil
}
