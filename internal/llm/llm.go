// Package llm wraps the chat completion service used for captions and compliance reports.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is used when a Request does not name one.
	DefaultModel = "gpt-4o"

	envAPIKey    = "OPENAI_API_KEY"
	providerName = "openai"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Request is a single system+user completion.
type Request struct {
	System      string
	User        string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Completer produces text from a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Config holds what the OpenAI client needs.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAI implements Completer on top of openai-go.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds a client. A missing key fails here so callers can report it up front.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, genpost.MissingEnvError{Provider: providerName, Variables: []string{envAPIKey}}
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}, nil
}

// Client exposes the underlying SDK client for image, video and tool-calling use.
func (o *OpenAI) Client() *openai.Client { return &o.client }

// Model returns the default chat model.
func (o *OpenAI) Model() string { return o.model }

// Complete sends one chat completion and returns the trimmed reply.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	logutil.Debugf("chat completion: model=%s max_tokens=%d", model, req.MaxTokens)
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
