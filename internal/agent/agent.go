// Package agent runs the tool-calling chat session behind the REPL.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/tools"
	"github.com/openai/openai-go"
)

const (
	defaultMaxRounds = 8
	emptyReply       = "I couldn't generate a response. Please try again."
)

// ErrTooManyRounds is returned when the model keeps calling tools past the round limit.
var ErrTooManyRounds = errors.New("too many tool rounds")

// Agent keeps the conversation and lets the model call the registered tools.
type Agent struct {
	client    *openai.Client
	registry  *tools.Registry
	model     string
	maxRounds int

	system  string
	params  []openai.ChatCompletionToolParam
	history []openai.ChatCompletionMessageParamUnion
}

// Option customizes an Agent.
type Option func(*Agent)

// WithModel selects the chat model.
func WithModel(model string) Option {
	return func(a *Agent) {
		if model = strings.TrimSpace(model); model != "" {
			a.model = model
		}
	}
}

// WithMaxRounds caps how many tool-calling round trips one message may take.
func WithMaxRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// New returns an Agent whose instructions reflect settings.
func New(client *openai.Client, registry *tools.Registry, settings config.Settings, opts ...Option) (*Agent, error) {
	if client == nil {
		return nil, errors.New("agent: openai client is required")
	}
	if registry == nil {
		return nil, errors.New("agent: tool registry is required")
	}
	a := &Agent{
		client:    client,
		registry:  registry,
		model:     llm.DefaultModel,
		maxRounds: defaultMaxRounds,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, t := range registry.Tools() {
		var schema openai.FunctionParameters
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("agent: schema for %s: %w", t.Name, err)
		}
		a.params = append(a.params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  schema,
			},
		})
	}
	a.Refresh(settings)
	return a, nil
}

// Refresh re-renders the instructions after the settings changed. History is kept.
func (a *Agent) Refresh(settings config.Settings) {
	a.system = SystemPrompt(settings)
}

// Reset forgets the conversation.
func (a *Agent) Reset() {
	a.history = nil
}

// Len returns the number of messages in the conversation.
func (a *Agent) Len() int { return len(a.history) }

// Chat sends input and returns the model's final answer after any tool calls.
// A failed turn leaves the history as it was before the call.
func (a *Agent) Chat(ctx context.Context, input string) (string, error) {
	turn := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(input)}

	for round := 0; round < a.maxRounds; round++ {
		messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(a.history)+len(turn)+1)
		messages = append(messages, openai.SystemMessage(a.system))
		messages = append(messages, a.history...)
		messages = append(messages, turn...)

		logutil.Debugf("agent round %d: messages=%d", round+1, len(messages))
		resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(a.model),
			Messages: messages,
			Tools:    a.params,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", llm.ErrEmptyCompletion
		}

		msg := resp.Choices[0].Message
		turn = append(turn, msg.ToParam())
		if len(msg.ToolCalls) == 0 {
			a.history = append(a.history, turn...)
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				reply = emptyReply
			}
			return reply, nil
		}

		for _, call := range msg.ToolCalls {
			out := a.runTool(ctx, call.Function.Name, call.Function.Arguments)
			turn = append(turn, openai.ToolMessage(out, call.ID))
		}
	}
	return "", fmt.Errorf("%w: stopped after %d", ErrTooManyRounds, a.maxRounds)
}

func (a *Agent) runTool(ctx context.Context, name, args string) string {
	logutil.Infof("calling tool %s", name)
	logutil.Debugf("tool %s args: %s", name, args)
	out, err := a.registry.Call(ctx, name, json.RawMessage(args))
	if err != nil {
		logutil.Warnf("tool %s: %v", name, err)
		return fmt.Sprintf("%s Tool error: %v", genpost.FailureMarker, err)
	}
	return out
}
