// Package mcp exposes the content tools over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/blacktop/genpost/internal/genpost"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/tools"
)

// Server wraps an MCP server backed by a tool registry.
type Server struct {
	mcp      *gomcp.Server
	registry *tools.Registry
}

// NewServer registers every tool in registry.
func NewServer(registry *tools.Registry, version string) (*Server, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		mcp: gomcp.NewServer(
			&gomcp.Implementation{
				Name:    "genpost",
				Version: version,
			},
			nil,
		),
		registry: registry,
	}
	for _, t := range registry.Tools() {
		s.mcp.AddTool(&gomcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
		}, s.handler(t.Name))
	}
	return s, nil
}

// Serve runs the server over stdio until ctx is done or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	logutil.Infof("serving %d tools over stdio", len(s.registry.Tools()))
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}

func (s *Server) handler(name string) gomcp.ToolHandler {
	return func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		out, err := s.registry.Call(ctx, name, req.Params.Arguments)
		if err != nil {
			return toolError("%v", err), nil
		}
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: out}},
			IsError: strings.HasPrefix(out, genpost.FailureMarker),
		}, nil
	}
}

func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
