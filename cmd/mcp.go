package cmd

import (
	"os"
	"strings"

	"github.com/blacktop/genpost/internal/config"
	"github.com/blacktop/genpost/internal/logutil"
	"github.com/blacktop/genpost/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the content tools over MCP (stdio)",
		Long:  "Start a Model Context Protocol server on stdin/stdout exposing image, video and caption generation, compliance checks and publishing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol
			logutil.SetOutput(os.Stderr)

			settings, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(*settings, config.LoadCredentials())
			if err != nil {
				return err
			}
			srv, err := mcp.NewServer(a.registry, Version)
			if err != nil {
				return err
			}
			logutil.Debugf("mcp tools: %s", strings.Join(a.registry.Names(), ", "))
			return srv.Serve(cmd.Context())
		},
	}
}
