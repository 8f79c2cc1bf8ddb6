package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpserver "github.com/ormasoftchile/mcpstd/pkg/ecosystem/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		log, err := newLogger(flagVerbose)
		if err != nil {
			return exitWrap(exitInfra, "init logger", err)
		}
		defer log.Sync()

		if err := server.ServeStdio(mcpserver.NewServer(version, log)); err != nil {
			return exitWrap(exitInfra, "mcp server", err)
		}
		return nil
	},
}
