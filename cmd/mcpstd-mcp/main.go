// Package main provides the mcpstd-mcp binary: the validation tools served
// over MCP on stdio for AI agents.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpserver "github.com/ormasoftchile/mcpstd/pkg/ecosystem/mcp"
)

var version = "dev"

func main() {
	// stdout carries the protocol; logs go to stderr.
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	s := mcpserver.NewServer(version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", zap.Error(err))
		os.Exit(1)
	}
}
