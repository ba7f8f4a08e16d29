// Package main exposes hook generation as a Model Context Protocol tool over
// stdio. Logs go to stderr; stdout carries the protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-hooks/internal/backend"
	"github.com/fpang/media-hooks/internal/config"
	"github.com/fpang/media-hooks/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "hooks-mcp",
	Short: "MCP server offering the generate_hooks tool",
	Long: `Hooks MCP speaks the Model Context Protocol on stdin/stdout and offers one
tool, generate_hooks, which captions a local photo or video.

Example client configuration:
  {"command": "hooks-mcp"}`,
	SilenceUsage: true,
	RunE:         runMain,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := backend.New(ctx, cfg)
	if err != nil {
		return err
	}

	logging.NewStartupLogger("hooks-mcp").
		CommitHash(commitHash).
		Provider("vision", be.VisionName).
		Provider("text", be.TextName).
		Feature("video", be.Video != nil).
		Log()

	server := newServer(be.Orchestrator(cfg), cfg.MaxUploadBytes)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server stopped")
		return err
	}
	return nil
}
