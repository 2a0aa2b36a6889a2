package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/vibecam/internal/cli"
	"github.com/aretw0/vibecam/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes Vibe Cam to AI agents as MCP tools: init_schema, chat, generate_photo
and list_cameras, plus the vibecam://cameras resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg)
		if err != nil {
			return fmt.Errorf("error initializing vibecam: %w", err)
		}
		defer app.Close()

		srv := mcp.NewServer(app.Engine,
			mcp.WithSessions(app.Sessions),
			mcp.WithSanitizer(app.Sanitizer),
			mcp.WithLogger(app.Logger),
		)

		switch transport {
		case "stdio":
			app.Logger.Info("starting vibecam MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			app.Logger.Info("starting vibecam MCP server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			app.Logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
