package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/abdidvp/shelfready/internal/adapters/inbound/mcp"
	"github.com/abdidvp/shelfready/internal/app"
)

func newMCPCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the shelfready MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(rt))
	return cmd
}

func newMCPServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start shelfready MCP server (stdio)",
		Long:  "Start the shelfready MCP server using stdio transport. This lets AI assistants audit listings, apply fixes and read change history.",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			s := mcpadapter.NewServer(a.Services, rt.cfg.Shop.ID, version)
			return server.ServeStdio(s)
		}),
	}
}
