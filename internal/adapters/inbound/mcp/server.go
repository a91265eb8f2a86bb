package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/abdidvp/shelfready/internal/application"
)

// NewServer creates an MCP server with all shelfready tools and resources
// registered. Tools that take no shop argument act on defaultShop.
func NewServer(svc application.Services, defaultShop, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"shelfready",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	h := handlers{svc: svc, shop: defaultShop}
	registerTools(s, h)
	registerResources(s, h)

	return s
}

type handlers struct {
	svc  application.Services
	shop string
}
