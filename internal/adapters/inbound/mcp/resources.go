package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	auditURIPrefix = "shelfready://listings/"
	auditURISuffix = "/audit"
)

// registerResources registers all shelfready MCP resources on the given server.
func registerResources(s *server.MCPServer, h handlers) {
	// shelfready://listings/{id}/audit - last stored audit, no re-evaluation
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			auditURIPrefix+"{id}"+auditURISuffix,
			"Listing Audit",
			mcplib.WithTemplateDescription("Most recent stored audit of a listing in the configured shop"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		h.auditResource,
	)
}

func (h handlers) auditResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	id, ok := listingFromURI(request.Params.URI)
	if !ok {
		return nil, fmt.Errorf("invalid audit resource URI %q", request.Params.URI)
	}

	res, err := h.svc.Audits.LatestAudit(ctx, h.shop, id)
	if err != nil {
		return nil, fmt.Errorf("loading audit for %s: %w", id, err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling audit: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func listingFromURI(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, auditURIPrefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, auditURISuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
