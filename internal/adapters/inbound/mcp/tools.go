package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abdidvp/shelfready/internal/domain"
)

// registerTools registers all shelfready MCP tools on the given server.
func registerTools(s *server.MCPServer, h handlers) {
	shop := mcplib.WithString("shop", mcplib.Description("Shop ID (defaults to the configured shop)"))

	// 1. shelfready_audit
	s.AddTool(
		mcplib.NewTool("shelfready_audit",
			mcplib.WithDescription("Audit a listing against the shop's checklist and return the scored result as JSON"),
			mcplib.WithString("listing_id",
				mcplib.Required(),
				mcplib.Description("Catalog ID of the listing"),
			),
			shop,
		),
		h.audit,
	)

	// 2. shelfready_fix
	s.AddTool(
		mcplib.NewTool("shelfready_fix",
			mcplib.WithDescription("Fix a failing rule on a listing, or apply every automatic fix when auto is set. Returns the fix outcomes and the new audit."),
			mcplib.WithString("listing_id",
				mcplib.Required(),
				mcplib.Description("Catalog ID of the listing"),
			),
			mcplib.WithString("rule", mcplib.Description("Rule key to fix, e.g. has_vendor")),
			mcplib.WithBoolean("auto", mcplib.Description("Apply all automatic fixes instead of a single rule")),
			mcplib.WithObject("config", mcplib.Description("Fix parameters such as vendor, collection or tone")),
			shop,
		),
		h.fix,
	)

	// 3. shelfready_rules
	s.AddTool(
		mcplib.NewTool("shelfready_rules",
			mcplib.WithDescription("List the shop's rule definitions in evaluation order"),
			shop,
		),
		h.rules,
	)

	// 4. shelfready_credits
	s.AddTool(
		mcplib.NewTool("shelfready_credits",
			mcplib.WithDescription("Report whether AI fixes are allowed and how many credits remain this period"),
			shop,
		),
		h.credits,
	)

	// 5. shelfready_history
	s.AddTool(
		mcplib.NewTool("shelfready_history",
			mcplib.WithDescription("List the recorded field changes for a listing, newest first"),
			mcplib.WithString("listing_id",
				mcplib.Required(),
				mcplib.Description("Catalog ID of the listing"),
			),
			shop,
		),
		h.history,
	)
}

func (h handlers) shopFrom(request mcplib.CallToolRequest) string {
	return request.GetString("shop", h.shop)
}

func (h handlers) audit(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, err := request.RequireString("listing_id")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	res, err := h.svc.Audits.AuditListing(ctx, h.shopFrom(request), id)
	if err != nil {
		return errorResult(fmt.Sprintf("audit failed: %s", domain.UserMessage(err))), nil
	}
	return jsonResult(res)
}

type fixResult struct {
	Outcomes []domain.FixOutcome `json:"outcomes"`
	Audit    *domain.AuditResult `json:"audit,omitempty"`
}

func (h handlers) fix(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, err := request.RequireString("listing_id")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	cfg, err := fixConfig(request.GetArguments()["config"])
	if err != nil {
		return errorResult(err.Error()), nil
	}
	shopID := h.shopFrom(request)

	if request.GetBool("auto", false) {
		outcomes, final, err := h.svc.Fixes.ApplyAutoFixes(ctx, shopID, id, cfg)
		if err != nil {
			return errorResult(fmt.Sprintf("fix failed: %s", domain.UserMessage(err))), nil
		}
		return jsonResult(fixResult{Outcomes: outcomes, Audit: final})
	}

	rule := request.GetString("rule", "")
	if rule == "" {
		return errorResult("either rule or auto is required"), nil
	}
	outcome, err := h.svc.Fixes.ApplyFix(ctx, shopID, id, domain.RuleKey(rule), cfg)
	if err != nil {
		return errorResult(fmt.Sprintf("fix failed: %s", domain.UserMessage(err))), nil
	}
	return jsonResult(fixResult{Outcomes: []domain.FixOutcome{outcome}, Audit: outcome.Audit})
}

func (h handlers) rules(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	defs, err := h.svc.Rules.ListRules(ctx, h.shopFrom(request))
	if err != nil {
		return errorResult(fmt.Sprintf("listing rules failed: %v", err)), nil
	}
	return jsonResult(defs)
}

func (h handlers) credits(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	decision, err := h.svc.Fixes.Credits(ctx, h.shopFrom(request))
	if err != nil {
		return errorResult(fmt.Sprintf("credit check failed: %v", err)), nil
	}
	return jsonResult(decision)
}

func (h handlers) history(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, err := request.RequireString("listing_id")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	entries, err := h.svc.Fixes.History(ctx, h.shopFrom(request), id)
	if err != nil {
		return errorResult(fmt.Sprintf("history failed: %v", err)), nil
	}
	return jsonResult(entries)
}

// fixConfig accepts a JSON object of string values. Numbers and booleans are
// formatted as text since fix parameters are strings.
func fixConfig(raw any) (domain.FixConfig, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config must be an object")
	}
	cfg := make(domain.FixConfig, len(obj))
	for k, v := range obj {
		switch v := v.(type) {
		case string:
			cfg[k] = v
		case float64, bool:
			cfg[k] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("config value %q must be a string", k)
		}
	}
	return cfg, nil
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
