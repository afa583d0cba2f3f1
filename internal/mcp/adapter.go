package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"agentplan/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolAdapter exposes an MCP tool as a positional plan tool. Positions map
// onto the schema's required properties in order, then the remaining
// properties sorted by name.
type ToolAdapter struct {
	client         *Client
	mcpTool        *mcp.Tool
	namespacedName string // e.g., "filesystem_read_file"
	params         []tool.Param
}

// NewToolAdapter creates an adapter for an MCP tool
func NewToolAdapter(client *Client, mcpTool *mcp.Tool) *ToolAdapter {
	return &ToolAdapter{
		client:         client,
		mcpTool:        mcpTool,
		namespacedName: fmt.Sprintf("%s_%s", client.Name(), mcpTool.Name),
		params:         paramsFromSchema(schemaMap(mcpTool.InputSchema)),
	}
}

// Name returns the namespaced tool name (server_tool)
func (a *ToolAdapter) Name() string {
	return a.namespacedName
}

// Description returns the MCP tool description
func (a *ToolAdapter) Description() string {
	desc := a.mcpTool.Description
	if desc == "" {
		desc = fmt.Sprintf("MCP tool from %s server", a.client.Name())
	}
	return fmt.Sprintf("%s [MCP Server: %s]", desc, a.client.Name())
}

func (a *ToolAdapter) Params() []tool.Param {
	return a.params
}

// Call maps positional args onto names and calls the MCP server
func (a *ToolAdapter) Call(ctx context.Context, args []any) (any, error) {
	named := make(map[string]any, len(args))
	for i, v := range args {
		if i >= len(a.params) {
			break
		}
		named[a.params[i].Name] = v
	}

	result, err := a.client.CallTool(ctx, a.mcpTool.Name, named)
	if err != nil {
		return nil, fmt.Errorf("MCP tool execution failed: %w", err)
	}

	if result.IsError {
		return nil, errors.New(formatMCPError(result))
	}
	return formatMCPContent(result.Content), nil
}

// schemaMap converts the SDK's untyped input schema to a map
func schemaMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(schemaBytes, &m); err != nil {
		return nil
	}
	return m
}

func paramsFromSchema(schema map[string]any) []tool.Param {
	props, _ := schema["properties"].(map[string]any)

	var params []tool.Param
	seen := make(map[string]bool)

	required, _ := schema["required"].([]any)
	for _, r := range required {
		name, ok := r.(string)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		params = append(params, tool.Param{Name: name, Description: propDescription(props[name])})
	}

	var rest []string
	for name := range props {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		params = append(params, tool.Param{Name: name, Description: propDescription(props[name]), Optional: true})
	}
	return params
}

func propDescription(prop any) string {
	m, ok := prop.(map[string]any)
	if !ok {
		return ""
	}
	desc, _ := m["description"].(string)
	return desc
}

// formatMCPContent converts MCP content array to string
func formatMCPContent(content []mcp.Content) string {
	var parts []string

	for _, item := range content {
		switch c := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)

		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[Image: %s]", c.MIMEType))

		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[Audio: %s]", c.MIMEType))

		default:
			// Unknown content type - try to marshal to JSON
			data, err := json.Marshal(item)
			if err != nil {
				parts = append(parts, fmt.Sprintf("[Unknown content type: %T]", item))
			} else {
				parts = append(parts, string(data))
			}
		}
	}

	return strings.Join(parts, "\n")
}

// formatMCPError extracts error message from MCP result
func formatMCPError(result *mcp.CallToolResult) string {
	if len(result.Content) > 0 {
		return formatMCPContent(result.Content)
	}

	return "MCP tool returned an error"
}
