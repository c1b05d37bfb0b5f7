package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/journal"
)

// presetIDs lists the built-in cover presets, e.g. "default, rpg, racing".
func presetIDs() string {
	presets := journal.Presets()
	ids := make([]string, len(presets))
	for i, p := range presets {
		ids[i] = p.ID
	}
	return strings.Join(ids, ", ")
}

// stringArg returns a trimmed string argument and whether it was given.
func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	v, ok := request.Params.Arguments[name].(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// boolArg returns a pointer so absent arguments can be told apart.
func boolArg(request mcp.CallToolRequest, name string) (*bool, error) {
	raw, present := request.Params.Arguments[name]
	if !present || raw == nil {
		return nil, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("'%s' must be a boolean", name)
	}
	return &b, nil
}

// idArg accepts identifiers as JSON numbers or numeric strings.
func idArg(request mcp.CallToolRequest, name string) (journal.ID, error) {
	switch v := request.Params.Arguments[name].(type) {
	case float64:
		if v != math.Trunc(v) || v <= 0 {
			return 0, fmt.Errorf("'%s' must be a positive integer", name)
		}
		return journal.ID(v), nil
	case string:
		id, err := journal.ParseID(v)
		if err != nil {
			return 0, fmt.Errorf("'%s' must be a positive integer", name)
		}
		return id, nil
	case nil:
		return 0, fmt.Errorf("'%s' parameter is required", name)
	default:
		return 0, fmt.Errorf("'%s' must be a positive integer", name)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns a core error into a tool error, keeping validation
// reasons readable.
func errorResult(action string, err error) *mcp.CallToolResult {
	if apperror.IsValidation(err) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %s", action, apperror.Reason(err)))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func notFound(resource string, id journal.ID) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperror.NotFound(resource, id.String()).Error())
}
