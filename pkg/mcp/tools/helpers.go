package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dashlytics/insight-engine/pkg/models"
)

// trimString removes leading and trailing whitespace from a string.
// This is a common helper used across MCP tool parameter validation.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// parseDataset decodes the dataset JSON parameter shared by the data tools.
// Returns an actionable error result (not a Go error) when the payload is
// malformed or empty, so the agent can correct its call.
func parseDataset(raw string) (*models.Dataset, *mcp.CallToolResult) {
	raw = trimString(raw)
	if raw == "" {
		return nil, NewErrorResult("invalid_parameters", "parameter 'dataset' cannot be empty")
	}

	var dataset models.Dataset
	if err := json.Unmarshal([]byte(raw), &dataset); err != nil {
		return nil, NewErrorResult("invalid_dataset",
			fmt.Sprintf("dataset is not valid JSON: %v", err))
	}

	if dataset.IsEmpty() {
		return nil, NewErrorResult("empty_dataset",
			"dataset must contain at least one column and one row")
	}

	return &dataset, nil
}
