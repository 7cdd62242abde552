// Package tools provides MCP tool implementations for insight-engine.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/models"
	"github.com/dashlytics/insight-engine/pkg/services"
)

// DataToolDeps contains dependencies for the dataset analysis tools.
type DataToolDeps struct {
	Schema services.SchemaService
	Logger *zap.Logger
}

// datasetParamDescription documents the shared dataset payload parameter.
const datasetParamDescription = "Dataset as a JSON object with 'columns' (array of column names) " +
	"and 'rows' (array of objects mapping column name to cell value). " +
	"An optional 'temporal_columns' array flags known date columns. " +
	"Example: {\"columns\":[\"Status\"],\"rows\":[{\"Status\":\"Red\"}]}"

// RegisterDataTools registers the stateless dataset analysis MCP tools.
// Each call carries its own dataset payload, so agents can analyze data
// without creating a chat session first.
func RegisterDataTools(s *server.MCPServer, deps *DataToolDeps) {
	registerAskDataTool(s, deps)
	registerDescribeDatasetTool(s, deps)
	registerListColumnsTool(s, deps)
}

type askDataResult struct {
	Text   string                  `json:"text"`
	Chart  *models.ChartDescriptor `json:"chart,omitempty"`
	Source models.AnswerSource     `json:"source"`
}

// registerAskDataTool adds the ask_data tool for answering natural-language
// questions about a dataset with the deterministic pipeline.
func registerAskDataTool(s *server.MCPServer, deps *DataToolDeps) {
	tool := mcp.NewTool(
		"ask_data",
		mcp.WithDescription(
			"Answer a natural-language question about a tabular dataset using deterministic analysis. "+
				"Handles status counts, entity lookups, top-N rankings, trends, summary statistics, and listings. "+
				"Returns answer text plus an optional chart descriptor. "+
				"Example: ask_data(question='How many projects have status Red?', dataset='{...}').",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. 'What is the total revenue for Aramco Digital?'"),
		),
		mcp.WithString(
			"dataset",
			mcp.Required(),
			mcp.Description(datasetParamDescription),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}
		question = trimString(question)
		if question == "" {
			return NewErrorResult("invalid_parameters", "parameter 'question' cannot be empty"), nil
		}

		raw, err := req.RequireString("dataset")
		if err != nil {
			return nil, err
		}
		dataset, errResult := parseDataset(raw)
		if errResult != nil {
			return errResult, nil
		}

		schema := deps.Schema.Introspect(ctx, dataset)
		answer := services.AnswerLocally(question, dataset, schema)

		deps.Logger.Debug("ask_data answered",
			zap.String("question", question),
			zap.Bool("has_chart", answer.Chart != nil))

		result, err := json.Marshal(askDataResult{
			Text:   answer.Text,
			Chart:  answer.Chart,
			Source: answer.Source,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal answer: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}

type describeDatasetResult struct {
	Rows     int                    `json:"rows"`
	Columns  int                    `json:"columns"`
	Profiles []models.ColumnProfile `json:"profiles"`
}

// registerDescribeDatasetTool adds the describe_dataset tool for profiling
// a dataset before asking questions about it.
func registerDescribeDatasetTool(s *server.MCPServer, deps *DataToolDeps) {
	tool := mcp.NewTool(
		"describe_dataset",
		mcp.WithDescription(
			"Profile a tabular dataset: row and column counts plus per-column role "+
				"(numeric, categorical, temporal), non-null count, unique count, and sample values. "+
				"Use this before ask_data to learn what the dataset contains.",
		),
		mcp.WithString(
			"dataset",
			mcp.Required(),
			mcp.Description(datasetParamDescription),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("dataset")
		if err != nil {
			return nil, err
		}
		dataset, errResult := parseDataset(raw)
		if errResult != nil {
			return errResult, nil
		}

		schema := deps.Schema.Introspect(ctx, dataset)
		profiles := deps.Schema.Profile(ctx, dataset, schema)

		result, err := json.Marshal(describeDatasetResult{
			Rows:     dataset.RowCount(),
			Columns:  dataset.ColumnCount(),
			Profiles: profiles,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dataset profile: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}

type listColumnsResult struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Temporal    []string `json:"temporal"`
}

// registerListColumnsTool adds the list_columns tool for a quick view of
// the dataset's columns grouped by inferred role.
func registerListColumnsTool(s *server.MCPServer, deps *DataToolDeps) {
	tool := mcp.NewTool(
		"list_columns",
		mcp.WithDescription(
			"List a dataset's columns grouped by inferred role: numeric, categorical, temporal. "+
				"Lighter than describe_dataset when only column names are needed.",
		),
		mcp.WithString(
			"dataset",
			mcp.Required(),
			mcp.Description(datasetParamDescription),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("dataset")
		if err != nil {
			return nil, err
		}
		dataset, errResult := parseDataset(raw)
		if errResult != nil {
			return errResult, nil
		}

		grouped := listColumnsResult{
			Numeric:     []string{},
			Categorical: []string{},
			Temporal:    []string{},
		}
		for _, col := range deps.Schema.Introspect(ctx, dataset) {
			switch col.Role {
			case models.ColumnRoleNumeric:
				grouped.Numeric = append(grouped.Numeric, col.Name)
			case models.ColumnRoleTemporal:
				grouped.Temporal = append(grouped.Temporal, col.Name)
			default:
				grouped.Categorical = append(grouped.Categorical, col.Name)
			}
		}

		result, err := json.Marshal(grouped)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal column listing: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
