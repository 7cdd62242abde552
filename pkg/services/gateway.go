package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/llm"
	"github.com/dashlytics/insight-engine/pkg/logging"
	"github.com/dashlytics/insight-engine/pkg/models"
	"github.com/dashlytics/insight-engine/pkg/prompts"
	"github.com/dashlytics/insight-engine/pkg/retry"
)

// ============================================================================
// AI Delegation Gateway
// ============================================================================

// AIGateway delegates a question to the configured AI provider. The
// interpreter treats any error as "answer locally instead"; a gateway
// failure never fails the chat turn.
type AIGateway interface {
	// Available reports whether a provider is configured.
	Available() bool

	// Analyze asks the provider about the question over a bounded dataset
	// summary (never raw rows) and returns the cleaned answer, including a
	// validated chart when the reply suggested one.
	Analyze(ctx context.Context, question string, dataset *models.Dataset, schema []models.ColumnDescriptor) (models.Answer, error)
}

// aiGateway implements AIGateway.
type aiGateway struct {
	client  llm.ChatClient
	timeout time.Duration
	logger  *zap.Logger
}

// DefaultAITimeout bounds one provider call, retry included, when the
// configuration does not set its own limit.
const DefaultAITimeout = 30 * time.Second

// analysisTemperature is used for every analysis completion.
const analysisTemperature = 0.7

// NewAIGateway creates a gateway over the given client. A nil client is
// valid and yields a gateway that reports unavailable.
func NewAIGateway(client llm.ChatClient, timeout time.Duration, logger *zap.Logger) AIGateway {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &aiGateway{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("ai-gateway"),
	}
}

var _ AIGateway = (*aiGateway)(nil)

func (g *aiGateway) Available() bool {
	return g.client != nil
}

func (g *aiGateway) Analyze(ctx context.Context, question string, dataset *models.Dataset, schema []models.ColumnDescriptor) (models.Answer, error) {
	if g.client == nil {
		return models.Answer{}, fmt.Errorf("no AI provider configured")
	}

	// Both attempts share one request ID so provider-side traces line up
	// with this turn's log entries.
	ctx, requestID := llm.EnsureRequestID(ctx)

	summary := prompts.BuildDatasetContext(buildPromptContext(dataset, schema))
	system := prompts.BuildAnalysisSystemPrompt(summary)
	user := prompts.BuildAnalysisUserPrompt(question)

	text, err := g.generate(ctx, user, system)
	if err != nil {
		// Provider errors can echo request headers back; scrub before logging.
		g.logger.Warn("analysis call failed, retrying with simplified prompt",
			zap.String("provider", g.client.GetProvider()),
			zap.String("request_id", requestID),
			zap.String("error", logging.SanitizeError(err)))

		text, err = g.generate(ctx, prompts.BuildSimplifiedPrompt(question), "")
		if err != nil {
			g.logger.Error("AI analysis failed after retry",
				zap.String("provider", g.client.GetProvider()),
				zap.String("request_id", requestID),
				zap.String("error", logging.SanitizeError(err)))
			return models.Answer{}, err
		}
	}

	chart := parseVisualizationDirective(text, dataset)
	clean := stripVisualizationDirectives(text)
	if clean == "" {
		return models.Answer{}, fmt.Errorf("AI returned an empty analysis")
	}

	g.logger.Debug("AI analysis completed",
		zap.String("provider", g.client.GetProvider()),
		zap.String("model", g.client.GetModel()),
		zap.Bool("chart", chart != nil))

	return models.Answer{Text: clean, Chart: chart, Source: models.AnswerSourceAI}, nil
}

// generate runs one bounded completion call. Transient provider errors get
// one backoff retry; permanent ones (bad credentials, open circuit) return
// immediately so the prompt-level fallback can run.
func (g *aiGateway) generate(ctx context.Context, prompt, system string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var text string
	err := retry.DoIfRetryable(callCtx, nil, func() error {
		var callErr error
		text, callErr = g.client.GenerateResponse(callCtx, prompt, system, analysisTemperature)
		return callErr
	})
	return text, err
}

// buildPromptContext reduces the dataset to the bounded description embedded
// in prompts: counts, per-column profiles, and headline figures. Raw rows
// never leave the process.
func buildPromptContext(dataset *models.Dataset, schema []models.ColumnDescriptor) prompts.DatasetContext {
	if dataset.IsEmpty() {
		return prompts.DatasetContext{}
	}

	pctx := prompts.DatasetContext{Rows: dataset.RowCount()}
	for i := range schema {
		col := &schema[i]
		cc := prompts.ColumnContext{Name: col.Name, Kind: string(col.Role)}

		seen := make(map[string]bool)
		for _, row := range dataset.Rows {
			cell := row[col.Name]
			if cell.IsMissing() {
				continue
			}
			cc.NonNull++
			v := cell.String()
			if !seen[v] {
				seen[v] = true
				if col.Role == models.ColumnRoleCategorical && len(cc.Samples) < maxProfileSamples {
					cc.Samples = append(cc.Samples, v)
				}
			}
		}
		cc.Unique = len(seen)

		if col.Role == models.ColumnRoleNumeric {
			if ns := numericSummary(dataset.Rows, col.Name); ns.Count > 0 {
				cc.Min, cc.Max, cc.HasRange = ns.Min, ns.Max, true
			}
		}
		pctx.Columns = append(pctx.Columns, cc)
	}

	if statusCol := StatusColumn(schema); statusCol != nil {
		counts := valueCounts(dataset.Rows, statusCol.Name)
		if len(counts) > 3 {
			counts = counts[:3]
		}
		for _, vc := range counts {
			pctx.StatusDistribution = append(pctx.StatusDistribution, prompts.StatusShare{Value: vc.Value, Count: vc.Count})
		}
	}

	if revCol := RevenueColumn(schema); revCol != nil {
		var total float64
		for _, row := range dataset.Rows {
			if v, ok := row[revCol.Name].Float(); ok {
				total += v
			}
		}
		pctx.TotalRevenue = &total
	}
	return pctx
}

// vizDirectivePattern matches a visualization suggestion in an AI reply:
// kind|x|y|color|title, with color allowed to be empty.
var vizDirectivePattern = regexp.MustCompile(`(?i)VISUALIZATION:\s*([^|]+)\|([^|]+)\|([^|]+)\|([^|]*)\|([^|\n]+)`)

// vizDirectiveLine matches whole directive lines for removal from the
// display text, including one left at the end without a trailing newline.
var vizDirectiveLine = regexp.MustCompile(`(?i)VISUALIZATION:[^\n]*\n?`)

// parseVisualizationDirective extracts and validates a chart suggestion.
// Unknown kinds and unknown x/y columns drop the whole chart; an unknown
// color column drops just the color.
func parseVisualizationDirective(text string, dataset *models.Dataset) *models.ChartDescriptor {
	m := vizDirectivePattern.FindStringSubmatch(text)
	if m == nil || dataset.IsEmpty() {
		return nil
	}

	kind := models.ChartKind(strings.ToLower(strings.TrimSpace(m[1])))
	if !models.IsValidChartKind(kind) {
		return nil
	}
	x := strings.TrimSpace(m[2])
	y := strings.TrimSpace(m[3])
	if !dataset.HasColumn(x) || !dataset.HasColumn(y) {
		return nil
	}
	color := strings.TrimSpace(m[4])
	if color != "" && !dataset.HasColumn(color) {
		color = ""
	}

	return &models.ChartDescriptor{
		Kind:  kind,
		X:     x,
		Y:     y,
		Color: color,
		Title: strings.TrimSpace(m[5]),
	}
}

// stripVisualizationDirectives removes directive lines from the text shown
// to the user.
func stripVisualizationDirectives(text string) string {
	return strings.TrimSpace(vizDirectiveLine.ReplaceAllString(text, ""))
}
