package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/coda-mcp/internal/coda"
	"github.com/dusk-indust/coda-mcp/internal/logger"
	"github.com/dusk-indust/coda-mcp/internal/metrics"
	"github.com/dusk-indust/coda-mcp/internal/pageexport"
)

// API is the part of the Coda client the tool handlers call.
type API interface {
	ListDocs(ctx context.Context, opts coda.ListDocsOptions) (*coda.DocList, error)
	GetDoc(ctx context.Context, docID string) (*coda.Doc, error)
	CreateDoc(ctx context.Context, req coda.CreateDocRequest) (*coda.Doc, error)
	DeleteDoc(ctx context.Context, docID string) error
	ListPages(ctx context.Context, docID string) (*coda.PageList, error)
	ListTables(ctx context.Context, docID string) (*coda.TableList, error)
	GetTable(ctx context.Context, docID, tableID string) (*coda.Table, error)
	ListColumns(ctx context.Context, docID, tableID string) (*coda.ColumnList, error)
	ListRows(ctx context.Context, docID, tableID string, opts coda.ListRowsOptions) (*coda.RowList, error)
	GetRow(ctx context.Context, docID, tableID, rowID string) (*coda.Row, error)
	InsertRows(ctx context.Context, docID, tableID string, req coda.InsertRowsRequest) (*coda.RowMutationResponse, error)
	UpdateRow(ctx context.Context, docID, tableID, rowID string, req coda.UpdateRowRequest) (*coda.RowMutationResponse, error)
	DeleteRow(ctx context.Context, docID, tableID, rowID string) error
	ListFormulas(ctx context.Context, docID string) (*coda.FormulaList, error)
	GetFormula(ctx context.Context, docID, formulaID string) (*coda.Formula, error)
	ListControls(ctx context.Context, docID string) (*coda.ControlList, error)
}

var _ API = (*coda.Client)(nil)

// PageExporter runs the get_page export workflow.
type PageExporter interface {
	Export(ctx context.Context, req pageexport.Request) (*pageexport.RenderedPage, error)
}

var _ PageExporter = (*pageexport.Exporter)(nil)

// Service holds the collaborators used by MCP tool handlers.
type Service struct {
	api      API
	exporter PageExporter
	log      logger.Logger
	metrics  *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for per-call records.
func WithLogger(l logger.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

// WithMetrics counts tool calls on m.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service backed by api and exporter.
func NewService(api API, exporter PageExporter, opts ...ServiceOption) *Service {
	s := &Service{
		api:      api,
		exporter: exporter,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	defaultDocLimit = 50
	defaultRowLimit = 100
	maxListLimit    = 1000

	asyncWriteNote = "Note: Changes may take a few seconds to appear."
)

// clampLimit applies def to unset limits and caps the rest at maxListLimit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxListLimit)
}

// requireArgs returns "<field> is required" for the first empty value.
// pairs alternates field names and values.
func requireArgs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%s is required", pairs[i])
		}
	}
	return nil
}

// jsonBlock renders a summary line followed by v as an indented JSON fence.
func jsonBlock(summary string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return fmt.Sprintf("%s\n\n```json\n%s\n```", summary, data), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// nonNil keeps empty list outputs as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// instrument wraps a handler with the per-call log line and counter.
func instrument[In, Out any](s *Service, tool string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		s.log.Debug("Tool call", logger.String("tool", tool), logger.Any("args", in))

		res, out, err := h(ctx, req, in)

		fields := []logger.Field{
			logger.String("tool", tool),
			logger.Duration("duration", time.Since(start)),
		}
		if err != nil {
			s.metrics.ObserveToolCall(tool, outcomeFor(err))
			s.log.Warn("Tool call failed", append(fields, logger.Error(err))...)
			return res, out, err
		}
		s.metrics.ObserveToolCall(tool, "ok")
		s.log.Info("Tool call complete", fields...)
		return res, out, nil
	}
}

// outcomeFor labels a failed call for the tool-call counter.
func outcomeFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, coda.ErrRateLimited):
		return "rate_limited"
	case pageexport.KindOf(err) != 0:
		return "export_" + pageexport.KindOf(err).String()
	default:
		return "error"
	}
}
