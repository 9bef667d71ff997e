package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/coda-mcp/internal/logger"
	"github.com/dusk-indust/coda-mcp/internal/pageexport"
)

// ListPages lists the pages of a document.
func (s *Service) ListPages(ctx context.Context, _ *mcp.CallToolRequest, input DocInput) (*mcp.CallToolResult, PagesOutput, error) {
	if err := requireArgs("doc_id", input.DocID); err != nil {
		return nil, PagesOutput{}, err
	}
	list, err := s.api.ListPages(ctx, input.DocID)
	if err != nil {
		return nil, PagesOutput{}, err
	}
	out := PagesOutput{Pages: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d pages", out.Count), out.Pages)
	if err != nil {
		return nil, PagesOutput{}, err
	}
	return textResult(text), out, nil
}

// GetPage exports a page as HTML and returns it with the page name. When the
// caller sent a progress token, each export step is reported as a progress
// notification.
func (s *Service) GetPage(ctx context.Context, req *mcp.CallToolRequest, input PageInput) (*mcp.CallToolResult, PageOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "page_id", input.PageID); err != nil {
		return nil, PageOutput{}, err
	}

	page, err := s.exporter.Export(ctx, pageexport.Request{
		DocID:   input.DocID,
		PageID:  input.PageID,
		OnEvent: s.progressReporter(ctx, req),
	})
	if err != nil {
		return nil, PageOutput{}, err
	}

	out := PageOutput{
		PageID:   page.PageID,
		Name:     page.PageName,
		Content:  page.Content,
		ExportID: page.ExportID,
		Attempts: page.Attempts,
	}
	return textResult(page.Format()), out, nil
}

// progressReporter forwards export events to the client, or returns nil when
// the request carries no progress token.
func (s *Service) progressReporter(ctx context.Context, req *mcp.CallToolRequest) func(pageexport.Event) {
	if req == nil || req.Session == nil || req.Params == nil {
		return nil
	}
	token := req.Params.GetProgressToken()
	if token == nil {
		return nil
	}
	return func(ev pageexport.Event) {
		// Total is one initiate step, the poll budget, and the final step.
		total := float64(ev.MaxAttempts + 2)
		var progress float64
		switch {
		case ev.State == pageexport.StateInitiating:
			progress = 0
		case ev.State == pageexport.StatePolling:
			progress = float64(ev.Attempt)
		default:
			progress = total
		}
		err := req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      progress,
			Total:         total,
			Message:       pageexport.FormatEvent(ev),
		})
		if err != nil {
			s.log.Debug("Progress notification failed", logger.Error(err))
		}
	}
}
