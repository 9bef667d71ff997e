package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/coda-mcp/internal/coda"
)

// ListDocs lists documents visible to the API token.
func (s *Service) ListDocs(ctx context.Context, _ *mcp.CallToolRequest, input ListDocsInput) (*mcp.CallToolResult, DocsOutput, error) {
	list, err := s.api.ListDocs(ctx, coda.ListDocsOptions{
		Limit: clampLimit(input.Limit, defaultDocLimit),
		Query: input.Query,
	})
	if err != nil {
		return nil, DocsOutput{}, err
	}
	out := DocsOutput{Docs: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d documents", out.Count), out.Docs)
	if err != nil {
		return nil, DocsOutput{}, err
	}
	return textResult(text), out, nil
}

// SearchDocs finds documents matching a query.
func (s *Service) SearchDocs(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocsInput) (*mcp.CallToolResult, DocsOutput, error) {
	if err := requireArgs("query", input.Query); err != nil {
		return nil, DocsOutput{}, err
	}
	list, err := s.api.ListDocs(ctx, coda.ListDocsOptions{Query: input.Query})
	if err != nil {
		return nil, DocsOutput{}, err
	}
	out := DocsOutput{Docs: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d documents matching '%s'", out.Count, input.Query), out.Docs)
	if err != nil {
		return nil, DocsOutput{}, err
	}
	return textResult(text), out, nil
}

// GetDoc returns a document's metadata.
func (s *Service) GetDoc(ctx context.Context, _ *mcp.CallToolRequest, input DocInput) (*mcp.CallToolResult, DocOutput, error) {
	if err := requireArgs("doc_id", input.DocID); err != nil {
		return nil, DocOutput{}, err
	}
	doc, err := s.api.GetDoc(ctx, input.DocID)
	if err != nil {
		return nil, DocOutput{}, err
	}
	text, err := jsonBlock("Document: "+doc.Name, doc)
	if err != nil {
		return nil, DocOutput{}, err
	}
	return textResult(text), DocOutput{Doc: *doc}, nil
}

// CreateDoc creates a document, optionally from a template.
func (s *Service) CreateDoc(ctx context.Context, _ *mcp.CallToolRequest, input CreateDocInput) (*mcp.CallToolResult, DocOutput, error) {
	if err := requireArgs("title", input.Title); err != nil {
		return nil, DocOutput{}, err
	}
	doc, err := s.api.CreateDoc(ctx, coda.CreateDocRequest{
		Title:     input.Title,
		FolderID:  input.FolderID,
		SourceDoc: input.SourceDoc,
		Timezone:  input.Timezone,
	})
	if err != nil {
		return nil, DocOutput{}, err
	}
	summary := fmt.Sprintf("Document created successfully!\n\nName: %s\nID: %s", doc.Name, doc.ID)
	text, err := jsonBlock(summary, doc)
	if err != nil {
		return nil, DocOutput{}, err
	}
	return textResult(text), DocOutput{Doc: *doc}, nil
}

// DeleteDoc permanently deletes a document.
func (s *Service) DeleteDoc(ctx context.Context, _ *mcp.CallToolRequest, input DocInput) (*mcp.CallToolResult, DeletedOutput, error) {
	if err := requireArgs("doc_id", input.DocID); err != nil {
		return nil, DeletedOutput{}, err
	}
	if err := s.api.DeleteDoc(ctx, input.DocID); err != nil {
		return nil, DeletedOutput{}, err
	}
	text := fmt.Sprintf("Document '%s' deleted successfully.", input.DocID)
	return textResult(text), DeletedOutput{ID: input.DocID, Deleted: true}, nil
}
