package coda

import (
	"context"
	"net/url"
	"strconv"
)

// The methods below are thin typed wrappers over Get/Post/Put/Delete, one per
// REST endpoint used by the MCP tools. Every ID is path-escaped.

func docPath(docID string) string {
	return "/docs/" + url.PathEscape(docID)
}

func pagePath(docID, pageID string) string {
	return docPath(docID) + "/pages/" + url.PathEscape(pageID)
}

func tablePath(docID, tableID string) string {
	return docPath(docID) + "/tables/" + url.PathEscape(tableID)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// ListDocsOptions filters GET /docs.
type ListDocsOptions struct {
	Limit int
	Query string
}

// ListDocs lists documents visible to the token.
func (c *Client) ListDocs(ctx context.Context, opts ListDocsOptions) (*DocList, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	var out DocList
	if err := c.Get(ctx, withQuery("/docs", q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDoc fetches one document.
func (c *Client) GetDoc(ctx context.Context, docID string) (*Doc, error) {
	var out Doc
	if err := c.Get(ctx, docPath(docID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDoc creates a document, optionally copied from a source doc.
func (c *Client) CreateDoc(ctx context.Context, req CreateDocRequest) (*Doc, error) {
	var out Doc
	if err := c.Post(ctx, "/docs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDoc permanently deletes a document.
func (c *Client) DeleteDoc(ctx context.Context, docID string) error {
	return c.Delete(ctx, docPath(docID))
}

// ListPages lists the pages of a document.
func (c *Client) ListPages(ctx context.Context, docID string) (*PageList, error) {
	var out PageList
	if err := c.Get(ctx, docPath(docID)+"/pages", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPage fetches page metadata.
func (c *Client) GetPage(ctx context.Context, docID, pageID string) (*Page, error) {
	var out Page
	if err := c.Get(ctx, pagePath(docID, pageID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartPageExport begins an asynchronous export of a page's content.
func (c *Client) StartPageExport(ctx context.Context, docID, pageID string, req ExportRequest) (*ExportStatus, error) {
	var out ExportStatus
	if err := c.Post(ctx, pagePath(docID, pageID)+"/export", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPageExport fetches the current status of an export job.
func (c *Client) GetPageExport(ctx context.Context, docID, pageID, exportID string) (*ExportStatus, error) {
	var out ExportStatus
	if err := c.Get(ctx, pagePath(docID, pageID)+"/export/"+url.PathEscape(exportID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTables lists the tables and views of a document.
func (c *Client) ListTables(ctx context.Context, docID string) (*TableList, error) {
	var out TableList
	if err := c.Get(ctx, docPath(docID)+"/tables", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTable fetches one table.
func (c *Client) GetTable(ctx context.Context, docID, tableID string) (*Table, error) {
	var out Table
	if err := c.Get(ctx, tablePath(docID, tableID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListColumns lists the columns of a table.
func (c *Client) ListColumns(ctx context.Context, docID, tableID string) (*ColumnList, error) {
	var out ColumnList
	if err := c.Get(ctx, tablePath(docID, tableID)+"/columns", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRowsOptions filters GET .../rows.
type ListRowsOptions struct {
	Limit int
	// Query uses Coda's `column:value` filter syntax.
	Query string
}

// ListRows lists rows of a table with values keyed by column name.
func (c *Client) ListRows(ctx context.Context, docID, tableID string, opts ListRowsOptions) (*RowList, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	q.Set("useColumnNames", "true")
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	var out RowList
	if err := c.Get(ctx, withQuery(tablePath(docID, tableID)+"/rows", q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRow fetches one row with values keyed by column name.
func (c *Client) GetRow(ctx context.Context, docID, tableID, rowID string) (*Row, error) {
	q := url.Values{"useColumnNames": {"true"}}
	var out Row
	if err := c.Get(ctx, withQuery(tablePath(docID, tableID)+"/rows/"+url.PathEscape(rowID), q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InsertRows appends rows to a table.
func (c *Client) InsertRows(ctx context.Context, docID, tableID string, req InsertRowsRequest) (*RowMutationResponse, error) {
	var out RowMutationResponse
	if err := c.Post(ctx, tablePath(docID, tableID)+"/rows", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRow replaces the given cells of a row.
func (c *Client) UpdateRow(ctx context.Context, docID, tableID, rowID string, req UpdateRowRequest) (*RowMutationResponse, error) {
	var out RowMutationResponse
	if err := c.Put(ctx, tablePath(docID, tableID)+"/rows/"+url.PathEscape(rowID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRow deletes a row.
func (c *Client) DeleteRow(ctx context.Context, docID, tableID, rowID string) error {
	return c.Delete(ctx, tablePath(docID, tableID)+"/rows/"+url.PathEscape(rowID))
}

// ListFormulas lists the named formulas of a document.
func (c *Client) ListFormulas(ctx context.Context, docID string) (*FormulaList, error) {
	var out FormulaList
	if err := c.Get(ctx, docPath(docID)+"/formulas", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFormula fetches a named formula and its current value.
func (c *Client) GetFormula(ctx context.Context, docID, formulaID string) (*Formula, error) {
	var out Formula
	if err := c.Get(ctx, docPath(docID)+"/formulas/"+url.PathEscape(formulaID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListControls lists the controls of a document.
func (c *Client) ListControls(ctx context.Context, docID string) (*ControlList, error) {
	var out ControlList
	if err := c.Get(ctx, docPath(docID)+"/controls", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
