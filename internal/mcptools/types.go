package mcptools

import "github.com/dusk-indust/coda-mcp/internal/coda"

// --- MCP Tool Input Types ---
// The SDK derives each tool's JSON schema from these struct tags. Fields
// without omitempty are required by the schema.

// ListDocsInput is the input for the list_docs tool.
type ListDocsInput struct {
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of documents to return (default 50, max 1000)"`
	Query string `json:"query,omitempty" jsonschema:"only return documents whose name matches this query"`
}

// SearchDocsInput is the input for the search_docs tool.
type SearchDocsInput struct {
	Query string `json:"query" jsonschema:"search query matched against document names and content"`
}

// DocInput identifies a document.
type DocInput struct {
	DocID string `json:"doc_id" jsonschema:"the document ID"`
}

// CreateDocInput is the input for the create_doc tool.
type CreateDocInput struct {
	Title     string `json:"title" jsonschema:"title of the new document"`
	FolderID  string `json:"folder_id,omitempty" jsonschema:"folder to create the document in"`
	SourceDoc string `json:"source_doc,omitempty" jsonschema:"ID of a document to copy as a template"`
	Timezone  string `json:"timezone,omitempty" jsonschema:"timezone of the document, e.g. America/Los_Angeles"`
}

// PageInput identifies a page.
type PageInput struct {
	DocID  string `json:"doc_id" jsonschema:"the document ID"`
	PageID string `json:"page_id" jsonschema:"the page ID or name"`
}

// TableInput identifies a table.
type TableInput struct {
	DocID   string `json:"doc_id" jsonschema:"the document ID"`
	TableID string `json:"table_id" jsonschema:"the table ID or name"`
}

// GetRowsInput is the input for the get_rows tool.
type GetRowsInput struct {
	DocID   string `json:"doc_id" jsonschema:"the document ID"`
	TableID string `json:"table_id" jsonschema:"the table ID or name"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of rows to return (default 100, max 1000)"`
	Query   string `json:"query,omitempty" jsonschema:"filter in column:value form, e.g. \"Status\":\"Done\""`
}

// RowInput identifies a row.
type RowInput struct {
	DocID   string `json:"doc_id" jsonschema:"the document ID"`
	TableID string `json:"table_id" jsonschema:"the table ID or name"`
	RowID   string `json:"row_id" jsonschema:"the row ID or name"`
}

// AddRowInput is the input for the add_row tool.
type AddRowInput struct {
	DocID   string         `json:"doc_id" jsonschema:"the document ID"`
	TableID string         `json:"table_id" jsonschema:"the table ID or name"`
	Cells   map[string]any `json:"cells" jsonschema:"column name to value"`
}

// UpdateRowInput is the input for the update_row tool.
type UpdateRowInput struct {
	DocID   string         `json:"doc_id" jsonschema:"the document ID"`
	TableID string         `json:"table_id" jsonschema:"the table ID or name"`
	RowID   string         `json:"row_id" jsonschema:"the row ID or name"`
	Cells   map[string]any `json:"cells" jsonschema:"column name to new value"`
}

// FormulaInput identifies a named formula.
type FormulaInput struct {
	DocID     string `json:"doc_id" jsonschema:"the document ID"`
	FormulaID string `json:"formula_id" jsonschema:"the formula ID or name"`
}

// --- MCP Tool Output Types ---

// DocsOutput is the result of list_docs and search_docs.
type DocsOutput struct {
	Docs  []coda.Doc `json:"docs"`
	Count int        `json:"count"`
}

// DocOutput is the result of get_doc and create_doc.
type DocOutput struct {
	Doc coda.Doc `json:"doc"`
}

// DeletedOutput is the result of the delete tools.
type DeletedOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// PagesOutput is the result of list_pages.
type PagesOutput struct {
	Pages []coda.Page `json:"pages"`
	Count int         `json:"count"`
}

// PageOutput is the result of get_page.
type PageOutput struct {
	PageID   string `json:"pageId"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	ExportID string `json:"exportId"`
	Attempts int    `json:"attempts"`
}

// TablesOutput is the result of list_tables.
type TablesOutput struct {
	Tables []coda.Table `json:"tables"`
	Count  int          `json:"count"`
}

// TableOutput is the result of get_table.
type TableOutput struct {
	Table coda.Table `json:"table"`
}

// ColumnsOutput is the result of list_columns.
type ColumnsOutput struct {
	Columns []coda.Column `json:"columns"`
	Count   int           `json:"count"`
}

// RowsOutput is the result of get_rows.
type RowsOutput struct {
	Rows  []coda.Row `json:"rows"`
	Count int        `json:"count"`
}

// RowOutput is the result of get_row.
type RowOutput struct {
	Row coda.Row `json:"row"`
}

// RowMutationOutput is the result of add_row and update_row. Coda applies
// row mutations asynchronously; RequestID tracks the pending write.
type RowMutationOutput struct {
	RequestID   string   `json:"requestId"`
	AddedRowIDs []string `json:"addedRowIds"`
}

// FormulasOutput is the result of list_formulas.
type FormulasOutput struct {
	Formulas []coda.Formula `json:"formulas"`
	Count    int            `json:"count"`
}

// FormulaOutput is the result of get_formula.
type FormulaOutput struct {
	Formula coda.Formula `json:"formula"`
}

// ControlsOutput is the result of list_controls.
type ControlsOutput struct {
	Controls []coda.Control `json:"controls"`
	Count    int            `json:"count"`
}
