package coda

import "sort"

// --- Documents ---

// Doc is a Coda document.
type Doc struct {
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"`
	Href      string `json:"href,omitempty"`
	Name      string `json:"name"`
	Owner     string `json:"owner,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	FolderID  string `json:"folderId,omitempty"`
}

// DocList is one page of documents.
type DocList struct {
	Items         []Doc  `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// CreateDocRequest is the body of POST /docs.
type CreateDocRequest struct {
	Title     string `json:"title"`
	FolderID  string `json:"folderId,omitempty"`
	SourceDoc string `json:"sourceDoc,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// --- Pages ---

// PageParent references the parent of a page.
type PageParent struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
	Href string `json:"href,omitempty"`
	Name string `json:"name,omitempty"`
}

// Page is a page (canvas) within a document.
type Page struct {
	ID          string      `json:"id"`
	Type        string      `json:"type,omitempty"`
	Href        string      `json:"href,omitempty"`
	Name        string      `json:"name"`
	Parent      *PageParent `json:"parent,omitempty"`
	ContentType string      `json:"contentType,omitempty"`
}

// PageList is one page of pages.
type PageList struct {
	Items         []Page `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// ExportRequest is the body of POST /docs/{doc}/pages/{page}/export.
type ExportRequest struct {
	OutputFormat string `json:"outputFormat"`
}

// Export output formats accepted by the API.
const (
	OutputFormatHTML     = "html"
	OutputFormatMarkdown = "markdown"
)

// ExportStatus is the server-side state of a page export job.
// Status is server-controlled and open-ended; see Phase.
type ExportStatus struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Href         string `json:"href,omitempty"`
	DownloadLink string `json:"downloadLink,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ExportPhase classifies an ExportStatus for the poller.
type ExportPhase int

const (
	// PhaseInProgress covers every status that is neither complete nor
	// failed, including values the API may introduce later.
	PhaseInProgress ExportPhase = iota
	PhaseComplete
	PhaseFailed
)

// Remote status values with a terminal meaning.
const (
	ExportStatusComplete = "complete"
	ExportStatusFailed   = "failed"
)

// Phase reports how the poller should treat s.
func (s ExportStatus) Phase() ExportPhase {
	switch s.Status {
	case ExportStatusComplete:
		return PhaseComplete
	case ExportStatusFailed:
		return PhaseFailed
	default:
		return PhaseInProgress
	}
}

func (p ExportPhase) String() string {
	switch p {
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "in-progress"
	}
}

// --- Tables and columns ---

// Table is a table or view within a document.
type Table struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	Href     string `json:"href,omitempty"`
	Name     string `json:"name"`
	RowCount *int   `json:"rowCount,omitempty"`
}

// TableList is one page of tables.
type TableList struct {
	Items         []Table `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// ColumnFormat describes a column's value format.
type ColumnFormat struct {
	Type string `json:"type,omitempty"`
}

// Column is a table column.
type Column struct {
	ID     string        `json:"id"`
	Type   string        `json:"type,omitempty"`
	Href   string        `json:"href,omitempty"`
	Name   string        `json:"name"`
	Format *ColumnFormat `json:"format,omitempty"`
}

// ColumnList is one page of columns.
type ColumnList struct {
	Items         []Column `json:"items"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// --- Rows ---

// Row is a table row. Values are keyed by column name when the request set
// useColumnNames.
type Row struct {
	ID     string         `json:"id"`
	Type   string         `json:"type,omitempty"`
	Href   string         `json:"href,omitempty"`
	Name   string         `json:"name,omitempty"`
	Index  *int           `json:"index,omitempty"`
	Values map[string]any `json:"values,omitempty"`
}

// RowList is one page of rows.
type RowList struct {
	Items         []Row  `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// CellEdit sets one column of a row.
type CellEdit struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// RowEdit is the set of cells written for one row.
type RowEdit struct {
	Cells []CellEdit `json:"cells"`
}

// InsertRowsRequest is the body of POST .../rows.
type InsertRowsRequest struct {
	Rows []RowEdit `json:"rows"`
}

// UpdateRowRequest is the body of PUT .../rows/{row}.
type UpdateRowRequest struct {
	Row RowEdit `json:"row"`
}

// RowMutationResponse acknowledges an asynchronous row mutation.
type RowMutationResponse struct {
	RequestID   string   `json:"requestId"`
	AddedRowIDs []string `json:"addedRowIds,omitempty"`
}

// --- Formulas and controls ---

// Formula is a named formula and its current value.
type Formula struct {
	ID    string `json:"id"`
	Type  string `json:"type,omitempty"`
	Href  string `json:"href,omitempty"`
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// FormulaList is one page of formulas.
type FormulaList struct {
	Items         []Formula `json:"items"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// Control is a button, slider or other interactive control.
type Control struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	Href        string `json:"href,omitempty"`
	Name        string `json:"name"`
	ControlType string `json:"controlType,omitempty"`
	Value       any    `json:"value,omitempty"`
}

// ControlList is one page of controls.
type ControlList struct {
	Items         []Control `json:"items"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// CellsFromMap converts a column-name → value map into cell edits, ordered by
// column name so request bodies are deterministic.
func CellsFromMap(cells map[string]any) []CellEdit {
	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)

	edits := make([]CellEdit, 0, len(names))
	for _, name := range names {
		edits = append(edits, CellEdit{Column: name, Value: cells[name]})
	}
	return edits
}
