package mcptools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/coda-mcp/internal/coda"
	"github.com/dusk-indust/coda-mcp/internal/metrics"
	"github.com/dusk-indust/coda-mcp/internal/pageexport"
)

// fakeCoda is an in-process stand-in for the Coda REST API. Download links
// it hands out point at codahosted.io and are routed back to it by
// redirectTransport.
type fakeCoda struct {
	t   *testing.T
	srv *httptest.Server

	mu sync.Mutex
	// exportStatuses are returned by successive export polls; the last repeats.
	exportStatuses []coda.ExportStatus
	polls          int
	downloads      int
	queries        []url.Values
	bodies         map[string]json.RawMessage
	deleted        []string
}

const exportLink = "https://codahosted.io/exports/exp1.html"

func newFakeCoda(t *testing.T) *fakeCoda {
	t.Helper()
	f := &fakeCoda{
		t:      t,
		bodies: make(map[string]json.RawMessage),
		exportStatuses: []coda.ExportStatus{
			{Status: "inProgress"},
			{Status: coda.ExportStatusComplete, DownloadLink: exportLink},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /docs", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		docs := []coda.Doc{{ID: "doc1", Name: "Roadmap"}, {ID: "doc2", Name: "Hello World"}}
		if r.URL.Query().Get("query") == "hello" {
			docs = docs[1:]
		}
		f.json(w, http.StatusOK, coda.DocList{Items: docs})
	})
	mux.HandleFunc("POST /docs", func(w http.ResponseWriter, r *http.Request) {
		var req coda.CreateDocRequest
		f.decode(r, "create_doc", &req)
		f.json(w, http.StatusCreated, coda.Doc{ID: "newdoc", Name: req.Title})
	})
	mux.HandleFunc("GET /docs/{doc}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("doc") == "missing" {
			f.json(w, http.StatusNotFound, map[string]string{"message": "Doc not found"})
			return
		}
		f.json(w, http.StatusOK, coda.Doc{ID: r.PathValue("doc"), Name: "Roadmap"})
	})
	mux.HandleFunc("DELETE /docs/{doc}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("doc"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /docs/{doc}/pages", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.PageList{Items: []coda.Page{{ID: "p1", Name: "Welcome Page"}, {ID: "p2", Name: "Notes"}}})
	})
	mux.HandleFunc("GET /docs/{doc}/pages/{page}", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.Page{ID: r.PathValue("page"), Name: "Welcome Page"})
	})
	mux.HandleFunc("POST /docs/{doc}/pages/{page}/export", func(w http.ResponseWriter, r *http.Request) {
		var req coda.ExportRequest
		f.decode(r, "export", &req)
		f.json(w, http.StatusAccepted, coda.ExportStatus{ID: "exp1", Status: "inProgress"})
	})
	mux.HandleFunc("GET /docs/{doc}/pages/{page}/export/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polls++
		st := f.exportStatuses[min(f.polls, len(f.exportStatuses))-1]
		f.mu.Unlock()
		st.ID = r.PathValue("id")
		f.json(w, http.StatusOK, st)
	})
	mux.HandleFunc("GET /exports/exp1.html", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "downloads are unauthenticated")
		f.mu.Lock()
		f.downloads++
		f.mu.Unlock()
		_, _ = w.Write([]byte("Hello"))
	})
	mux.HandleFunc("GET /docs/{doc}/tables", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.TableList{Items: []coda.Table{{ID: "grid-1", Name: "Tasks"}}})
	})
	mux.HandleFunc("GET /docs/{doc}/tables/{table}", func(w http.ResponseWriter, r *http.Request) {
		rows := 12
		f.json(w, http.StatusOK, coda.Table{ID: r.PathValue("table"), Name: "Tasks", RowCount: &rows})
	})
	mux.HandleFunc("GET /docs/{doc}/tables/{table}/columns", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.ColumnList{Items: []coda.Column{{ID: "c-1", Name: "Name"}, {ID: "c-2", Name: "Status"}}})
	})
	mux.HandleFunc("GET /docs/{doc}/tables/{table}/rows", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.json(w, http.StatusOK, coda.RowList{Items: []coda.Row{
			{ID: "i-1", Values: map[string]any{"Name": "Write docs", "Status": "Done"}},
			{ID: "i-2", Values: map[string]any{"Name": "Ship", "Status": "Open"}},
		}})
	})
	mux.HandleFunc("POST /docs/{doc}/tables/{table}/rows", func(w http.ResponseWriter, r *http.Request) {
		f.decode(r, "add_row", nil)
		f.json(w, http.StatusAccepted, coda.RowMutationResponse{RequestID: "req-1", AddedRowIDs: []string{"i-new"}})
	})
	mux.HandleFunc("GET /docs/{doc}/tables/{table}/rows/{row}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.json(w, http.StatusOK, coda.Row{ID: r.PathValue("row"), Values: map[string]any{"Name": "Write docs"}})
	})
	mux.HandleFunc("PUT /docs/{doc}/tables/{table}/rows/{row}", func(w http.ResponseWriter, r *http.Request) {
		f.decode(r, "update_row", nil)
		f.json(w, http.StatusAccepted, coda.RowMutationResponse{RequestID: "req-2"})
	})
	mux.HandleFunc("DELETE /docs/{doc}/tables/{table}/rows/{row}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("row"))
		f.mu.Unlock()
		f.json(w, http.StatusAccepted, map[string]string{"requestId": "req-3"})
	})
	mux.HandleFunc("GET /docs/{doc}/formulas", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.FormulaList{Items: []coda.Formula{{ID: "f-1", Name: "Total"}}})
	})
	mux.HandleFunc("GET /docs/{doc}/formulas/{formula}", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.Formula{ID: r.PathValue("formula"), Name: "Total", Value: 42})
	})
	mux.HandleFunc("GET /docs/{doc}/controls", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, coda.ControlList{Items: []coda.Control{
			{ID: "ctrl-1", Name: "Refresh", ControlType: "button"},
			{ID: "ctrl-2", Name: "Budget", ControlType: "slider", Value: 10},
		}})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCoda) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(f.t, json.NewEncoder(w).Encode(v))
}

func (f *fakeCoda) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, r.URL.Query())
}

func (f *fakeCoda) decode(r *http.Request, key string, out any) {
	var raw json.RawMessage
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&raw))
	f.mu.Lock()
	f.bodies[key] = raw
	f.mu.Unlock()
	if out != nil {
		assert.NoError(f.t, json.Unmarshal(raw, out))
	}
}

func (f *fakeCoda) setExportStatuses(statuses ...coda.ExportStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportStatuses = statuses
}

func (f *fakeCoda) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeCoda) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

func (f *fakeCoda) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.bodies[key])
}

func (f *fakeCoda) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeCoda) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.queries)
	return f.queries[len(f.queries)-1]
}

// redirectTransport sends requests for codahosted.io to the fake server so
// the real download allow-list stays in force.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.HasSuffix(req.URL.Hostname(), "codahosted.io") {
		req = req.Clone(req.Context())
		req.URL.Scheme = rt.target.Scheme
		req.URL.Host = rt.target.Host
	}
	return http.DefaultTransport.RoundTrip(req)
}

type harness struct {
	session *mcp.ClientSession
	coda    *fakeCoda
	reg     *prometheus.Registry
}

// setupServerClient wires the MCP server to a fake Coda API and connects a
// client over in-memory transports.
func setupServerClient(t *testing.T, clientOpts *mcp.ClientOptions) *harness {
	t.Helper()

	fake := newFakeCoda(t)
	target, err := url.Parse(fake.srv.URL)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := coda.NewClient(fake.srv.URL, "test-token-123456",
		coda.WithHTTPClient(&http.Client{Transport: redirectTransport{target: target}}),
		coda.WithMetrics(m),
	)
	exporter, err := pageexport.New(client, pageexport.Config{MaxPollAttempts: 3, PollInterval: 0},
		pageexport.WithMetrics(m))
	require.NoError(t, err)

	server := NewServer(NewService(client, exporter, WithMetrics(m)))

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err = server.Connect(ctx, st, nil)
	require.NoError(t, err)

	mcpClient := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, clientOpts)
	session, err := mcpClient.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		session.Close()
	})

	return &harness{session: session, coda: fake, reg: reg}
}

func (h *harness) call(t *testing.T, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := h.session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

// structured decodes the structured output of a result into out.
func structured(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	require.NotNil(t, result.StructuredContent, "expected structured content")
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestMCPListTools(t *testing.T) {
	h := setupServerClient(t, nil)

	result, err := h.session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	byName := make(map[string]*mcp.Tool, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
		byName[tool.Name] = tool
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"add_row", "create_doc", "delete_doc", "delete_row", "get_doc",
		"get_formula", "get_page", "get_row", "get_rows", "get_table",
		"list_columns", "list_controls", "list_docs", "list_formulas",
		"list_pages", "list_tables", "search_docs", "update_row",
	}, names)

	require.NotNil(t, byName["get_page"].Annotations)
	assert.True(t, byName["get_page"].Annotations.ReadOnlyHint)
	require.NotNil(t, byName["delete_doc"].Annotations.DestructiveHint)
	assert.True(t, *byName["delete_doc"].Annotations.DestructiveHint)
	assert.False(t, byName["add_row"].Annotations.ReadOnlyHint)
}

func TestMCPInstructions(t *testing.T) {
	h := setupServerClient(t, nil)
	initRes := h.session.InitializeResult()
	require.NotNil(t, initRes)
	assert.Contains(t, initRes.Instructions, "CODA_API_TOKEN")
	assert.Equal(t, "coda-mcp", initRes.ServerInfo.Name)
	assert.Equal(t, Version(), initRes.ServerInfo.Version)
}

func TestMCPGetPage(t *testing.T) {
	h := setupServerClient(t, nil)

	result := h.call(t, "get_page", PageInput{DocID: "doc1", PageID: "p1"})
	require.False(t, result.IsError, resultText(t, result))

	assert.Equal(t, "Page: Welcome Page\n\nContent:\nHello", resultText(t, result))

	var out PageOutput
	structured(t, result, &out)
	assert.Equal(t, "p1", out.PageID)
	assert.Equal(t, "Welcome Page", out.Name)
	assert.Equal(t, "Hello", out.Content)
	assert.Equal(t, "exp1", out.ExportID)
	assert.Equal(t, 2, out.Attempts)

	assert.JSONEq(t, `{"outputFormat":"html"}`, h.coda.body("export"))
	assert.Equal(t, 2, h.coda.pollCount())
	assert.Equal(t, 1, h.coda.downloadCount())

	count, err := testutil.GatherAndCount(h.reg, "coda_page_exports_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMCPGetPageFailures(t *testing.T) {
	tests := []struct {
		name     string
		statuses []coda.ExportStatus
		want     string
		polls    int
	}{
		{
			name:     "remote failure",
			statuses: []coda.ExportStatus{{Status: coda.ExportStatusFailed, Error: "Page too large"}},
			want:     "Export failed: Page too large",
			polls:    1,
		},
		{
			name:     "timeout",
			statuses: []coda.ExportStatus{{Status: "inProgress"}},
			want:     "Export timed out after 0 seconds",
			polls:    3,
		},
		{
			name:     "missing link",
			statuses: []coda.ExportStatus{{Status: coda.ExportStatusComplete}},
			want:     "Export complete but no download link provided",
			polls:    1,
		},
		{
			name:     "untrusted host",
			statuses: []coda.ExportStatus{{Status: coda.ExportStatusComplete, DownloadLink: "https://attacker.example/x.html"}},
			want:     `Export download link points to untrusted host "attacker.example"`,
			polls:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupServerClient(t, nil)
			h.coda.setExportStatuses(tt.statuses...)

			result := h.call(t, "get_page", PageInput{DocID: "doc1", PageID: "p1"})
			require.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
			assert.Equal(t, tt.polls, h.coda.pollCount())
			assert.Zero(t, h.coda.downloadCount())
		})
	}
}

func TestMCPGetPageProgress(t *testing.T) {
	var (
		mu       sync.Mutex
		messages []string
	)
	h := setupServerClient(t, &mcp.ClientOptions{
		ProgressNotificationHandler: func(_ context.Context, req *mcp.ProgressNotificationClientRequest) {
			mu.Lock()
			defer mu.Unlock()
			messages = append(messages, req.Params.Message)
		},
	})

	params := &mcp.CallToolParams{
		Name:      "get_page",
		Arguments: PageInput{DocID: "doc1", PageID: "p1"},
	}
	// SetProgressToken only stores into an existing Meta map.
	params.Meta = mcp.Meta{}
	params.SetProgressToken("page-progress")
	result, err := h.session.CallTool(context.Background(), params)
	require.NoError(t, err)
	require.False(t, result.IsError)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(messages) == 4
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, messages, "Starting page export")
	assert.Contains(t, messages, "Export complete")
}

func TestMCPDocs(t *testing.T) {
	h := setupServerClient(t, nil)

	t.Run("list_docs default limit", func(t *testing.T) {
		result := h.call(t, "list_docs", ListDocsInput{})
		require.False(t, result.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, result), "Found 2 documents\n\n```json\n"))
		assert.Equal(t, "50", h.coda.lastQuery().Get("limit"))

		var out DocsOutput
		structured(t, result, &out)
		assert.Equal(t, 2, out.Count)
		assert.Equal(t, "doc1", out.Docs[0].ID)
	})

	t.Run("list_docs limit is capped", func(t *testing.T) {
		result := h.call(t, "list_docs", ListDocsInput{Limit: 5000, Query: "hello"})
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Found 1 documents")
		assert.Equal(t, "1000", h.coda.lastQuery().Get("limit"))
		assert.Equal(t, "hello", h.coda.lastQuery().Get("query"))
	})

	t.Run("search_docs", func(t *testing.T) {
		result := h.call(t, "search_docs", SearchDocsInput{Query: "hello"})
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Found 1 documents matching 'hello'")
	})

	t.Run("get_doc", func(t *testing.T) {
		result := h.call(t, "get_doc", DocInput{DocID: "doc1"})
		require.False(t, result.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, result), "Document: Roadmap\n\n```json\n"))
	})

	t.Run("get_doc not found", func(t *testing.T) {
		result := h.call(t, "get_doc", DocInput{DocID: "missing"})
		require.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "API error 404")
	})

	t.Run("create_doc", func(t *testing.T) {
		result := h.call(t, "create_doc", CreateDocInput{Title: "Plans", Timezone: "UTC"})
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Document created successfully!\n\nName: Plans\nID: newdoc")
		assert.JSONEq(t, `{"title":"Plans","timezone":"UTC"}`, h.coda.body("create_doc"))
	})

	t.Run("delete_doc", func(t *testing.T) {
		result := h.call(t, "delete_doc", DocInput{DocID: "doc2"})
		require.False(t, result.IsError)
		assert.Equal(t, "Document 'doc2' deleted successfully.", resultText(t, result))
		assert.Contains(t, h.coda.deletedIDs(), "doc2")
	})
}

func TestMCPTablesAndRows(t *testing.T) {
	h := setupServerClient(t, nil)

	t.Run("list_pages", func(t *testing.T) {
		result := h.call(t, "list_pages", DocInput{DocID: "doc1"})
		assert.Contains(t, resultText(t, result), "Found 2 pages")
	})

	t.Run("list_tables", func(t *testing.T) {
		result := h.call(t, "list_tables", DocInput{DocID: "doc1"})
		assert.Contains(t, resultText(t, result), "Found 1 tables")
	})

	t.Run("get_table", func(t *testing.T) {
		result := h.call(t, "get_table", TableInput{DocID: "doc1", TableID: "grid-1"})
		assert.Contains(t, resultText(t, result), "Table: Tasks")
		var out TableOutput
		structured(t, result, &out)
		require.NotNil(t, out.Table.RowCount)
		assert.Equal(t, 12, *out.Table.RowCount)
	})

	t.Run("list_columns", func(t *testing.T) {
		result := h.call(t, "list_columns", TableInput{DocID: "doc1", TableID: "grid-1"})
		assert.Contains(t, resultText(t, result), "Found 2 columns")
	})

	t.Run("get_rows", func(t *testing.T) {
		result := h.call(t, "get_rows", GetRowsInput{DocID: "doc1", TableID: "grid-1", Query: `"Status":"Done"`})
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Found 2 rows")
		q := h.coda.lastQuery()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "true", q.Get("useColumnNames"))
		assert.Equal(t, `"Status":"Done"`, q.Get("query"))
	})

	t.Run("get_row", func(t *testing.T) {
		result := h.call(t, "get_row", RowInput{DocID: "doc1", TableID: "grid-1", RowID: "i-1"})
		assert.Contains(t, resultText(t, result), "Row: i-1")
		assert.Equal(t, "true", h.coda.lastQuery().Get("useColumnNames"))
	})

	t.Run("add_row", func(t *testing.T) {
		result := h.call(t, "add_row", AddRowInput{
			DocID:   "doc1",
			TableID: "grid-1",
			Cells:   map[string]any{"Status": "Open", "Name": "New task"},
		})
		require.False(t, result.IsError)
		assert.Equal(t,
			"Row added successfully.\nRequest ID: req-1\nAdded row IDs: i-new\n\nNote: Changes may take a few seconds to appear.",
			resultText(t, result))
		assert.JSONEq(t,
			`{"rows":[{"cells":[{"column":"Name","value":"New task"},{"column":"Status","value":"Open"}]}]}`,
			h.coda.body("add_row"))
	})

	t.Run("update_row", func(t *testing.T) {
		result := h.call(t, "update_row", UpdateRowInput{
			DocID:   "doc1",
			TableID: "grid-1",
			RowID:   "i-1",
			Cells:   map[string]any{"Status": "Done"},
		})
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Row updated successfully.\nRequest ID: req-2")
		assert.JSONEq(t, `{"row":{"cells":[{"column":"Status","value":"Done"}]}}`, h.coda.body("update_row"))
	})

	t.Run("delete_row", func(t *testing.T) {
		result := h.call(t, "delete_row", RowInput{DocID: "doc1", TableID: "grid-1", RowID: "i-2"})
		require.False(t, result.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, result), "Row deleted successfully."))
		assert.Contains(t, h.coda.deletedIDs(), "i-2")
	})
}

func TestMCPFormulasAndControls(t *testing.T) {
	h := setupServerClient(t, nil)

	result := h.call(t, "list_formulas", DocInput{DocID: "doc1"})
	assert.Contains(t, resultText(t, result), "Found 1 formulas")

	result = h.call(t, "get_formula", FormulaInput{DocID: "doc1", FormulaID: "f-1"})
	assert.Contains(t, resultText(t, result), "Formula: Total")
	var formula FormulaOutput
	structured(t, result, &formula)
	assert.Equal(t, float64(42), formula.Formula.Value)

	result = h.call(t, "list_controls", DocInput{DocID: "doc1"})
	assert.Contains(t, resultText(t, result), "Found 2 controls")
}

func TestMCPRequiredArguments(t *testing.T) {
	h := setupServerClient(t, nil)

	tests := []struct {
		tool string
		args any
		want string
	}{
		{"get_doc", DocInput{}, "doc_id is required"},
		{"search_docs", SearchDocsInput{}, "query is required"},
		{"create_doc", CreateDocInput{}, "title is required"},
		{"get_page", PageInput{DocID: "doc1"}, "page_id is required"},
		{"get_table", TableInput{DocID: "doc1"}, "table_id is required"},
		{"get_row", RowInput{DocID: "doc1", TableID: "grid-1"}, "row_id is required"},
		{"add_row", AddRowInput{DocID: "doc1", TableID: "grid-1", Cells: map[string]any{}}, "cells is required"},
		{"get_formula", FormulaInput{DocID: "doc1"}, "formula_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			result := h.call(t, tt.tool, tt.args)
			require.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
	assert.Zero(t, h.coda.pollCount())
}

func TestMCPToolCallMetrics(t *testing.T) {
	h := setupServerClient(t, nil)

	h.call(t, "list_docs", ListDocsInput{})
	h.call(t, "get_doc", DocInput{DocID: "missing"})

	count, err := testutil.GatherAndCount(h.reg, "coda_mcp_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per tool/outcome pair")
}

func TestMCPUnknownTool(t *testing.T) {
	h := setupServerClient(t, nil)

	result, err := h.session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})
	// The SDK may report an unknown tool at the protocol level or as IsError.
	if err != nil {
		return
	}
	assert.True(t, result.IsError)
}
