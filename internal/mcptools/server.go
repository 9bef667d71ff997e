package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

// Version reports the build version advertised to MCP clients.
func Version() string { return version }

// SetVersion overrides the advertised version. Call it before NewServer.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

const serverInstructions = "Coda.io MCP Server - Interact with Coda documents, tables, and rows. " +
	"Requires CODA_API_TOKEN environment variable."

func boolPtr(b bool) *bool { return &b }

var (
	readOnly    = &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(true)}
	additive    = &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(true)}
	destructive = &mcp.ToolAnnotations{DestructiveHint: boolPtr(true), IdempotentHint: true, OpenWorldHint: boolPtr(true)}
)

// addTool registers h under tool with logging and metrics around each call.
func addTool[In, Out any](server *mcp.Server, svc *Service, tool *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	mcp.AddTool(server, tool, instrument(svc, tool.Name, h))
}

// NewServer creates an MCP server with all 18 Coda tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "coda-mcp",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions,
	})

	// Documents
	addTool(server, svc, &mcp.Tool{
		Name:        "list_docs",
		Description: "List available Coda documents. Returns doc IDs, names, and metadata.",
		Annotations: readOnly,
	}, svc.ListDocs)
	addTool(server, svc, &mcp.Tool{
		Name:        "get_doc",
		Description: "Get detailed information about a specific Coda document.",
		Annotations: readOnly,
	}, svc.GetDoc)
	addTool(server, svc, &mcp.Tool{
		Name:        "search_docs",
		Description: "Search for Coda documents by name or content.",
		Annotations: readOnly,
	}, svc.SearchDocs)
	addTool(server, svc, &mcp.Tool{
		Name:        "create_doc",
		Description: "Create a new Coda document. Optionally specify a folder, source document (template), or timezone.",
		Annotations: additive,
	}, svc.CreateDoc)
	addTool(server, svc, &mcp.Tool{
		Name:        "delete_doc",
		Description: "Delete a Coda document. This action is permanent and cannot be undone.",
		Annotations: destructive,
	}, svc.DeleteDoc)

	// Pages
	addTool(server, svc, &mcp.Tool{
		Name:        "list_pages",
		Description: "List all pages in a Coda document.",
		Annotations: readOnly,
	}, svc.ListPages)
	addTool(server, svc, &mcp.Tool{
		Name:        "get_page",
		Description: "Get a specific page's content in HTML format. Exports the page, waits for the export to finish, and returns the rendered content.",
		Annotations: readOnly,
	}, svc.GetPage)

	// Tables and columns
	addTool(server, svc, &mcp.Tool{
		Name:        "list_tables",
		Description: "List all tables in a Coda document.",
		Annotations: readOnly,
	}, svc.ListTables)
	addTool(server, svc, &mcp.Tool{
		Name:        "get_table",
		Description: "Get detailed information about a specific table.",
		Annotations: readOnly,
	}, svc.GetTable)
	addTool(server, svc, &mcp.Tool{
		Name:        "list_columns",
		Description: "List all columns in a table.",
		Annotations: readOnly,
	}, svc.ListColumns)

	// Rows
	addTool(server, svc, &mcp.Tool{
		Name:        "get_rows",
		Description: "Get rows from a table with optional filtering. Returns rows with column values using column names as keys.",
		Annotations: readOnly,
	}, svc.GetRows)
	addTool(server, svc, &mcp.Tool{
		Name:        "get_row",
		Description: "Get a specific row by ID.",
		Annotations: readOnly,
	}, svc.GetRow)
	addTool(server, svc, &mcp.Tool{
		Name:        "add_row",
		Description: "Add a new row to a table. Cells should be a dictionary mapping column names to values.",
		Annotations: additive,
	}, svc.AddRow)
	addTool(server, svc, &mcp.Tool{
		Name:        "update_row",
		Description: "Update an existing row in a table.",
		Annotations: destructive,
	}, svc.UpdateRow)
	addTool(server, svc, &mcp.Tool{
		Name:        "delete_row",
		Description: "Delete a row from a table.",
		Annotations: destructive,
	}, svc.DeleteRow)

	// Formulas and controls
	addTool(server, svc, &mcp.Tool{
		Name:        "list_formulas",
		Description: "List all named formulas in a document.",
		Annotations: readOnly,
	}, svc.ListFormulas)
	addTool(server, svc, &mcp.Tool{
		Name:        "get_formula",
		Description: "Get a specific formula's current value.",
		Annotations: readOnly,
	}, svc.GetFormula)
	addTool(server, svc, &mcp.Tool{
		Name:        "list_controls",
		Description: "List all controls (buttons, sliders, etc.) in a document.",
		Annotations: readOnly,
	}, svc.ListControls)

	return server
}

// RunStdio runs the MCP server on stdio, blocking until stdin is closed or
// the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
	return serveHTTP(ctx, &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	})
}

// ServeMetrics exposes h on addr at /metrics until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	return serveHTTP(ctx, &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	})
}

func serveHTTP(ctx context.Context, httpServer *http.Server) error {
	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
