package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/coda-mcp/internal/coda"
)

// ListTables lists the tables of a document.
func (s *Service) ListTables(ctx context.Context, _ *mcp.CallToolRequest, input DocInput) (*mcp.CallToolResult, TablesOutput, error) {
	if err := requireArgs("doc_id", input.DocID); err != nil {
		return nil, TablesOutput{}, err
	}
	list, err := s.api.ListTables(ctx, input.DocID)
	if err != nil {
		return nil, TablesOutput{}, err
	}
	out := TablesOutput{Tables: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d tables", out.Count), out.Tables)
	if err != nil {
		return nil, TablesOutput{}, err
	}
	return textResult(text), out, nil
}

// GetTable returns a table's metadata.
func (s *Service) GetTable(ctx context.Context, _ *mcp.CallToolRequest, input TableInput) (*mcp.CallToolResult, TableOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID); err != nil {
		return nil, TableOutput{}, err
	}
	table, err := s.api.GetTable(ctx, input.DocID, input.TableID)
	if err != nil {
		return nil, TableOutput{}, err
	}
	text, err := jsonBlock("Table: "+table.Name, table)
	if err != nil {
		return nil, TableOutput{}, err
	}
	return textResult(text), TableOutput{Table: *table}, nil
}

// ListColumns lists the columns of a table.
func (s *Service) ListColumns(ctx context.Context, _ *mcp.CallToolRequest, input TableInput) (*mcp.CallToolResult, ColumnsOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID); err != nil {
		return nil, ColumnsOutput{}, err
	}
	list, err := s.api.ListColumns(ctx, input.DocID, input.TableID)
	if err != nil {
		return nil, ColumnsOutput{}, err
	}
	out := ColumnsOutput{Columns: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d columns", out.Count), out.Columns)
	if err != nil {
		return nil, ColumnsOutput{}, err
	}
	return textResult(text), out, nil
}

// GetRows lists rows with values keyed by column name.
func (s *Service) GetRows(ctx context.Context, _ *mcp.CallToolRequest, input GetRowsInput) (*mcp.CallToolResult, RowsOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID); err != nil {
		return nil, RowsOutput{}, err
	}
	list, err := s.api.ListRows(ctx, input.DocID, input.TableID, coda.ListRowsOptions{
		Limit: clampLimit(input.Limit, defaultRowLimit),
		Query: input.Query,
	})
	if err != nil {
		return nil, RowsOutput{}, err
	}
	out := RowsOutput{Rows: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d rows", out.Count), out.Rows)
	if err != nil {
		return nil, RowsOutput{}, err
	}
	return textResult(text), out, nil
}

// GetRow fetches one row by ID.
func (s *Service) GetRow(ctx context.Context, _ *mcp.CallToolRequest, input RowInput) (*mcp.CallToolResult, RowOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID, "row_id", input.RowID); err != nil {
		return nil, RowOutput{}, err
	}
	row, err := s.api.GetRow(ctx, input.DocID, input.TableID, input.RowID)
	if err != nil {
		return nil, RowOutput{}, err
	}
	text, err := jsonBlock("Row: "+row.ID, row)
	if err != nil {
		return nil, RowOutput{}, err
	}
	return textResult(text), RowOutput{Row: *row}, nil
}

// AddRow inserts one row. Coda applies the write asynchronously.
func (s *Service) AddRow(ctx context.Context, _ *mcp.CallToolRequest, input AddRowInput) (*mcp.CallToolResult, RowMutationOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID); err != nil {
		return nil, RowMutationOutput{}, err
	}
	if len(input.Cells) == 0 {
		return nil, RowMutationOutput{}, fmt.Errorf("cells is required")
	}
	resp, err := s.api.InsertRows(ctx, input.DocID, input.TableID, coda.InsertRowsRequest{
		Rows: []coda.RowEdit{{Cells: coda.CellsFromMap(input.Cells)}},
	})
	if err != nil {
		return nil, RowMutationOutput{}, err
	}
	out := RowMutationOutput{RequestID: resp.RequestID, AddedRowIDs: nonNil(resp.AddedRowIDs)}
	text := fmt.Sprintf("Row added successfully.\nRequest ID: %s\nAdded row IDs: %s\n\n%s",
		out.RequestID, strings.Join(out.AddedRowIDs, ", "), asyncWriteNote)
	return textResult(text), out, nil
}

// UpdateRow replaces the given cells of a row.
func (s *Service) UpdateRow(ctx context.Context, _ *mcp.CallToolRequest, input UpdateRowInput) (*mcp.CallToolResult, RowMutationOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID, "row_id", input.RowID); err != nil {
		return nil, RowMutationOutput{}, err
	}
	if len(input.Cells) == 0 {
		return nil, RowMutationOutput{}, fmt.Errorf("cells is required")
	}
	resp, err := s.api.UpdateRow(ctx, input.DocID, input.TableID, input.RowID, coda.UpdateRowRequest{
		Row: coda.RowEdit{Cells: coda.CellsFromMap(input.Cells)},
	})
	if err != nil {
		return nil, RowMutationOutput{}, err
	}
	out := RowMutationOutput{RequestID: resp.RequestID, AddedRowIDs: []string{}}
	text := fmt.Sprintf("Row updated successfully.\nRequest ID: %s\n\n%s", out.RequestID, asyncWriteNote)
	return textResult(text), out, nil
}

// DeleteRow deletes one row. Coda applies the write asynchronously.
func (s *Service) DeleteRow(ctx context.Context, _ *mcp.CallToolRequest, input RowInput) (*mcp.CallToolResult, DeletedOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "table_id", input.TableID, "row_id", input.RowID); err != nil {
		return nil, DeletedOutput{}, err
	}
	if err := s.api.DeleteRow(ctx, input.DocID, input.TableID, input.RowID); err != nil {
		return nil, DeletedOutput{}, err
	}
	return textResult("Row deleted successfully.\n\n" + asyncWriteNote), DeletedOutput{ID: input.RowID, Deleted: true}, nil
}
