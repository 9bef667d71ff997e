package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListFormulas lists the named formulas of a document.
func (s *Service) ListFormulas(ctx context.Context, _ *mcp.CallToolRequest, input DocInput) (*mcp.CallToolResult, FormulasOutput, error) {
	if err := requireArgs("doc_id", input.DocID); err != nil {
		return nil, FormulasOutput{}, err
	}
	list, err := s.api.ListFormulas(ctx, input.DocID)
	if err != nil {
		return nil, FormulasOutput{}, err
	}
	out := FormulasOutput{Formulas: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d formulas", out.Count), out.Formulas)
	if err != nil {
		return nil, FormulasOutput{}, err
	}
	return textResult(text), out, nil
}

// GetFormula returns a named formula with its current value.
func (s *Service) GetFormula(ctx context.Context, _ *mcp.CallToolRequest, input FormulaInput) (*mcp.CallToolResult, FormulaOutput, error) {
	if err := requireArgs("doc_id", input.DocID, "formula_id", input.FormulaID); err != nil {
		return nil, FormulaOutput{}, err
	}
	formula, err := s.api.GetFormula(ctx, input.DocID, input.FormulaID)
	if err != nil {
		return nil, FormulaOutput{}, err
	}
	text, err := jsonBlock("Formula: "+formula.Name, formula)
	if err != nil {
		return nil, FormulaOutput{}, err
	}
	return textResult(text), FormulaOutput{Formula: *formula}, nil
}

// ListControls lists the controls of a document.
func (s *Service) ListControls(ctx context.Context, _ *mcp.CallToolRequest, input DocInput) (*mcp.CallToolResult, ControlsOutput, error) {
	if err := requireArgs("doc_id", input.DocID); err != nil {
		return nil, ControlsOutput{}, err
	}
	list, err := s.api.ListControls(ctx, input.DocID)
	if err != nil {
		return nil, ControlsOutput{}, err
	}
	out := ControlsOutput{Controls: nonNil(list.Items), Count: len(list.Items)}
	text, err := jsonBlock(fmt.Sprintf("Found %d controls", out.Count), out.Controls)
	if err != nil {
		return nil, ControlsOutput{}, err
	}
	return textResult(text), out, nil
}
