package hcl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/model"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// recordsFromExpr evaluates a list of objects into transaction records.
// Values go through cty's JSON encoding so numbers arrive as float64.
func recordsFromExpr(expr hcl.Expression) ([]model.Record, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid records: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("records must be literal values")
	}
	ty := val.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("records must be a list of objects, got %s", ty.FriendlyName())
	}

	raw, err := ctyjson.Marshal(val, ty)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("records must be a list of objects: %w", err)
	}

	out := make([]model.Record, len(items))
	for i, item := range items {
		out[i] = model.Record(item)
	}
	return out, nil
}
