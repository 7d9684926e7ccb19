// This file contains functions that collect diagnostic data from a CEL
// evaluation. The trace is returned to the caller through numclass.Diagnoser.
package cel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	celgo "github.com/google/cel-go/cel"
	gexpr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/numclass/numclass"
)

// Diagnose evaluates the rule against n with state tracking enabled and
// returns the value of every sub-expression, along with the CEL source the
// rule was compiled to.
func (e *Evaluator) Diagnose(ctx context.Context, r *numclass.Rule, n int64) (*numclass.Diagnostics, string, error) {
	if r == nil {
		return nil, "", fmt.Errorf("nil rule")
	}
	p, err := compiled(r)
	if err != nil {
		return nil, "", err
	}

	prg, err := p.env.Program(p.ast,
		celgo.EvalOptions(celgo.OptTrackState),
		celgo.InterruptCheckFrequency(e.interruptFrequency))
	if err != nil {
		return nil, "", fmt.Errorf("generating diagnostic program: %w", err)
	}

	_, details, err := prg.ContextEval(ctx, map[string]any{p.param: n})
	if err != nil {
		return nil, "", err
	}

	d, err := collectDiagnostics(p.ast, details)
	if err != nil {
		return nil, "", err
	}
	return d, p.source, nil
}

// collectDiagnostics walks the CEL AST and annotates it with the result of
// the evaluation.
func collectDiagnostics(ast *celgo.Ast, details *celgo.EvalDetails) (*numclass.Diagnostics, error) {
	if ast == nil || details == nil {
		return nil, fmt.Errorf("no ast or eval details")
	}

	checked, err := celgo.AstToCheckedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("converting ast: %w", err)
	}

	d := walk(checked.GetExpr(), details, ast, checked.GetSourceInfo())
	return &d, nil
}

// walk recursively visits the expression and its children, recording the
// evaluated value and source position of each.
func walk(ex *gexpr.Expr, details *celgo.EvalDetails, ast *celgo.Ast, si *gexpr.SourceInfo) numclass.Diagnostics {
	d := numclass.Diagnostics{}
	if v, ok := details.State().Value(ex.GetId()); ok && v != nil {
		d.Value = fmt.Sprint(v.Value())
	}
	d.Offset, d.Line, d.Column = getLocation(ex.GetId(), ast, si)

	switch i := ex.GetExprKind().(type) {
	case *gexpr.Expr_CallExpr:
		d.Expr = operator(i.CallExpr.GetFunction())
		for _, a := range i.CallExpr.GetArgs() {
			d.Children = append(d.Children, walk(a, details, ast, si))
		}
	case *gexpr.Expr_ConstExpr:
		d.Expr = constant(i.ConstExpr)
	case *gexpr.Expr_IdentExpr:
		d.Expr = i.IdentExpr.GetName()
	case *gexpr.Expr_SelectExpr:
		d.Expr = "." + i.SelectExpr.GetField()
		d.Children = append(d.Children, walk(i.SelectExpr.GetOperand(), details, ast, si))
	case *gexpr.Expr_ListExpr:
		d.Expr = "[]"
		for _, el := range i.ListExpr.GetElements() {
			d.Children = append(d.Children, walk(el, details, ast, si))
		}
	case *gexpr.Expr_ComprehensionExpr:
		d.Expr = "comprehension"
		d.Children = append(d.Children, walk(i.ComprehensionExpr.GetIterRange(), details, ast, si))
	default:
		d.Expr = "undefined"
	}
	return d
}

// operator turns CEL's internal function names (_&&_, _?_:_) into the
// operator they stand for.
func operator(fn string) string {
	switch fn {
	case "_?_:_":
		return "?:"
	case "!_":
		return "!"
	case "-_":
		return "-"
	case floorModName:
		return "%"
	case floorDivName:
		return "//"
	}
	return strings.Trim(fn, "_")
}

func constant(c *gexpr.Constant) string {
	switch k := c.GetConstantKind().(type) {
	case *gexpr.Constant_Int64Value:
		return strconv.FormatInt(k.Int64Value, 10)
	case *gexpr.Constant_Uint64Value:
		return strconv.FormatUint(k.Uint64Value, 10) + "u"
	case *gexpr.Constant_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	case *gexpr.Constant_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'g', -1, 64)
	case *gexpr.Constant_StringValue:
		return strconv.Quote(k.StringValue)
	}
	return strings.TrimSpace(c.String())
}

func getLocation(id int64, ast *celgo.Ast, si *gexpr.SourceInfo) (offset, line, column int) {
	if si == nil {
		return
	}

	offs, ok := si.GetPositions()[id]
	if !ok {
		return
	}
	offset = int(offs)

	s := ast.Source()
	if s == nil {
		return
	}

	loc, ok := s.OffsetLocation(offs)
	if !ok {
		return
	}
	return offset, loc.Line(), loc.Column()
}
