package cel

import (
	"fmt"
	"slices"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	gexpr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// CEL operators replaced by helper functions with Python's rounding.
var floorOperators = map[string]string{
	operators.Modulo: floorModName,
	operators.Divide: floorDivName,
}

// arithmetic parses a translated expression and gives it Python's semantics:
// % and // round toward negative infinity, and each `not in` negates its
// membership test. The result is CEL source again.
func arithmetic(env *celgo.Env, tr translation) (string, error) {
	ast, iss := env.Parse(tr.src)
	if iss != nil && iss.Err() != nil {
		return "", fmt.Errorf("parsing: %w", iss.Err())
	}
	pe, err := celgo.AstToParsedExpr(ast)
	if err != nil {
		return "", err
	}

	info := pe.GetSourceInfo()
	w := &rewriter{positions: info.GetPositions(), notIn: tr.notIn}
	for id := range info.GetPositions() {
		w.next = max(w.next, id)
	}
	for id := range info.GetMacroCalls() {
		w.next = max(w.next, id)
	}

	w.expr(pe.GetExpr())
	// macro calls keep their own copy of the arguments for unparsing
	for _, call := range info.GetMacroCalls() {
		w.expr(call)
	}
	if len(w.negated) != len(tr.notIn) {
		return "", fmt.Errorf("parsing: could not apply 'not in'")
	}

	return celgo.AstToString(celgo.ParsedExprToAst(pe))
}

type rewriter struct {
	positions map[int64]int32
	notIn     []int32
	negated   []int32
	next      int64
}

func (w *rewriter) expr(e *gexpr.Expr) {
	if e == nil {
		return
	}
	switch k := e.GetExprKind().(type) {
	case *gexpr.Expr_CallExpr:
		c := k.CallExpr
		w.expr(c.GetTarget())
		for _, a := range c.GetArgs() {
			w.expr(a)
		}
		if f, ok := floorOperators[c.GetFunction()]; ok {
			c.Function = f
		}
		if c.GetFunction() == operators.In {
			pos := w.positions[e.GetId()]
			if slices.Contains(w.notIn, pos) {
				if !slices.Contains(w.negated, pos) {
					w.negated = append(w.negated, pos)
				}
				w.next++
				in := &gexpr.Expr{Id: w.next, ExprKind: e.GetExprKind()}
				e.ExprKind = &gexpr.Expr_CallExpr{CallExpr: &gexpr.Expr_Call{
					Function: operators.LogicalNot,
					Args:     []*gexpr.Expr{in},
				}}
			}
		}

	case *gexpr.Expr_SelectExpr:
		w.expr(k.SelectExpr.GetOperand())

	case *gexpr.Expr_ListExpr:
		for _, el := range k.ListExpr.GetElements() {
			w.expr(el)
		}

	case *gexpr.Expr_StructExpr:
		for _, en := range k.StructExpr.GetEntries() {
			w.expr(en.GetMapKey())
			w.expr(en.GetValue())
		}

	case *gexpr.Expr_ComprehensionExpr:
		c := k.ComprehensionExpr
		w.expr(c.GetIterRange())
		w.expr(c.GetAccuInit())
		w.expr(c.GetLoopCondition())
		w.expr(c.GetLoopStep())
		w.expr(c.GetResult())
	}
}
