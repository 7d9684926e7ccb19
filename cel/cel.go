package cel

import (
	"context"
	"fmt"

	celgo "github.com/google/cel-go/cel"

	"github.com/numclass/numclass"
)

// Evaluator implements the numclass.Evaluator interface using CEL.
type Evaluator struct {
	// How often (in comprehension iterations) CEL checks for cancellation
	interruptFrequency uint
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(e *Evaluator)

// InterruptCheckFrequency sets how many comprehension iterations CEL runs
// between checks of the evaluation context.
// Default: 100
func InterruptCheckFrequency(n uint) EvaluatorOption {
	return func(e *Evaluator) {
		e.interruptFrequency = n
	}
}

// NewEvaluator creates a new CEL Evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := Evaluator{
		interruptFrequency: 100,
	}
	for _, o := range opts {
		o(&e)
	}
	return &e
}

// program is the compiled form stored in numclass.Rule.Program.
type program struct {
	env   *celgo.Env
	ast   *celgo.Ast
	prg   celgo.Program
	param string
	// CEL source the rule was lowered to
	source string
}

// Compile translates the rule body to CEL, type-checks it with the rule's
// parameter declared as an int, and stores the runnable program in
// r.Program. Nothing is evaluated.
func (e *Evaluator) Compile(r *numclass.Rule) error {
	if r == nil {
		return fmt.Errorf("nil rule")
	}

	env, err := celgo.NewEnv(append(functions(), celgo.Variable(r.Param, celgo.IntType))...)
	if err != nil {
		return fmt.Errorf("creating CEL environment: %w", err)
	}

	var src string
	switch r.Kind {
	case numclass.Expression:
		src, err = truthy(env, r.Body)
		if err != nil {
			return err
		}
	case numclass.Function:
		stmts, err := parseBody(r.Body, r.Inline)
		if err != nil {
			return err
		}
		src, err = lower(stmts, func(expr string, line int) (string, error) {
			out, err := truthy(env, expr)
			if err != nil {
				return "", fmt.Errorf("line %d: %w", line, err)
			}
			return out, nil
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("CEL cannot compile %s rules", r.Kind)
	}

	ast, err := check(env, src)
	if err != nil {
		return err
	}

	prg, err := env.Program(ast,
		celgo.EvalOptions(celgo.OptOptimize),
		celgo.InterruptCheckFrequency(e.interruptFrequency))
	if err != nil {
		return fmt.Errorf("generating program: %w", err)
	}

	r.Program = &program{env: env, ast: ast, prg: prg, param: r.Param, source: src}
	return nil
}

// Eval runs the compiled program with the rule's parameter bound to n.
func (e *Evaluator) Eval(ctx context.Context, r *numclass.Rule, n int64) (bool, error) {
	if r == nil {
		return false, fmt.Errorf("nil rule")
	}
	p, err := compiled(r)
	if err != nil {
		return false, err
	}

	val, _, err := p.prg.ContextEval(ctx, map[string]any{p.param: n})
	if err != nil {
		return false, err
	}

	b, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule returned %v (%T), not a boolean", val.Value(), val.Value())
	}
	return b, nil
}

func compiled(r *numclass.Rule) (*program, error) {
	p, ok := r.Program.(*program)
	if !ok || p == nil {
		return nil, fmt.Errorf("rule %q has not been compiled by the CEL evaluator", r.Source)
	}
	return p, nil
}

// Source returns the CEL expression a compiled rule was lowered to.
func Source(r *numclass.Rule) (string, bool) {
	p, ok := r.Program.(*program)
	if !ok || p == nil {
		return "", false
	}
	return p.source, true
}

// check parses and type-checks a CEL expression.
func check(env *celgo.Env, src string) (*celgo.Ast, error) {
	// Parse the rule expression to an AST
	p, iss := env.Parse(src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("parsing: %w", iss.Err())
	}

	// Type-check the parsed AST against the declarations
	c, iss := env.Check(p)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("checking: %w", iss.Err())
	}
	return c, nil
}

// truthy translates a Python-style expression and converts it to a boolean
// CEL expression: booleans are used as is and integers are true when non-zero.
func truthy(env *celgo.Env, expr string) (string, error) {
	tr, err := translateExpr(expr)
	if err != nil {
		return "", err
	}
	src, err := arithmetic(env, tr)
	if err != nil {
		return "", err
	}

	ast, err := check(env, src)
	if err != nil {
		return "", err
	}

	switch t := ast.OutputType(); {
	case t.IsExactType(celgo.BoolType):
		return "(" + src + ")", nil
	case t.IsExactType(celgo.IntType):
		return "((" + src + ") != 0)", nil
	default:
		return "", fmt.Errorf("expression %q has type %s, expected bool or int", expr, t)
	}
}
