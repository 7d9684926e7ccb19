package numclass

import "context"

// Evaluator is the interface implemented by types that can compile and evaluate
// Expression and Function rules. Built-in rules never reach the Evaluator.
type Evaluator interface {
	// Compile pre-processes the rule, storing the compiled form in r.Program.
	// Compile must not evaluate the rule against any number.
	Compile(r *Rule) error

	// Eval tests the compiled rule against n.
	Eval(ctx context.Context, r *Rule, n int64) (bool, error)
}

// Diagnoser is implemented by evaluators that can trace a single evaluation,
// reporting the value of every sub-expression of the rule.
type Diagnoser interface {
	Diagnose(ctx context.Context, r *Rule, n int64) (*Diagnostics, string, error)
}
