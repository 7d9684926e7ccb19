// Package numclass classifies the integers in a range against a set of named
// categories loaded from a declarative configuration.
//
// Typical use is as follows:
//
//  1. Load a configuration document with LoadConfig
//  2. Create an engine, usually with the CEL evaluator (package numclass/cel)
//  3. Use the engine to compile the categories
//  4. Validate a range with NewRange or ParseRange
//  5. Use the engine to analyze the range
//  6. Render the results with ResultSet.Lines, or inspect the entries
//
// # Configuration
//
// A configuration document has a single interpreted key, categories, holding
// an ordered list of categories:
//
//	{
//	  "categories": [
//	    {"label": "Prime", "rule": "prime"},
//	    {"label": "Div3",  "rule": "divisible_by", "args": [3]},
//	    {"label": "Div5",  "rule": "lambda x: x % 5 == 0"},
//	    {"label": "Div7",  "rule": "def div7(x):\n    if x % 7:\n        return False\n    return True"}
//	  ]
//	}
//
// YAML documents with the same shape are read when the file name ends in
// .yaml or .yml.
//
// # Rule Forms
//
// A rule is resolved in this order:
//
//  1. The name of a built-in (prime, even, odd, square, divisible_by)
//  2. A lambda expression of exactly one variable
//  3. A function definition with exactly one parameter
//
// Anything else fails to compile. Lambda and function bodies are compiled by
// the engine's Evaluator; the CEL evaluator accepts a Python-compatible subset
// (see package numclass/cel).
//
// # Trust
//
// Lambda and function rules are logic supplied by whoever wrote the
// configuration. The CEL evaluator cannot perform I/O and always terminates,
// but the engine does not otherwise constrain what a rule computes, and rules
// are expected to be pure. Do not load configurations from untrusted sources
// unless the engine is created with BuiltinsOnly(true), which rejects every
// rule that is not a built-in.
//
// # Reloading, Parallelism and Explanations
//
// A Vault holds compiled categories that can be replaced or changed while
// analyses run; each analysis uses the set that was current when it started.
//
// The Parallel engine option analyzes large ranges in concurrent batches and
// returns the same results, and the same first error, as a sequential run.
//
// CompiledCategory.Explain reports how a category's rule evaluated for one
// number. With the CEL evaluator this includes the value of every
// sub-expression.
//
// # Errors
//
// Every failure is one of four kinds, matched with errors.Is against
// ErrConfig, ErrRuleCompilation, ErrInvalidRange and ErrRuleExecution, or
// unpacked with errors.As into the corresponding *Error type. All four are
// fatal to the run: a rule that fails on one number aborts the whole analysis
// and no partial ResultSet is returned.
package numclass
