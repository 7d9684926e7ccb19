package numclass

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Engine compiles categories into predicates and applies them across a range.
// An Engine holds no state between runs and may be reused.
type Engine struct {
	// The Evaluator used for Expression and Function rules. May be nil,
	// in which case only built-in rules compile.
	evaluator Evaluator

	// Options used by the engine during compilation and analysis
	opts EngineOptions
}

// EngineOptions control compilation and analysis. See the functional
// definitions below for the meaning.
type EngineOptions struct {
	BuiltinsOnly bool
	MaxNumbers   uint64
	BatchSize    int
	Workers      int
}

type EngineOption func(f *EngineOptions)

// Given an array of EngineOption functions, apply their effect
// on the EngineOptions struct.
func applyEngineOptions(o *EngineOptions, opts ...EngineOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// BuiltinsOnly rejects Expression and Function rules at compile time, so that
// no configuration-supplied logic is ever evaluated.
// Default: off
func BuiltinsOnly(b bool) EngineOption {
	return func(f *EngineOptions) {
		f.BuiltinsOnly = b
	}
}

// MaxNumbers limits how many integers a single analysis may cover.
// Zero means no limit.
// Default: 0
func MaxNumbers(n uint64) EngineOption {
	return func(f *EngineOptions) {
		f.MaxNumbers = n
	}
}

// Parallel splits the range into batches of batchSize numbers and evaluates
// up to workers batches concurrently. A workers value of zero or less uses
// runtime.GOMAXPROCS. The results, and the error reported when a rule fails,
// are the same as for a sequential run. The Evaluator must be safe for
// concurrent use.
// Default: off (sequential)
func Parallel(batchSize, workers int) EngineOption {
	return func(f *EngineOptions) {
		f.BatchSize = batchSize
		f.Workers = workers
	}
}

// NewEngine initializes an engine that compiles non-built-in rules with the
// evaluator.
func NewEngine(evaluator Evaluator, opts ...EngineOption) *Engine {
	engine := Engine{
		evaluator: evaluator,
	}
	applyEngineOptions(&engine.opts, opts...)
	return &engine
}

// CompiledCategory is a category whose rule is ready to evaluate.
type CompiledCategory struct {
	Label string
	Rule  *Rule

	pred func(ctx context.Context, n int64) (bool, error)
	// evaluator that compiled the rule; nil for built-ins
	ev Evaluator
}

// Match reports whether n satisfies the category.
func (c *CompiledCategory) Match(ctx context.Context, n int64) (bool, error) {
	if c.pred == nil {
		return false, fmt.Errorf("category %s is not compiled", c.Label)
	}
	return c.pred(ctx, n)
}

// Compile resolves every category's rule into a predicate, preserving the
// declared order. The first failure aborts compilation.
func (e *Engine) Compile(categories []Category) (CompiledCategories, error) {
	out := make(CompiledCategories, 0, len(categories))
	for i, cat := range categories {
		if strings.TrimSpace(cat.Label) == "" {
			return nil, &ConfigError{Index: i, Field: "label"}
		}
		if strings.TrimSpace(cat.Rule) == "" {
			return nil, &ConfigError{Index: i, Field: "rule"}
		}

		c, err := e.compileCategory(cat)
		if err != nil {
			return nil, &RuleCompilationError{Label: cat.Label, Rule: cat.Rule, Err: err}
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) compileCategory(cat Category) (*CompiledCategory, error) {
	r, err := ParseRule(cat.Rule, cat.Args)
	if err != nil {
		return nil, err
	}

	c := &CompiledCategory{Label: cat.Label, Rule: r}
	if r.Kind == BuiltIn {
		f := r.builtin
		c.pred = func(_ context.Context, n int64) (bool, error) { return f(n), nil }
		return c, nil
	}

	if e.opts.BuiltinsOnly {
		return nil, fmt.Errorf("%s rules are disabled; only built-in rules are allowed", r.Kind)
	}
	if e.evaluator == nil {
		return nil, fmt.Errorf("no evaluator configured for %s rules", r.Kind)
	}

	if err := e.evaluator.Compile(r); err != nil {
		return nil, err
	}
	ev := e.evaluator
	c.ev = ev
	c.pred = func(ctx context.Context, n int64) (bool, error) { return ev.Eval(ctx, r, n) }
	return c, nil
}

// Explain evaluates one category against one number and reports how the
// result was reached. Rules compiled by an evaluator that implements
// Diagnoser include an evaluation trace.
func (c *CompiledCategory) Explain(ctx context.Context, n int64) (*Explanation, error) {
	x := &Explanation{Label: c.Label, Number: n}
	if c.Rule != nil {
		x.Rule = c.Rule.String()
	}

	if d, ok := c.ev.(Diagnoser); ok {
		trace, compiled, err := d.Diagnose(ctx, c.Rule, n)
		if err != nil {
			return nil, &RuleExecutionError{Label: c.Label, Number: n, Err: err}
		}
		x.Trace = trace
		x.Compiled = compiled
	}

	ok, err := c.Match(ctx, n)
	if err != nil {
		return nil, &RuleExecutionError{Label: c.Label, Number: n, Err: err}
	}
	x.Match = ok
	return x, nil
}

// Analyze evaluates every category against every number in the range, in
// ascending numeric order and declared category order.
//
// A failing predicate aborts the run with a RuleExecutionError; no partial
// results are returned. Cancelling ctx stops the run between numbers and
// returns the context's error.
func (e *Engine) Analyze(ctx context.Context, categories CompiledCategories, r Range) (*ResultSet, error) {
	if !r.valid() {
		return nil, &InvalidRangeError{
			Start:  strconv.FormatInt(r.Start, 10),
			End:    strconv.FormatInt(r.End, 10),
			Reason: "start must be smaller than end",
		}
	}
	if e.opts.MaxNumbers > 0 && r.Len() > e.opts.MaxNumbers {
		return nil, &InvalidRangeError{
			Start:  strconv.FormatInt(r.Start, 10),
			End:    strconv.FormatInt(r.End, 10),
			Reason: fmt.Sprintf("range %s covers more than %d numbers", r, e.opts.MaxNumbers),
		}
	}

	rs := &ResultSet{
		Range:      r,
		Categories: categories.Labels(),
	}

	if e.parallel(r) {
		if err := e.analyzeParallel(ctx, categories, r, rs); err != nil {
			return nil, err
		}
		return rs, nil
	}

	rs.Entries = make([]ResultEntry, 0, capHint(r))
	for n := r.Start; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := evaluate(ctx, categories, n)
		if err != nil {
			return nil, err
		}
		rs.Entries = append(rs.Entries, entry)

		// n == r.End must be checked before incrementing so that
		// r.End == math.MaxInt64 terminates
		if n == r.End {
			break
		}
	}
	return rs, nil
}

// evaluate applies every category to n.
func evaluate(ctx context.Context, categories CompiledCategories, n int64) (ResultEntry, error) {
	entry := ResultEntry{Number: n, Labels: []string{}}
	for i, c := range categories {
		ok, err := c.Match(ctx, n)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ResultEntry{}, ctxErr
			}
			return ResultEntry{}, &RuleExecutionError{Label: c.Label, Number: n, Err: err}
		}
		if ok {
			entry.Labels = append(entry.Labels, c.Label)
			entry.matched = append(entry.matched, i)
		}
	}
	return entry, nil
}

// maxParallel bounds the ranges analyzed in parallel; the entries are
// allocated up front.
const maxParallel = 1 << 32

func (e *Engine) parallel(r Range) bool {
	n := r.Len()
	return e.opts.BatchSize > 0 && n > uint64(e.opts.BatchSize) && n <= maxParallel
}

// analyzeParallel fills rs.Entries batch by batch. Batches after the lowest
// failed batch are skipped, and the error of the lowest failed batch is
// returned, so the outcome matches a sequential run.
func (e *Engine) analyzeParallel(ctx context.Context, categories CompiledCategories, r Range, rs *ResultSet) error {
	total := r.Len()
	size := uint64(e.opts.BatchSize)
	batches := total / size
	if total%size != 0 {
		batches++
	}

	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rs.Entries = make([]ResultEntry, total)
	errs := make([]error, batches)

	var failed atomic.Int64
	failed.Store(math.MaxInt64)

	var g errgroup.Group
	g.SetLimit(workers)
	for b := uint64(0); b < batches; b++ {
		if int64(b) > failed.Load() {
			break
		}
		g.Go(func() error {
			if int64(b) > failed.Load() {
				return nil
			}
			for i := b * size; i < min((b+1)*size, total); i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				// offsets wrap in uint64, which gives the right int64 result
				n := int64(uint64(r.Start) + i)
				entry, err := evaluate(ctx, categories, n)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return ctxErr
					}
					errs[b] = err
					for {
						cur := failed.Load()
						if int64(b) >= cur || failed.CompareAndSwap(cur, int64(b)) {
							break
						}
					}
					return nil
				}
				rs.Entries[i] = entry
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Run compiles the configuration's categories and analyzes the range.
func (e *Engine) Run(ctx context.Context, cfg *Config, r Range) (*ResultSet, error) {
	if cfg == nil {
		return nil, &ConfigError{Index: -1, Err: errors.New("nil config")}
	}
	compiled, err := e.Compile(cfg.Categories)
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, compiled, r)
}

const maxPrealloc = 1 << 16

func capHint(r Range) int {
	if n := r.Len(); n < maxPrealloc {
		return int(n)
	}
	return maxPrealloc
}
