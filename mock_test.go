package numclass_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/numclass/numclass"
)

// -------------------------------------------------- MOCK EVALUATOR
// mockEvaluator is used for testing.
// It understands a handful of fixed rule bodies and records which rules
// were compiled and how many evaluations were made.
//
//	true       always matches
//	false      never matches
//	error      fails on every number
//	above K    matches numbers greater than K
//	fail K     fails on numbers greater than K, never matches otherwise
type mockEvaluator struct {
	mu       sync.Mutex
	compiled []string // sources of the compiled rules

	evals atomic.Int64

	// Introduce an artificial delay in evaluating the rule.
	// Used for testing the engine's context cancelation functionality.
	evalDelay time.Duration
}

type mockProgram struct {
	kind string
	k    int64
}

func newMockEvaluator() *mockEvaluator {
	return &mockEvaluator{}
}

func (m *mockEvaluator) Compile(r *numclass.Rule) error {
	p := mockProgram{}
	switch r.Body {
	case "true", "false", "error":
		p.kind = r.Body
	default:
		if _, err := fmt.Sscanf(r.Body, "above %d", &p.k); err == nil {
			p.kind = "above"
		} else if _, err := fmt.Sscanf(r.Body, "fail %d", &p.k); err == nil {
			p.kind = "fail"
		} else {
			return fmt.Errorf("mock cannot compile %q", r.Body)
		}
	}

	m.mu.Lock()
	m.compiled = append(m.compiled, r.Source)
	m.mu.Unlock()

	r.Program = p
	return nil
}

func (m *mockEvaluator) Eval(ctx context.Context, r *numclass.Rule, n int64) (bool, error) {
	m.evals.Add(1)
	if m.evalDelay > 0 {
		select {
		case <-time.After(m.evalDelay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	p, ok := r.Program.(mockProgram)
	if !ok {
		return false, fmt.Errorf("compiled data type assertion failed")
	}

	switch p.kind {
	case "true":
		return true, nil
	case "error":
		return false, fmt.Errorf("mock failure")
	case "above":
		return n > p.k, nil
	case "fail":
		if n > p.k {
			return false, fmt.Errorf("mock failure above %d", p.k)
		}
	}
	return false, nil
}

func (m *mockEvaluator) compiledRules() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.compiled...)
}
