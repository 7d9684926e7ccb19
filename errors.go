package numclass

import (
	"errors"
	"fmt"
)

// Sentinels for the four kinds of failure. Every error returned by the engine
// matches exactly one of them with errors.Is.
var (
	ErrConfig          = errors.New("config error")
	ErrRuleCompilation = errors.New("rule compilation error")
	ErrInvalidRange    = errors.New("invalid range")
	ErrRuleExecution   = errors.New("rule execution error")
)

// ConfigError reports a configuration resource that is missing, unreadable or
// structurally malformed.
type ConfigError struct {
	// Path of the configuration file, if the document came from a file.
	Path string
	// Index of the offending category, or -1 if the error is not specific to one.
	Index int
	// Field is the name of the missing or invalid field, if any.
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed category %d: missing %s", e.Index, e.Field)
	}
	if e.Err == nil {
		return ErrConfig.Error()
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error        { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// RuleCompilationError reports rule text that cannot be turned into a
// predicate.
type RuleCompilationError struct {
	Label string
	Rule  string
	Err   error
}

func (e *RuleCompilationError) Error() string {
	return fmt.Sprintf("error in rule for label %s: %v", e.Label, e.Err)
}

func (e *RuleCompilationError) Unwrap() error        { return e.Err }
func (e *RuleCompilationError) Is(target error) bool { return target == ErrRuleCompilation }

// InvalidRangeError reports bounds that do not form a valid range.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string { return e.Reason }

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// RuleExecutionError reports a predicate that failed while being evaluated
// against a number. The analysis run is aborted.
type RuleExecutionError struct {
	Label  string
	Number int64
	Err    error
}

func (e *RuleExecutionError) Error() string {
	return fmt.Sprintf("evaluating rule for label %s on %d: %v", e.Label, e.Number, e.Err)
}

func (e *RuleExecutionError) Unwrap() error        { return e.Err }
func (e *RuleExecutionError) Is(target error) bool { return target == ErrRuleExecution }
