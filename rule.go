package numclass

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind identifies which form a rule's source took.
type RuleKind int

const (
	// BuiltIn rules name a predicate from the built-in registry.
	BuiltIn RuleKind = iota + 1
	// Expression rules are single-expression lambdas of one variable,
	// for example `lambda x: x % 3 == 0`.
	Expression
	// Function rules are named single-argument function definitions,
	// for example `def div7(x): return x % 7 == 0`.
	Function
)

func (k RuleKind) String() string {
	switch k {
	case BuiltIn:
		return "builtin"
	case Expression:
		return "expression"
	case Function:
		return "function"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// A Rule is the parsed form of a category's rule text.
//
// Rule forms are resolved in a fixed order: an exact built-in name first,
// then a lambda expression, then a function definition. Anything else is
// rejected.
//
//	prime                      BuiltIn, Name="prime"
//	lambda x: x % 3 == 0       Expression, Param="x", Body="x % 3 == 0"
//	def div7(n):               Function, Name="div7", Param="n",
//	    return n % 7 == 0        Body="    return n % 7 == 0"
//
// Expression and Function rules carry source that an Evaluator compiles.
// Compiling them runs caller-supplied logic when the rule is evaluated, so the
// configuration they came from must be trusted.
type Rule struct {
	Kind RuleKind `json:"kind"`

	// Name is the built-in keyword, or the function name for Function rules.
	Name string `json:"name,omitempty"`

	// Param is the variable bound to the number being tested.
	Param string `json:"param,omitempty"`

	// Body is the expression (Expression) or statement block (Function).
	// An inline function body such as `def f(x): return x > 1` is stored
	// without the header.
	Body string `json:"body,omitempty"`

	// Inline is set for Function rules whose body follows the header on the
	// same line.
	Inline bool `json:"inline,omitempty"`

	// Args are the parameters of a parameterised built-in.
	Args []int64 `json:"args,omitempty"`

	// Source is the raw rule text.
	Source string `json:"source"`

	// Reference to the compiled program; owned by the Evaluator.
	Program any `json:"-"`

	builtin func(int64) bool
}

var (
	lambdaHeader = regexp.MustCompile(`(?s)^lambda\b([^:]*):(.*)$`)
	defKeyword   = regexp.MustCompile(`^def\s`)
	defHeader    = regexp.MustCompile(`^def\s+([A-Za-z_][A-Za-z_0-9]*)\s*\(([^)]*)\)\s*:(.*)$`)
	identifier   = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)
)

// ParseRule resolves rule text into a Rule. Built-in rules are bound to their
// predicate immediately; other forms are returned uncompiled. A built-in name
// must match exactly, without surrounding whitespace.
func ParseRule(src string, args []int64) (*Rule, error) {
	text := strings.TrimSpace(src)
	if text == "" {
		return nil, fmt.Errorf("empty rule")
	}

	if b, ok := builtins[src]; ok {
		if len(args) != b.Arity {
			return nil, fmt.Errorf("built-in %s takes %d args, got %d", b.Name, b.Arity, len(args))
		}
		f, err := b.Make(args)
		if err != nil {
			return nil, err
		}
		return &Rule{Kind: BuiltIn, Name: b.Name, Args: args, Source: src, builtin: f}, nil
	}

	if len(args) > 0 {
		return nil, fmt.Errorf("args are only supported for built-in rules")
	}

	if m := lambdaHeader.FindStringSubmatch(text); m != nil {
		param, err := singleParam(m[1])
		if err != nil {
			return nil, fmt.Errorf("lambda: %w", err)
		}
		body := strings.TrimSpace(m[2])
		if body == "" {
			return nil, fmt.Errorf("lambda: empty expression")
		}
		return &Rule{Kind: Expression, Param: param, Body: body, Source: src}, nil
	}

	if defKeyword.MatchString(text) {
		return parseFunction(text, src)
	}

	if _, ok := builtins[text]; ok {
		return nil, fmt.Errorf("unrecognized rule form %q: built-in names must match exactly", src)
	}
	return nil, fmt.Errorf("unrecognized rule form %q", text)
}

func parseFunction(text, src string) (*Rule, error) {
	header, body, _ := strings.Cut(text, "\n")
	m := defHeader.FindStringSubmatch(strings.TrimRight(header, " \t\r"))
	if m == nil {
		return nil, fmt.Errorf("invalid function definition %q", header)
	}
	param, err := singleParam(m[2])
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", m[1], err)
	}

	inline := strings.TrimSpace(m[3])
	r := &Rule{Kind: Function, Name: m[1], Param: param, Source: src, Inline: inline != ""}
	switch {
	case inline != "" && strings.TrimSpace(body) != "":
		return nil, fmt.Errorf("function %s: inline body followed by more statements", m[1])
	case inline != "":
		body = inline
	case strings.TrimSpace(body) == "":
		return nil, fmt.Errorf("function %s: missing body", m[1])
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "def ") {
			return nil, fmt.Errorf("rule must define exactly one function")
		}
	}

	r.Body = body
	return r, nil
}

func singleParam(list string) (string, error) {
	params := strings.Split(list, ",")
	if strings.TrimSpace(list) == "" {
		params = nil
	}
	if len(params) != 1 {
		return "", fmt.Errorf("must take exactly one argument, got %d", len(params))
	}
	p := strings.TrimSpace(params[0])
	if !identifier.MatchString(p) {
		return "", fmt.Errorf("invalid parameter name %q", p)
	}
	return p, nil
}

func (r *Rule) String() string {
	switch r.Kind {
	case BuiltIn:
		if len(r.Args) > 0 {
			return fmt.Sprintf("%s%v", r.Name, r.Args)
		}
		return r.Name
	default:
		return strings.TrimSpace(r.Source)
	}
}
