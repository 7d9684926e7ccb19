package cel

// This file parses function bodies written in the Python-compatible subset
// and lowers them to a single CEL expression.
//
// Supported statements:
//
//	return <expr>
//	if <expr>: ... / elif <expr>: ... / else: ...
//	pass
//
// A body that falls off its end returns false. Blocks are delimited by
// indentation; a statement may also follow the colon on the same line, as in
// `if x % 7: return False`.

import (
	"fmt"
	"slices"
	"strings"
)

type stmtKind int

const (
	stmtReturn stmtKind = iota
	stmtPass
	stmtIf
)

type branch struct {
	cond string
	line int
	body []statement
}

type statement struct {
	kind stmtKind
	line int

	// return value for stmtReturn
	expr string

	// if / elif branches for stmtIf, in order
	branches []branch
	// else body for stmtIf; nil if absent
	orElse []statement
}

type sourceLine struct {
	num    int
	indent int
	text   string
}

// splitLines breaks a body into non-blank, comment-free lines with their
// indentation. firstLine is the line number of the first line of body.
func splitLines(body string, firstLine int) []sourceLine {
	var lines []sourceLine
	for i, raw := range strings.Split(body, "\n") {
		raw = strings.TrimRight(stripComment(raw), " \t\r")
		text := strings.TrimLeft(raw, " \t")
		if text == "" {
			continue
		}
		indent := 0
		for _, c := range raw[:len(raw)-len(text)] {
			if c == '\t' {
				indent += 4
			} else {
				indent++
			}
		}
		lines = append(lines, sourceLine{num: firstLine + i, indent: indent, text: text})
	}
	return lines
}

type blockParser struct {
	lines []sourceLine
	pos   int
}

// parseBody parses a function body. An inline body (from `def f(x): ...`) is a
// single line with zero indentation; otherwise the body must be indented.
func parseBody(body string, inline bool) ([]statement, error) {
	first := 2
	if inline {
		first = 1
	}
	p := &blockParser{lines: splitLines(body, first)}
	if len(p.lines) == 0 {
		return nil, fmt.Errorf("empty function body")
	}

	indent := p.lines[0].indent
	if !inline && indent == 0 {
		return nil, fmt.Errorf("line %d: expected an indented block", p.lines[0].num)
	}

	stmts, err := p.block(indent)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		return nil, fmt.Errorf("line %d: unexpected statement outside the function body", ln.num)
	}
	return stmts, nil
}

func (p *blockParser) block(indent int) ([]statement, error) {
	var out []statement
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, fmt.Errorf("line %d: unexpected indent", ln.num)
		}
		s, err := p.statement(indent)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *blockParser) statement(indent int) (statement, error) {
	ln := p.lines[p.pos]
	p.pos++

	kw, rest := keyword(ln.text)
	switch kw {
	case "return", "pass":
		return simpleStatement(kw, rest, ln.num)

	case "if":
		cond, tail, err := splitHeader(rest, ln.num)
		if err != nil {
			return statement{}, err
		}
		body, err := p.suite(indent, tail, ln.num)
		if err != nil {
			return statement{}, err
		}
		s := statement{kind: stmtIf, line: ln.num, branches: []branch{{cond: cond, line: ln.num, body: body}}}

		for p.pos < len(p.lines) && p.lines[p.pos].indent == indent {
			next := p.lines[p.pos]
			kw, rest := keyword(next.text)
			if kw != "elif" && kw != "else" {
				break
			}
			p.pos++
			cond, tail, err := splitHeader(rest, next.num)
			if err != nil {
				return statement{}, err
			}
			body, err := p.suite(indent, tail, next.num)
			if err != nil {
				return statement{}, err
			}
			if kw == "else" {
				if cond != "" {
					return statement{}, fmt.Errorf("line %d: else takes no condition", next.num)
				}
				s.orElse = body
				break
			}
			if cond == "" {
				return statement{}, fmt.Errorf("line %d: elif requires a condition", next.num)
			}
			s.branches = append(s.branches, branch{cond: cond, line: next.num, body: body})
		}
		if s.branches[0].cond == "" {
			return statement{}, fmt.Errorf("line %d: if requires a condition", ln.num)
		}
		return s, nil

	case "elif", "else":
		return statement{}, fmt.Errorf("line %d: %s without a matching if", ln.num, kw)

	case "def":
		return statement{}, fmt.Errorf("line %d: nested function definitions are not supported", ln.num)

	default:
		return statement{}, fmt.Errorf("line %d: unsupported statement %q", ln.num, ln.text)
	}
}

// suite parses the body following an if/elif/else header: either the inline
// tail after the colon, or the indented block on the following lines.
func (p *blockParser) suite(indent int, tail string, num int) ([]statement, error) {
	if tail != "" {
		kw, rest := keyword(tail)
		if kw != "return" && kw != "pass" {
			return nil, fmt.Errorf("line %d: unsupported inline statement %q", num, tail)
		}
		s, err := simpleStatement(kw, rest, num)
		if err != nil {
			return nil, err
		}
		return []statement{s}, nil
	}
	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= indent {
		return nil, fmt.Errorf("line %d: expected an indented block", num)
	}
	return p.block(p.lines[p.pos].indent)
}

func simpleStatement(kw, rest string, num int) (statement, error) {
	switch kw {
	case "return":
		if rest == "" {
			rest = "False"
		}
		return statement{kind: stmtReturn, line: num, expr: rest}, nil
	case "pass":
		if rest != "" {
			return statement{}, fmt.Errorf("line %d: unexpected %q after pass", num, rest)
		}
		return statement{kind: stmtPass, line: num}, nil
	}
	return statement{}, fmt.Errorf("line %d: unsupported statement %q", num, kw)
}

// keyword splits a statement into its leading keyword and the remainder.
// It returns an empty keyword if the statement does not start with one.
func keyword(text string) (string, string) {
	j := 0
	for j < len(text) && isIdentPart(text[j]) {
		j++
	}
	switch w := text[:j]; w {
	case "return", "if", "elif", "else", "pass", "def":
		return w, strings.TrimSpace(text[j:])
	}
	return "", text
}

// splitHeader splits "cond: tail" at the first top-level colon.
func splitHeader(rest string, num int) (cond, tail string, err error) {
	i := topLevelColon(rest)
	if i < 0 {
		return "", "", fmt.Errorf("line %d: expected ':'", num)
	}
	return strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+1:]), nil
}

// lower turns a statement list into one CEL expression. conv converts a
// condition or return value into a boolean CEL expression and is called once
// per condition and return statement.
//
// Each reachable return becomes a guarded value, guarded by the conditions
// that lead to it, and the guarded values are chained in source order. The
// first guard that holds selects the value, as the first return reached
// would. Statements are never copied into more than one branch, so the size
// of the result grows with the size of the body.
func lower(stmts []statement, conv func(expr string, line int) (string, error)) (string, error) {
	rets, _, err := returns(stmts, conv)
	if err != nil {
		return "", err
	}
	out := "false"
	for i := len(rets) - 1; i >= 0; i-- {
		r := rets[i]
		if len(r.guard) == 0 {
			out = r.value
			continue
		}
		out = fmt.Sprintf("(%s ? %s : %s)", strings.Join(r.guard, " && "), r.value, out)
	}
	return out, nil
}

// guarded is a return value and the conditions under which it is reached,
// given that no earlier return was taken.
type guarded struct {
	guard []string
	value string
}

// returns collects the guarded return values of a statement list in source
// order. done reports whether the list returns on every path; statements
// after one that always returns are unreachable and are dropped.
func returns(stmts []statement, conv func(expr string, line int) (string, error)) (rets []guarded, done bool, err error) {
	for _, s := range stmts {
		switch s.kind {
		case stmtReturn:
			v, err := conv(s.expr, s.line)
			if err != nil {
				return nil, false, err
			}
			return append(rets, guarded{value: v}), true, nil

		case stmtPass:

		case stmtIf:
			// conditions of earlier branches that may fall through; a branch
			// that always returns needs no negation, since reaching a later
			// branch already means it was not taken
			var skipped []string
			for _, b := range s.branches {
				cond, err := conv(b.cond, b.line)
				if err != nil {
					return nil, false, err
				}
				inner, bodyDone, err := returns(b.body, conv)
				if err != nil {
					return nil, false, err
				}
				prefix := append(slices.Clip(skipped), cond)
				for _, r := range inner {
					rets = append(rets, guarded{guard: slices.Concat(prefix, r.guard), value: r.value})
				}
				if !bodyDone {
					skipped = append(skipped, "!"+cond)
				}
			}
			inner, elseDone, err := returns(s.orElse, conv)
			if err != nil {
				return nil, false, err
			}
			for _, r := range inner {
				rets = append(rets, guarded{guard: slices.Concat(skipped, r.guard), value: r.value})
			}
			if s.orElse != nil && elseDone && len(skipped) == 0 {
				return rets, true, nil
			}

		default:
			return nil, false, fmt.Errorf("line %d: unknown statement", s.line)
		}
	}
	return rets, false, nil
}
