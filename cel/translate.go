package cel

// This file translates rule expressions written in the Python-compatible
// subset into CEL source. The translation is token by token: keywords are
// mapped to CEL operators and everything else is copied through, leaving CEL
// to report syntax and type errors.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// translation is a rule expression rewritten as CEL source.
type translation struct {
	src string

	// offsets, in code points, of the `in` operators that were written as
	// `not in`; the negation is applied to the parsed expression
	notIn []int32
}

// translateExpr rewrites a Python-style expression as CEL.
//
//	and      -> &&
//	or       -> ||
//	not a    -> !(a)   closed before the next and/or, comma or closing bracket
//	a not in -> a in   recorded in notIn
//	True     -> true
//	False    -> false
//	//       -> /      made a floor division by arithmetic()
//
// A single / is Python's true division, which has no integer equivalent, and
// is rejected.
func translateExpr(src string) (translation, error) {
	var tr translation
	var b strings.Builder
	// pending "not" groups to close, one counter per bracket depth
	nots := []int{0}

	closeNots := func() {
		top := len(nots) - 1
		for ; nots[top] > 0; nots[top]-- {
			b.WriteByte(')')
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			end, err := scanString(src, i)
			if err != nil {
				return tr, err
			}
			b.WriteString(src[i:end])
			i = end

		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := src[i:j]
			switch word {
			case "and":
				closeNots()
				b.WriteString("&&")
			case "or":
				closeNots()
				b.WriteString("||")
			case "not":
				k := j
				for k < len(src) && (src[k] == ' ' || src[k] == '\t') {
					k++
				}
				if strings.HasPrefix(src[k:], "in") && (k+2 == len(src) || !isIdentPart(src[k+2])) {
					tr.notIn = append(tr.notIn, int32(utf8.RuneCountInString(b.String())))
					b.WriteString("in")
					j = k + 2
					break
				}
				b.WriteString("!(")
				nots[len(nots)-1]++
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				return tr, fmt.Errorf("None is not supported in rule expressions")
			default:
				b.WriteString(word)
			}
			i = j

		case isDigit(c):
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			b.WriteString(src[i:j])
			i = j

		case c == '(' || c == '[' || c == '{':
			b.WriteByte(c)
			nots = append(nots, 0)
			i++

		case c == ')' || c == ']' || c == '}':
			closeNots()
			if len(nots) > 1 {
				nots = nots[:len(nots)-1]
			}
			b.WriteByte(c)
			i++

		case c == ',':
			closeNots()
			b.WriteByte(c)
			i++

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			b.WriteByte('/')
			i += 2

		case c == '/':
			return tr, fmt.Errorf("true division (/) is not supported in rule expressions; use //")

		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			return tr, fmt.Errorf("exponentiation (**) is not supported in rule expressions")

		default:
			b.WriteByte(c)
			i++
		}
	}

	for len(nots) > 0 {
		closeNots()
		nots = nots[:len(nots)-1]
	}
	tr.src = b.String()
	return tr, nil
}

// scanString returns the offset just past the string literal starting at i.
func scanString(src string, i int) (int, error) {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated string literal")
}

// topLevelColon returns the index of the first ':' outside brackets and
// string literals, or -1.
func topLevelColon(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'':
			end, err := scanString(s, i)
			if err != nil {
				return -1
			}
			i = end - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripComment removes a trailing # comment outside string literals.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"', '\'':
			end, err := scanString(line, i)
			if err != nil {
				return line
			}
			i = end - 1
		case '#':
			return line[:i]
		}
	}
	return line
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
