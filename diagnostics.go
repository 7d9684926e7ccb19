package numclass

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Diagnostics is the evaluation trace of one rule on one number. Each node
// is a sub-expression of the compiled rule and the value it produced.
type Diagnostics struct {
	Expr string
	// Value is empty when the sub-expression was not evaluated, for example
	// the untaken side of a conditional.
	Value    string
	Line     int
	Column   int
	Offset   int
	Children []Diagnostics
}

// Evaluated reports whether the sub-expression was evaluated.
func (d *Diagnostics) Evaluated() bool {
	return d.Value != ""
}

// Explanation is the diagnostic report for one category and one number.
type Explanation struct {
	Label  string
	Rule   string
	Number int64
	Match  bool
	// Compiled is the form the rule was compiled to; empty for built-ins.
	Compiled string
	Trace    *Diagnostics
}

// String produces a report of the evaluation: the rule, the compiled form,
// and a table of every sub-expression in source order.
func (x *Explanation) String() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "Category: %s\n", x.Label)
	fmt.Fprintf(&s, "Number:   %d\n", x.Number)
	fmt.Fprintf(&s, "Match:    %t\n\n", x.Match)
	s.WriteString("Rule:\n")
	s.WriteString("-----\n")
	s.WriteString(x.Rule)
	s.WriteString("\n")
	if x.Compiled != "" {
		s.WriteString("\nCompiled:\n")
		s.WriteString("---------\n")
		s.WriteString(wordWrap(x.Compiled, 100))
		s.WriteString("\n")
	}
	if x.Trace != nil {
		s.WriteString("\nEvaluation State:\n")
		s.WriteString("-----------------\n")
		s.WriteString(x.Trace.table().Render())
		s.WriteString("\n")
	}
	return s.String()
}

func (d *Diagnostics) table() table.Writer {
	tw := table.NewWriter()
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"Loc", "Expression", "Value"})

	fd := flattenDiagnostics(*d)
	sortListByPosition(fd)

	for _, cd := range fd {
		v := cd.Value
		if !cd.Evaluated() {
			v = "-"
		}
		tw.AppendRow(table.Row{fmt.Sprintf("%d:%d", cd.Line, cd.Column), cd.Expr, v})
	}
	return tw
}

func flattenDiagnostics(d Diagnostics) []Diagnostics {
	l := []Diagnostics{d}
	for _, c := range d.Children {
		l = append(l, flattenDiagnostics(c)...)
	}
	return l
}

func sortListByPosition(l []Diagnostics) {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Offset < l[j].Offset
	})
}

// wordWrap breaks text into lines of at most lineWidth characters where it
// can, splitting on spaces.
func wordWrap(text string, lineWidth int) string {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return text
	}
	wrapped := words[0]
	spaceLeft := lineWidth - len(wrapped)
	for _, word := range words[1:] {
		if len(word)+1 > spaceLeft {
			wrapped += "\n" + word
			spaceLeft = lineWidth - len(word)
		} else {
			wrapped += " " + word
			spaceLeft -= 1 + len(word)
		}
	}
	return wrapped
}
