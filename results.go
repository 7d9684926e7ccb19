package numclass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/markbates/inflect"
)

// labelSeparator joins matched labels in rendered output.
const labelSeparator = ", "

// ResultEntry holds the categories a single number matched.
type ResultEntry struct {
	Number int64

	// Labels of the matched categories, in declared category order.
	// Never nil; empty if nothing matched.
	Labels []string

	// positions of the matched categories, parallel to Labels
	matched []int
}

// Joined returns the matched labels separated by ", ".
func (e ResultEntry) Joined() string {
	return strings.Join(e.Labels, labelSeparator)
}

// Detailed renders the entry as "{number}: {labels}".
func (e ResultEntry) Detailed() string {
	return strconv.FormatInt(e.Number, 10) + ": " + e.Joined()
}

// ResultSet is the outcome of analyzing a range: one entry per number in
// ascending order. A ResultSet is not modified after Analyze returns it.
type ResultSet struct {
	// The range that was analyzed
	Range Range

	// Labels of the categories applied, in declared order
	Categories []string

	Entries []ResultEntry
}

// Lines renders one line per entry. Detailed lines are prefixed with the
// number; simplified lines contain only the matched labels.
func (rs *ResultSet) Lines(detailed bool) []string {
	lines := make([]string, len(rs.Entries))
	for i, e := range rs.Entries {
		if detailed {
			lines[i] = e.Detailed()
		} else {
			lines[i] = e.Joined()
		}
	}
	return lines
}

// Detailed is shorthand for Lines(true).
func (rs *ResultSet) Detailed() []string { return rs.Lines(true) }

// Simplified is shorthand for Lines(false).
func (rs *ResultSet) Simplified() []string { return rs.Lines(false) }

// Lookup returns the entry for n.
func (rs *ResultSet) Lookup(n int64) (ResultEntry, bool) {
	if !rs.Range.Contains(n) || len(rs.Entries) == 0 {
		return ResultEntry{}, false
	}
	// entries are dense from Range.Start
	i := uint64(n) - uint64(rs.Range.Start)
	if i >= uint64(len(rs.Entries)) {
		return ResultEntry{}, false
	}
	return rs.Entries[i], true
}

// CategoryCount is the number of entries that matched one category.
type CategoryCount struct {
	Label string
	Count int
}

// Summary counts the matches per category, in declared order. Categories that
// share a label are counted separately.
func (rs *ResultSet) Summary() []CategoryCount {
	counts := make([]CategoryCount, len(rs.Categories))
	for i, l := range rs.Categories {
		counts[i].Label = l
	}
	for _, e := range rs.Entries {
		for _, i := range e.positions(rs.Categories) {
			counts[i].Count++
		}
	}
	return counts
}

// positions returns the indexes of the matched categories. Entries built by
// Analyze carry them; for hand-built entries they are recovered from labels.
func (e ResultEntry) positions(categories []string) []int {
	if len(e.matched) == len(e.Labels) {
		return e.matched
	}
	pos := make([]int, 0, len(e.Labels))
	next := 0
	for _, l := range e.Labels {
		for j := next; j < len(categories); j++ {
			if categories[j] == l {
				pos = append(pos, j)
				next = j + 1
				break
			}
		}
	}
	return pos
}

// SummaryString renders Summary as a table.
func (rs *ResultSet) SummaryString() string {
	total := len(rs.Entries)

	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("\n%s %s analyzed in %s\n",
		humanize.Comma(int64(total)), plural("number", total), rs.Range))
	tw.AppendHeader(table.Row{"Category", "Matches", "Share"})
	for _, c := range rs.Summary() {
		share := 0.0
		if total > 0 {
			share = float64(c.Count) * 100 / float64(total)
		}
		tw.AppendRow(table.Row{c.Label, humanize.Comma(int64(c.Count)), fmt.Sprintf("%.1f%%", share)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

// String renders the results as a table with one column per category.
func (rs *ResultSet) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nNUMCLASS RESULTS\n")

	header := table.Row{"Number"}
	for _, l := range rs.Categories {
		header = append(header, l)
	}
	tw.AppendHeader(header)

	for _, e := range rs.Entries {
		row := make(table.Row, len(rs.Categories)+1)
		row[0] = e.Number
		for i := range rs.Categories {
			row[i+1] = ""
		}
		for _, i := range e.positions(rs.Categories) {
			row[i+1] = "yes"
		}
		tw.AppendRow(row)
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

// CompiledCategories is an ordered list of compiled categories.
type CompiledCategories []*CompiledCategory

// Labels returns the category labels in order.
func (cc CompiledCategories) Labels() []string {
	labels := make([]string, len(cc))
	for i, c := range cc {
		labels[i] = c.Label
	}
	return labels
}

// String lists the categories and their rules in evaluation order.
func (cc CompiledCategories) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nNUMCLASS CATEGORIES\n")
	tw.AppendHeader(table.Row{"\n#", "\nLabel", "Rule\nKind", "\nRule"})

	maxWidthOfRuleColumn := 40
	maxRuleLength := 0
	for i, c := range cc {
		src := ""
		kind := ""
		if c.Rule != nil {
			src = c.Rule.String()
			kind = c.Rule.Kind.String()
		}
		if len(src) > maxRuleLength {
			maxRuleLength = len(src)
		}
		tw.AppendRow(table.Row{i + 1, c.Label, kind, src})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxWidthOfRuleColumn},
	})

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	// Only add the row separator if a rule is wide enough to wrap.
	if maxRuleLength > maxWidthOfRuleColumn {
		style.Options.SeparateRows = true
	}
	tw.SetStyle(style)
	return tw.Render()
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return inflect.Pluralize(word)
}
