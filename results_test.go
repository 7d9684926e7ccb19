package numclass_test

import (
	"context"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/numclass/numclass"
)

func analyzeBuiltins(t *testing.T, start, end int64) *numclass.ResultSet {
	t.Helper()
	rs, err := numclass.NewEngine(nil).Run(context.Background(), &numclass.Config{Categories: builtinCategories()}, mustRange(t, start, end))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rs
}

func TestLines(t *testing.T) {
	is := is.New(t)

	rs := analyzeBuiltins(t, 1, 3)
	is.Equal(rs.Lines(true), []string{"1: odd", "2: prime, even", "3: prime, odd"})
	is.Equal(rs.Lines(false), []string{"odd", "prime, even", "prime, odd"})
	is.Equal(rs.Detailed(), rs.Lines(true))
	is.Equal(rs.Simplified(), rs.Lines(false))
}

func TestLookup(t *testing.T) {
	is := is.New(t)

	rs := analyzeBuiltins(t, -3, 3)

	e, ok := rs.Lookup(-3)
	is.True(ok)
	is.Equal(e.Number, int64(-3))
	is.Equal(e.Labels, []string{"odd"})

	e, ok = rs.Lookup(2)
	is.True(ok)
	is.Equal(e.Joined(), "prime, even")

	_, ok = rs.Lookup(4)
	is.True(!ok)
	_, ok = rs.Lookup(-4)
	is.True(!ok)
}

func TestSummary(t *testing.T) {
	is := is.New(t)

	rs := analyzeBuiltins(t, 1, 10)
	is.Equal(rs.Summary(), []numclass.CategoryCount{
		{Label: "prime", Count: 4},
		{Label: "even", Count: 5},
		{Label: "odd", Count: 5},
	})

	s := rs.SummaryString()
	is.True(strings.Contains(s, "Category"))
	is.True(strings.Contains(s, "40.0%"))
	is.True(strings.Contains(s, "50.0%"))
}

// Results assembled by hand carry no category positions; repeated labels
// are matched to categories in declared order.
func TestSummaryHandBuilt(t *testing.T) {
	is := is.New(t)

	rs := &numclass.ResultSet{
		Range:      numclass.Range{Start: 1, End: 3},
		Categories: []string{"A", "B", "A"},
		Entries: []numclass.ResultEntry{
			{Number: 1, Labels: []string{"A"}},
			{Number: 2, Labels: []string{"A", "A"}},
			{Number: 3, Labels: []string{"B", "A"}},
		},
	}
	is.Equal(rs.Summary(), []numclass.CategoryCount{
		{Label: "A", Count: 2},
		{Label: "B", Count: 1},
		{Label: "A", Count: 2},
	})
}

func TestResultTable(t *testing.T) {
	is := is.New(t)

	rs := analyzeBuiltins(t, 1, 3)
	s := rs.String()
	is.True(strings.Contains(s, "NUMCLASS RESULTS"))

	lines := strings.Split(s, "\n")
	var header, row2 string
	for _, l := range lines {
		if strings.Contains(l, "Number") {
			header = l
		}
		if strings.Contains(l, " 2 ") {
			row2 = l
		}
	}
	is.True(strings.Contains(header, "prime"))
	is.True(strings.Contains(header, "even"))
	is.True(strings.Contains(header, "odd"))
	is.Equal(strings.Count(row2, "yes"), 2) // prime, even
}

func TestCompiledCategoriesString(t *testing.T) {
	is := is.New(t)

	compiled, err := numclass.NewEngine(newMockEvaluator()).Compile([]numclass.Category{
		{Label: "Prime", Rule: "prime"},
		{Label: "Div3", Rule: "divisible_by", Args: []int64{3}},
		{Label: "Big", Rule: "lambda x: above 100"},
	})
	is.NoErr(err)

	s := compiled.String()
	is.True(strings.Contains(s, "NUMCLASS CATEGORIES"))
	is.True(strings.Contains(s, "builtin"))
	is.True(strings.Contains(s, "divisible_by[3]"))
	is.True(strings.Contains(s, "expression"))
	is.True(strings.Contains(s, "lambda x: above 100"))
}
