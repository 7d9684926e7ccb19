package numclass_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/numclass/numclass"
)

func setupVault(t *testing.T) (*mockEvaluator, *numclass.Vault) {
	t.Helper()
	m := newMockEvaluator()
	v, err := numclass.NewVault(numclass.NewEngine(m), builtinCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m, v
}

func TestVault_Replace(t *testing.T) {
	is := is.New(t)
	_, v := setupVault(t)

	snapshot := v.Categories()
	is.Equal(snapshot.Labels(), []string{"prime", "even", "odd"})

	err := v.Replace([]numclass.Category{{Label: "big", Rule: "lambda x: above 2"}})
	is.NoErr(err)
	is.Equal(v.Categories().Labels(), []string{"big"})

	// earlier snapshots are unaffected
	is.Equal(snapshot.Labels(), []string{"prime", "even", "odd"})

	rs, err := v.Analyze(context.Background(), mustRange(t, 1, 4))
	is.NoErr(err)
	is.Equal(rs.Simplified(), []string{"", "", "big", "big"})
}

func TestVault_ReplaceFailureKeepsCurrent(t *testing.T) {
	is := is.New(t)
	_, v := setupVault(t)

	err := v.Replace([]numclass.Category{{Label: "bad", Rule: "lambda x: nonsense"}})
	is.True(errors.Is(err, numclass.ErrRuleCompilation))
	is.Equal(v.Categories().Labels(), []string{"prime", "even", "odd"})
}

func TestVault_ApplyMutations(t *testing.T) {
	is := is.New(t)
	m, v := setupVault(t)

	err := v.ApplyMutations([]numclass.CategoryMutation{
		{Label: "big", Category: &numclass.Category{Rule: "lambda x: above 8"}},
		{Label: "even", Category: &numclass.Category{Label: "Div3", Rule: "divisible_by", Args: []int64{3}}},
		{Label: "prime"},
	})
	is.NoErr(err)
	is.Equal(v.Categories().Labels(), []string{"Div3", "odd", "big"})

	// only the added rule reached the evaluator
	is.Equal(m.compiledRules(), []string{"lambda x: above 8"})

	rs, err := v.Analyze(context.Background(), mustRange(t, 8, 10))
	is.NoErr(err)
	is.Equal(rs.Detailed(), []string{"8: ", "9: Div3, odd, big", "10: big"})
}

func TestVault_ApplyMutationsAllOrNothing(t *testing.T) {

	cases := []struct {
		name      string
		mutations []numclass.CategoryMutation
		sentinel  error
	}{
		{
			name: "bad rule",
			mutations: []numclass.CategoryMutation{
				{Label: "odd"},
				{Label: "bad", Category: &numclass.Category{Rule: "lambda x: nonsense"}},
			},
			sentinel: numclass.ErrRuleCompilation,
		},
		{
			name: "delete missing",
			mutations: []numclass.CategoryMutation{
				{Label: "odd"},
				{Label: "missing"},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			_, v := setupVault(t)

			err := v.ApplyMutations(c.mutations)
			is.True(err != nil)
			if c.sentinel != nil {
				is.True(errors.Is(err, c.sentinel))
			}
			is.Equal(v.Categories().Labels(), []string{"prime", "even", "odd"})
		})
	}
}

func TestVault_ConcurrentAnalyze(t *testing.T) {
	is := is.New(t)
	_, v := setupVault(t)

	r := mustRange(t, 1, 200)
	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rs, err := v.Analyze(context.Background(), r)
			if err != nil {
				errs <- err
				return
			}
			// every run sees one complete set of categories
			if n := len(rs.Categories); n != 3 && n != 4 {
				errs <- errors.New("partial category set")
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = v.ApplyMutations([]numclass.CategoryMutation{
					{Label: "big", Category: &numclass.Category{Rule: "lambda x: above 100"}},
				})
			} else {
				err = v.ApplyMutations([]numclass.CategoryMutation{{Label: "big"}})
			}
			// deleting before the add has landed is expected to fail
			if err != nil && i%2 == 0 {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		is.NoErr(err)
	}
}

func TestNewVaultRequiresEngine(t *testing.T) {
	is := is.New(t)
	_, err := numclass.NewVault(nil, builtinCategories())
	is.True(err != nil)
}

func TestZeroVault(t *testing.T) {
	is := is.New(t)

	var v numclass.Vault
	is.Equal(len(v.Categories()), 0)

	_, err := v.Analyze(context.Background(), mustRange(t, 1, 2))
	is.True(err != nil)
	is.True(v.Replace(builtinCategories()) != nil)
	is.True(v.ApplyMutations([]numclass.CategoryMutation{{Label: "odd"}}) != nil)
}
