package numclass

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Vault holds a hot-reloadable set of compiled categories. Readers always see
// a complete, compiled set: changes are compiled first and then swapped in
// atomically, so analyses already running keep the categories they started
// with. Readers never block; writers are serialized.
type Vault struct {
	current atomic.Pointer[CompiledCategories]
	engine  *Engine
	mu      sync.Mutex // held by writers
}

var errNoEngine = errors.New("vault requires an engine")

// CategoryMutation defines a single change to the categories in a Vault.
type CategoryMutation struct {
	// Required; the label of the category being changed or added. When
	// several categories share the label, the first one is changed.
	Label string

	// Category replaces the category with Label, or is appended if there is
	// none. If Category is nil, the category with Label is deleted.
	Category *Category
}

// NewVault compiles the categories and stores them in a new Vault.
func NewVault(engine *Engine, categories []Category) (*Vault, error) {
	if engine == nil {
		return nil, errNoEngine
	}
	v := &Vault{engine: engine}
	if err := v.Replace(categories); err != nil {
		return nil, err
	}
	return v, nil
}

// Categories returns the current compiled categories. The returned slice must
// not be modified. A Vault that was not created with NewVault has none.
func (v *Vault) Categories() CompiledCategories {
	cc := v.current.Load()
	if cc == nil {
		return nil
	}
	return *cc
}

// Replace compiles a new set of categories and swaps it in. If compilation
// fails the current categories are kept.
func (v *Vault) Replace(categories []Category) error {
	if v.engine == nil {
		return errNoEngine
	}
	compiled, err := v.engine.Compile(categories)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current.Store(&compiled)
	return nil
}

// ApplyMutations changes the categories stored in the Vault. Only the added
// and replaced categories are compiled. The mutations are applied in order
// and either all take effect or, on error, none do.
func (v *Vault) ApplyMutations(mutations []CategoryMutation) error {
	if v.engine == nil {
		return errNoEngine
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	next := slices.Clone(v.Categories())

	for _, m := range mutations {
		i := slices.IndexFunc(next, func(c *CompiledCategory) bool { return c.Label == m.Label })

		if m.Category == nil {
			if i < 0 {
				return fmt.Errorf("deleting category %s: not found", m.Label)
			}
			next = slices.Delete(next, i, i+1)
			continue
		}

		cat := *m.Category
		if cat.Label == "" {
			cat.Label = m.Label
		}
		compiled, err := v.engine.Compile([]Category{cat})
		if err != nil {
			return fmt.Errorf("upserting category %s: %w", m.Label, err)
		}
		if i < 0 {
			next = append(next, compiled[0])
		} else {
			next[i] = compiled[0]
		}
	}

	v.current.Store(&next)
	return nil
}

// Analyze runs the current categories over the range.
func (v *Vault) Analyze(ctx context.Context, r Range) (*ResultSet, error) {
	if v.engine == nil {
		return nil, errNoEngine
	}
	return v.engine.Analyze(ctx, v.Categories(), r)
}
