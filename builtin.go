package numclass

import (
	"fmt"
	"math"
	"sort"
)

// Builtin is a predicate that can be referenced by name from a category's rule
// field. Parameterised built-ins take their arguments from the category's args.
type Builtin struct {
	// Name is the keyword used in the rule field.
	Name string
	// Arity is the number of args the built-in requires.
	Arity int
	// Description is shown when listing built-ins.
	Description string
	// Make binds the arguments and returns the predicate.
	Make func(args []int64) (func(int64) bool, error)
}

var builtins = map[string]Builtin{
	"prime": {
		Name:        "prime",
		Description: "n >= 2 with no divisor in [2, sqrt(n)]",
		Make:        fixed(Prime),
	},
	"even": {
		Name:        "even",
		Description: "n mod 2 == 0",
		Make:        fixed(Even),
	},
	"odd": {
		Name:        "odd",
		Description: "n mod 2 != 0",
		Make:        fixed(Odd),
	},
	"square": {
		Name:        "square",
		Description: "n is a perfect square",
		Make:        fixed(Square),
	},
	"divisible_by": {
		Name:        "divisible_by",
		Arity:       1,
		Description: "n mod k == 0 for args [k]",
		Make: func(args []int64) (func(int64) bool, error) {
			k := args[0]
			if k == 0 {
				return nil, fmt.Errorf("divisible_by: divisor must not be zero")
			}
			return func(n int64) bool { return n%k == 0 }, nil
		},
	},
}

func fixed(f func(int64) bool) func([]int64) (func(int64) bool, error) {
	return func([]int64) (func(int64) bool, error) { return f, nil }
}

// LookupBuiltin returns the built-in registered under name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// Builtins returns the registered built-ins sorted by name.
func Builtins() []Builtin {
	list := make([]Builtin, 0, len(builtins))
	for _, b := range builtins {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Prime reports whether n is a prime number. Zero, one and negative numbers
// are never prime.
func Prime(n int64) bool {
	if n < 2 {
		return false
	}
	if n < 4 {
		return true
	}
	if n%2 == 0 {
		return false
	}
	// d <= n/d avoids overflowing d*d near math.MaxInt64
	for d := int64(3); d <= n/d; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// Even reports whether n is divisible by 2.
func Even(n int64) bool { return n%2 == 0 }

// Odd reports whether n is not divisible by 2.
func Odd(n int64) bool { return n%2 != 0 }

// Square reports whether n is a perfect square.
func Square(n int64) bool {
	if n < 0 {
		return false
	}
	if n < 2 {
		return true
	}
	r := int64(math.Sqrt(float64(n)))
	for r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r*r == n
}
