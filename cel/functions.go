package cel

import (
	"math"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/numclass/numclass"
)

const (
	floorModName = "floor_mod"
	floorDivName = "floor_div"
)

// functions returns the CEL declarations for the helper functions available
// in rule bodies. The predicates are the same ones the built-in rules use.
func functions() []celgo.EnvOption {
	return []celgo.EnvOption{
		predicateFunction("is_prime", numclass.Prime),
		predicateFunction("is_even", numclass.Even),
		predicateFunction("is_odd", numclass.Odd),
		predicateFunction("is_square", numclass.Square),
		celgo.Function("abs",
			celgo.Overload("abs_int",
				[]*celgo.Type{celgo.IntType},
				celgo.IntType,
				celgo.UnaryBinding(absInt))),
		celgo.Function(floorModName,
			celgo.Overload(floorModName+"_int_int",
				[]*celgo.Type{celgo.IntType, celgo.IntType},
				celgo.IntType,
				celgo.BinaryBinding(intBinary(floorMod)))),
		celgo.Function(floorDivName,
			celgo.Overload(floorDivName+"_int_int",
				[]*celgo.Type{celgo.IntType, celgo.IntType},
				celgo.IntType,
				celgo.BinaryBinding(intBinary(floorDiv)))),
		pickFunction("min", func(a, b types.Int) bool { return a <= b }),
		pickFunction("max", func(a, b types.Int) bool { return a >= b }),
	}
}

// pickFunction declares a two-argument int function returning the first
// argument when keepFirst holds and the second otherwise.
func pickFunction(name string, keepFirst func(a, b types.Int) bool) celgo.EnvOption {
	return celgo.Function(name,
		celgo.Overload(name+"_int_int",
			[]*celgo.Type{celgo.IntType, celgo.IntType},
			celgo.IntType,
			celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				a, ok := lhs.(types.Int)
				if !ok {
					return types.MaybeNoSuchOverloadErr(lhs)
				}
				b, ok := rhs.(types.Int)
				if !ok {
					return types.MaybeNoSuchOverloadErr(rhs)
				}
				if keepFirst(a, b) {
					return a
				}
				return b
			})))
}

// predicateFunction creates a CEL declaration for a unary int -> bool function.
func predicateFunction(name string, f func(int64) bool) celgo.EnvOption {
	return celgo.Function(name,
		celgo.Overload(name+"_int",
			[]*celgo.Type{celgo.IntType},
			celgo.BoolType,
			celgo.UnaryBinding(func(v ref.Val) ref.Val {
				n, ok := v.(types.Int)
				if !ok {
					return types.MaybeNoSuchOverloadErr(v)
				}
				return types.Bool(f(int64(n)))
			})))
}

func absInt(v ref.Val) ref.Val {
	n, ok := v.(types.Int)
	if !ok {
		return types.MaybeNoSuchOverloadErr(v)
	}
	if n == math.MinInt64 {
		return types.NewErr("integer overflow")
	}
	if n < 0 {
		return -n
	}
	return n
}

func intBinary(f func(a, b int64) ref.Val) func(lhs, rhs ref.Val) ref.Val {
	return func(lhs, rhs ref.Val) ref.Val {
		a, ok := lhs.(types.Int)
		if !ok {
			return types.MaybeNoSuchOverloadErr(lhs)
		}
		b, ok := rhs.(types.Int)
		if !ok {
			return types.MaybeNoSuchOverloadErr(rhs)
		}
		return f(int64(a), int64(b))
	}
}

// floorMod returns a modulo b with the sign of b, as Python's % does.
func floorMod(a, b int64) ref.Val {
	if b == 0 {
		return types.NewErr("modulus by zero")
	}
	if b == -1 {
		return types.Int(0)
	}
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return types.Int(m)
}

// floorDiv returns a divided by b rounded toward negative infinity, as
// Python's // does.
func floorDiv(a, b int64) ref.Val {
	if b == 0 {
		return types.NewErr("division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return types.NewErr("integer overflow")
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return types.Int(q)
}
