package numclass_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/matryer/is"

	"github.com/numclass/numclass"
)

func TestPrime(t *testing.T) {

	cases := []struct {
		n    int64
		want bool
	}{
		{math.MinInt64, false},
		{-7, false},
		{-2, false},
		{0, false},
		{1, false},
		{2, true},
		{3, true},
		{4, false},
		{9, false},
		{25, false},
		{97, true},
		{7919, true},
		{7921, false}, // 89 * 89
		{2147483647, true},
		{math.MaxInt64, false},
	}

	for _, c := range cases {
		if got := numclass.Prime(c.n); got != c.want {
			t.Errorf("Prime(%d) = %t, want %t", c.n, got, c.want)
		}
	}
}

func TestPrimeMatchesReference(t *testing.T) {

	// sieve of Eratosthenes up to limit
	const limit = 20000
	composite := make([]bool, limit+1)
	for i := 2; i*i <= limit; i++ {
		if !composite[i] {
			for j := i * i; j <= limit; j += i {
				composite[j] = true
			}
		}
	}

	for n := int64(-100); n <= limit; n++ {
		sieve := n >= 2 && !composite[n]
		if got := numclass.Prime(n); got != sieve {
			t.Fatalf("Prime(%d) = %t, sieve says %t", n, got, sieve)
		}
	}

	// big.Int.ProbablyPrime is exact below 2^64
	for _, base := range []int64{1 << 31, 1e12, 1e15} {
		for n := base; n < base+200; n++ {
			want := big.NewInt(n).ProbablyPrime(0)
			if got := numclass.Prime(n); got != want {
				t.Fatalf("Prime(%d) = %t, math/big says %t", n, got, want)
			}
		}
	}
}

func TestEvenOdd(t *testing.T) {
	is := is.New(t)

	for _, n := range []int64{math.MinInt64, -3, -2, -1, 0, 1, 2, 3, math.MaxInt64} {
		is.True(numclass.Even(n) != numclass.Odd(n))
	}
	is.True(numclass.Even(0))
	is.True(numclass.Even(-4))
	is.True(numclass.Odd(-1))
	is.True(numclass.Odd(math.MaxInt64))
	is.True(numclass.Even(math.MinInt64))
}

func TestSquare(t *testing.T) {

	cases := []struct {
		n    int64
		want bool
	}{
		{-4, false},
		{0, true},
		{1, true},
		{2, false},
		{16, true},
		{17, false},
		{3037000499 * 3037000499, true}, // largest square in int64
		{3037000499*3037000499 - 1, false},
		{math.MaxInt64, false},
	}

	for _, c := range cases {
		if got := numclass.Square(c.n); got != c.want {
			t.Errorf("Square(%d) = %t, want %t", c.n, got, c.want)
		}
	}
}

func TestBuiltins(t *testing.T) {
	is := is.New(t)

	var names []string
	for _, b := range numclass.Builtins() {
		names = append(names, b.Name)
		is.True(b.Description != "")
	}
	is.Equal(names, []string{"divisible_by", "even", "odd", "prime", "square"})

	b, ok := numclass.LookupBuiltin("divisible_by")
	is.True(ok)
	is.Equal(b.Arity, 1)

	f, err := b.Make([]int64{-3})
	is.NoErr(err)
	is.True(f(9))
	is.True(f(-6))
	is.True(!f(10))

	_, err = b.Make([]int64{0})
	is.True(err != nil)

	_, ok = numclass.LookupBuiltin("lambda")
	is.True(!ok)
}
