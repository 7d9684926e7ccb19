package cel

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestTranslateExpr(t *testing.T) {

	cases := []struct {
		src     string
		want    string
		notIn   []int32
		wantErr string
	}{
		{src: "x % 5 == 0", want: "x % 5 == 0"},
		{src: "x > 1 and x < 5", want: "x > 1 && x < 5"},
		{src: "x < 1 or x > 5", want: "x < 1 || x > 5"},
		{src: "not x % 2 == 0", want: "!( x % 2 == 0)"},
		{src: "x > 1 and not x > 5", want: "x > 1 && !( x > 5)"},
		{src: "not x > 5 or x == 7", want: "!( x > 5 )|| x == 7"},
		{src: "is_prime(not x)", want: "is_prime(!( x))"},
		{src: "True or False", want: "true || false"},
		{src: "x // 2 == 3", want: "x / 2 == 3"},
		{src: "x / 2 == 3", wantErr: "true division"},
		{src: "x not in [1, 2]", want: "x in [1, 2]", notIn: []int32{2}},
		{src: "x not  in [1] and x not in [2]", want: "x in [1] && x in [2]", notIn: []int32{2, 14}},
		{src: "not x in [1, 2]", want: "!( x in [1, 2])"},
		{src: "x not inside", want: "x !( inside)"},
		{src: "'and' == 'or'", want: "'and' == 'or'"},
		{src: "android > 0", want: "android > 0"},
		{src: "x ** 2", wantErr: "exponentiation"},
		{src: "x is None", wantErr: "None"},
		{src: "'abc", wantErr: "unterminated"},
	}

	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			is := is.New(t)
			got, err := translateExpr(c.src)
			if c.wantErr != "" {
				is.True(err != nil)
				is.True(strings.Contains(err.Error(), c.wantErr))
				return
			}
			is.NoErr(err)
			is.Equal(got.src, c.want)
			is.Equal(got.notIn, c.notIn)
		})
	}
}

func TestStripComment(t *testing.T) {
	is := is.New(t)
	is.Equal(stripComment("return x # even"), "return x ")
	is.Equal(stripComment("return '#' == '#'"), "return '#' == '#'")
	is.Equal(stripComment("# only a comment"), "")
}

func TestTopLevelColon(t *testing.T) {
	is := is.New(t)
	is.Equal(topLevelColon(" x > 1: return True"), 6)
	is.Equal(topLevelColon(" {1: 2}[x]: pass"), 10)
	is.Equal(topLevelColon(" x > 1"), -1)
}
