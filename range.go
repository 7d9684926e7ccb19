package numclass

import (
	"math"
	"strconv"
	"strings"
)

// Range is an inclusive span of integers to analyze. The zero value is the
// single number 0. Use NewRange or ParseRange to build a validated range.
type Range struct {
	Start int64
	End   int64
}

// NewRange returns the range [start, end]. It fails with an InvalidRangeError
// if start is greater than end.
func NewRange(start, end int64) (Range, error) {
	if start > end {
		return Range{}, &InvalidRangeError{
			Start:  strconv.FormatInt(start, 10),
			End:    strconv.FormatInt(end, 10),
			Reason: "start must be smaller than end",
		}
	}
	return Range{Start: start, End: end}, nil
}

// ParseRange parses the bounds as base-10 integers and returns the range they
// describe.
func ParseRange(start, end string) (Range, error) {
	s, serr := strconv.ParseInt(strings.TrimSpace(start), 10, 64)
	e, eerr := strconv.ParseInt(strings.TrimSpace(end), 10, 64)
	if serr != nil || eerr != nil {
		return Range{}, &InvalidRangeError{
			Start:  start,
			End:    end,
			Reason: "start and end must be integers",
		}
	}
	return NewRange(s, e)
}

// Len is the number of integers in the range. The full int64 domain does not
// fit in a uint64 and reports math.MaxUint64.
func (r Range) Len() uint64 {
	d := uint64(r.End) - uint64(r.Start)
	if d == math.MaxUint64 {
		return d
	}
	return d + 1
}

// Contains reports whether n lies in the range.
func (r Range) Contains(n int64) bool {
	return n >= r.Start && n <= r.End
}

func (r Range) String() string {
	return "[" + strconv.FormatInt(r.Start, 10) + ", " + strconv.FormatInt(r.End, 10) + "]"
}

func (r Range) valid() bool {
	return r.Start <= r.End
}
