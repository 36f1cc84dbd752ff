package ranger

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is matched by every error Split returns.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrCountNotPositive error = argError("count must be positive")
	ErrStartAfterEnd    error = argError("start must be <= end")
)

type argError string

func (e argError) Error() string { return string(e) }

func (e argError) Is(target error) bool { return target == ErrInvalidArgument }

// Range is the inclusive interval [From, To].
type Range struct{ From, To int64 }

func (r Range) Size() int64 { return r.To - r.From + 1 }

func (r Range) String() string { return fmt.Sprintf("[%d..%d]", r.From, r.To) }

// Split partitions [start, end] into exactly count ranges, in ascending order.
//
// When count does not exceed the number of elements, range i starts at
// start + floor(i*total/count) and the ranges tile [start, end] with sizes
// differing by at most one. Otherwise every element is emitted as a singleton,
// repeated count/total times, with the first count%total elements repeated
// once more.
func Split(start, end int64, count int) ([]Range, error) {
	if count <= 0 {
		return nil, ErrCountNotPositive
	}
	if start > end {
		return nil, ErrStartAfterEnd
	}

	// total == 0 stands for 2^64, the full int64 domain.
	total := uint64(end-start) + 1
	n := uint64(count)
	out := make([]Range, 0, count)

	if total != 0 && n > total {
		base, rem := n/total, n%total
		for e := uint64(0); e < total; e++ {
			v := int64(uint64(start) + e)
			m := base
			if e < rem {
				m++
			}
			for k := uint64(0); k < m; k++ {
				out = append(out, Range{v, v})
			}
		}
		return out, nil
	}

	boundary := func(i uint64) int64 {
		hi, lo := bits.Mul64(i, total)
		if total == 0 {
			hi, lo = i, 0
		}
		off, _ := bits.Div64(hi, lo, n)
		return int64(uint64(start) + off)
	}

	from := start
	for i := uint64(1); i <= n; i++ {
		to := end
		if i < n {
			to = boundary(i) - 1
		}
		out = append(out, Range{from, to})
		from = to + 1
	}

	return out, nil
}
