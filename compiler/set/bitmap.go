package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bitmap is a set of small non-negative ints.
	Bitmap struct {
		b  []uint64
		b0 [1]uint64
	}
)

func MakeBitmap(size int) Bitmap {
	s := Bitmap{}
	s.b = s.b0[:]

	if n := (size + 63) / 64; n > len(s.b) {
		s.b = make([]uint64, n)
	}

	return s
}

func (s *Bitmap) Set(i int) {
	w, j := i/64, i%64

	for w >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[w] |= 1 << j
}

func (s *Bitmap) IsSet(i int) bool {
	w, j := i/64, i%64

	if w >= len(s.b) {
		return false
	}

	return s.b[w]&(1<<j) != 0
}

func (s *Bitmap) Size() (r int) {
	for _, w := range s.b {
		r += bits.OnesCount64(w)
	}

	return r
}

func (s *Bitmap) Range(f func(i int) bool) {
	for w, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(w*64 + j) {
				return
			}
		}
	}
}

// Missing returns elements of [0, n) not in the set.
func (s *Bitmap) Missing(n int) (r []int) {
	for i := 0; i < n; i++ {
		if !s.IsSet(i) {
			r = append(r, i)
		}
	}

	return r
}

func (s Bitmap) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)

		return true
	})

	b = e.AppendBreak(b)

	return b
}
