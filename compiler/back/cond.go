package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/asm"
	"github.com/slowlang/mrc/compiler/ast"
)

// branch jumps to block when c holds and falls through otherwise.
// Relations are lowered to saturating subtraction and zero tests.
func (g *gen) branch(c ast.Cond, block int) {
	a, b := c.L, c.R

	an, aok := a.(ast.Num)
	bn, bok := b.(ast.Num)

	if aok && bok {
		if c.Rel.Holds(uint64(an), uint64(bn)) {
			g.jumpBlock(asm.Jump(0), block)
		}

		return
	}

	if a == b {
		switch c.Rel {
		case ast.Eq, ast.Leq, ast.Geq:
			g.jumpBlock(asm.Jump(0), block)
		}

		// never holds for Neq, Lt, Gt
		return
	}

	switch c.Rel {
	case ast.Eq:
		g.equal(a, b, block, false)
	case ast.Neq:
		g.equal(a, b, block, true)
	case ast.Leq:
		g.leftDiff(a, b, block, false)
	case ast.Gt:
		g.leftDiff(a, b, block, true)
	case ast.Geq:
		g.rightDiff(a, b, block, false)
	case ast.Lt:
		g.rightDiff(a, b, block, true)
	default:
		panic(errors.New("unsupported relation: %q", string(c.Rel)))
	}
}

// equal tests a - b and b - a for zero.
func (g *gen) equal(a, b ast.Value, block int, neq bool) {
	if _, ok := a.(ast.Num); ok {
		a, b = b, a
	}

	s := g.snippet()
	defer s.close()

	var ra, rb asm.Reg

	if n, ok := b.(ast.Num); ok {
		_, r := g.alloc(nil, a)
		ra = r[0]

		if n == 0 {
			if neq {
				s.jump(asm.JZERO, ra, end)
				s.jumpBlock(asm.JUMP, 0, block)
			} else {
				s.jumpBlock(asm.JZERO, ra, block)
			}

			return
		}

		rb = g.num(uint64(n), asm.R9)
		g.emit(asm.RR(asm.COPY, asm.R8, ra))
	} else {
		_, r := g.alloc(nil, a, b)
		ra, rb = r[0], r[1]

		g.emit(
			asm.RR(asm.COPY, asm.R8, ra),
			asm.RR(asm.COPY, asm.R9, rb),
		)
	}

	g.emit(asm.RR(asm.SUB, asm.R8, rb))
	s.jump(asm.JZERO, asm.R8, "check")

	if neq {
		s.jumpBlock(asm.JUMP, 0, block)
	} else {
		s.jump(asm.JUMP, 0, end)
	}

	s.mark("check")
	g.emit(asm.RR(asm.SUB, asm.R9, ra))

	if neq {
		s.jump(asm.JZERO, asm.R9, end)
		s.jumpBlock(asm.JUMP, 0, block)
	} else {
		s.jumpBlock(asm.JZERO, asm.R9, block)
	}
}

// leftDiff computes a - b in R8: zero for a <= b, nonzero for a > b.
func (g *gen) leftDiff(a, b ast.Value, block int, gt bool) {
	s := g.snippet()
	defer s.close()

	var rb asm.Reg

	if n, ok := a.(ast.Num); ok {
		_, r := g.alloc(nil, b)
		rb = r[0]

		g.num(uint64(n), asm.R8)
	} else if n, ok := b.(ast.Num); ok {
		_, r := g.alloc(nil, a)

		if n == 0 {
			// a <= 0 is a == 0
			g.zeroTest(s, r[0], block, gt)
			return
		}

		g.emit(asm.RR(asm.COPY, asm.R8, r[0]))
		rb = g.num(uint64(n), asm.R9)
	} else {
		_, r := g.alloc(nil, a, b)
		rb = r[1]

		g.emit(asm.RR(asm.COPY, asm.R8, r[0]))
	}

	g.emit(asm.RR(asm.SUB, asm.R8, rb))
	g.zeroTest(s, asm.R8, block, gt)
}

// rightDiff computes b - a in R9: zero for a >= b, nonzero for a < b.
func (g *gen) rightDiff(a, b ast.Value, block int, lt bool) {
	s := g.snippet()
	defer s.close()

	var ra asm.Reg

	if n, ok := a.(ast.Num); ok {
		_, r := g.alloc(nil, b)

		g.emit(asm.RR(asm.COPY, asm.R9, r[0]))
		ra = g.num(uint64(n), asm.R8)
	} else if n, ok := b.(ast.Num); ok {
		_, r := g.alloc(nil, a)
		ra = r[0]

		g.num(uint64(n), asm.R9)
	} else {
		_, r := g.alloc(nil, a, b)
		ra = r[0]

		g.emit(asm.RR(asm.COPY, asm.R9, r[1]))
	}

	g.emit(asm.RR(asm.SUB, asm.R9, ra))
	g.zeroTest(s, asm.R9, block, lt)
}

// zeroTest jumps to block if r is zero, or if it's nonzero when nonzero is set.
func (g *gen) zeroTest(s *snippet, r asm.Reg, block int, nonzero bool) {
	if !nonzero {
		s.jumpBlock(asm.JZERO, r, block)
		return
	}

	s.jump(asm.JZERO, r, end)
	s.jumpBlock(asm.JUMP, 0, block)
}
