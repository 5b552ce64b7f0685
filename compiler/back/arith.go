package back

import (
	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/asm"
	"github.com/slowlang/mrc/compiler/ast"
)

// smallConstLimit is the largest constant added or subtracted
// with unrolled INC/DEC instead of synthesizing it into a scratch register.
const smallConstLimit = 5

func (g *gen) assign(x ast.Assign) {
	g.beforeWrite(x.Target)

	switch e := x.Expr.(type) {
	case ast.Num:
		w, _ := g.alloc(x.Target)
		g.num(uint64(e), w)
	case ast.Var:
		g.copy(x.Target, e)
	case ast.Elem:
		g.copy(x.Target, e)
	case ast.BinOp:
		g.operation(x.Target, e)
	default:
		panic(errors.New("unsupported expression: %T", e))
	}

	g.afterWrite(x.Target)
}

func (g *gen) copy(a ast.Loc, b ast.Value) {
	w, r := g.alloc(a, b)

	g.mov(w, r[0])
}

func (g *gen) mov(dst, src asm.Reg) {
	if dst != src {
		g.emit(asm.RR(asm.COPY, dst, src))
	}
}

func (g *gen) operation(a ast.Loc, x ast.BinOp) {
	bn, bok := x.L.(ast.Num)
	cn, cok := x.R.(ast.Num)

	if bok && cok {
		w, _ := g.alloc(a)
		g.num(uint64(ast.Fold(x.Op, bn, cn)), w)

		return
	}

	switch x.Op {
	case ast.Add:
		g.add(a, x.L, x.R)
	case ast.Sub:
		g.sub(a, x.L, x.R)
	case ast.Mul:
		g.mul(a, x.L, x.R)
	case ast.Div:
		g.div(a, x.L, x.R)
	case ast.Mod:
		g.mod(a, x.L, x.R)
	default:
		panic(errors.New("unsupported operation: %q", string(x.Op)))
	}
}

// a := b + c
func (g *gen) add(a ast.Loc, b, c ast.Value) {
	if _, ok := b.(ast.Num); ok || ast.Value(a) == c {
		b, c = c, b
	}

	if n, ok := c.(ast.Num); ok {
		w, r := g.alloc(a, b)
		g.mov(w, r[0])
		g.step(w, uint64(n), asm.INC, asm.ADD)

		return
	}

	w, r := g.alloc(a, b, c)
	g.mov(w, r[0])

	if r[0] == r[1] {
		// b + b
		g.emit(asm.R(asm.SHL, w))
	} else {
		g.emit(asm.RR(asm.ADD, w, r[1]))
	}
}

// a := b - c
func (g *gen) sub(a ast.Loc, b, c ast.Value) {
	if n, ok := c.(ast.Num); ok {
		w, r := g.alloc(a, b)
		g.mov(w, r[0])
		g.step(w, uint64(n), asm.DEC, asm.SUB)

		return
	}

	if n, ok := b.(ast.Num); ok {
		w, r := g.alloc(a, c)
		rc := r[0]

		if w == rc {
			g.emit(asm.RR(asm.COPY, asm.R9, rc))
			rc = asm.R9
		}

		g.num(uint64(n), w)
		g.emit(asm.RR(asm.SUB, w, rc))

		return
	}

	w, r := g.alloc(a, b, c)
	rb, rc := r[0], r[1]

	if rb == rc {
		// b - b
		g.emit(asm.R(asm.RESET, w))
		return
	}

	if w == rc {
		g.emit(asm.RR(asm.COPY, asm.R9, rc))
		rc = asm.R9
	}

	g.mov(w, rb)
	g.emit(asm.RR(asm.SUB, w, rc))
}

// step adds or subtracts constant n.
// Up to smallConstLimit it's unrolled INC or DEC, otherwise n is built in R9.
func (g *gen) step(w asm.Reg, n uint64, unit, op asm.Op) {
	if n <= smallConstLimit {
		for i := uint64(0); i < n; i++ {
			g.emit(asm.R(unit, w))
		}

		return
	}

	g.num(n, asm.R9)
	g.emit(asm.RR(op, w, asm.R9))
}

// a := b * c
func (g *gen) mul(a ast.Loc, b, c ast.Value) {
	if _, ok := b.(ast.Num); ok {
		b, c = c, b
	}

	var w asm.Reg

	if n, ok := c.(ast.Num); ok {
		var r []asm.Reg
		w, r = g.alloc(a, b)

		g.num(uint64(n), asm.R9)
		g.emit(asm.RR(asm.COPY, asm.R8, r[0]))
	} else {
		var r []asm.Reg
		w, r = g.alloc(a, b, c)

		g.emit(
			asm.RR(asm.COPY, asm.R9, r[1]),
			asm.RR(asm.COPY, asm.R8, r[0]),
		)
	}

	g.mulLoop(asm.R8, asm.R9, w)
}

// a := b / c
func (g *gen) div(a ast.Loc, b, c ast.Value) {
	var w asm.Reg

	if n, ok := b.(ast.Num); ok {
		var r []asm.Reg
		w, r = g.alloc(a, c)

		g.num(uint64(n), asm.R6)
		g.emit(asm.RR(asm.COPY, asm.R7, r[0]))
	} else if n, ok := c.(ast.Num); ok {
		var r []asm.Reg
		w, r = g.alloc(a, b)

		g.num(uint64(n), asm.R7)
		g.emit(asm.RR(asm.COPY, asm.R6, r[0]))
	} else {
		var r []asm.Reg
		w, r = g.alloc(a, b, c)

		g.emit(
			asm.RR(asm.COPY, asm.R6, r[0]),
			asm.RR(asm.COPY, asm.R7, r[1]),
		)
	}

	g.divLoop(asm.R6, asm.R7, asm.R8, w, asm.R9)
}

// a := b % c
func (g *gen) mod(a ast.Loc, b, c ast.Value) {
	var w asm.Reg

	if n, ok := b.(ast.Num); ok {
		var r []asm.Reg
		w, r = g.alloc(a, c)

		g.emit(asm.RR(asm.COPY, asm.R6, r[0]))
		g.num(uint64(n), w)
	} else if n, ok := c.(ast.Num); ok {
		var r []asm.Reg
		w, r = g.alloc(a, b)

		g.mov(w, r[0])
		g.num(uint64(n), asm.R6)
	} else {
		var r []asm.Reg
		w, r = g.alloc(a, b, c)

		g.emit(asm.RR(asm.COPY, asm.R6, r[1]))
		g.mov(w, r[0])
	}

	g.divLoop(w, asm.R6, asm.R7, asm.R8, asm.R9)
}

// mulLoop computes c = a * b by shift and add. a and b are destroyed.
func (g *gen) mulLoop(a, b, c asm.Reg) {
	s := g.snippet()

	g.emit(asm.R(asm.RESET, c))

	s.mark("loop")
	s.jump(asm.JZERO, a, end)
	s.jump(asm.JODD, a, "add")
	s.jump(asm.JUMP, 0, "shift")

	s.mark("add")
	g.emit(asm.RR(asm.ADD, c, b))

	s.mark("shift")
	g.emit(
		asm.R(asm.SHR, a),
		asm.R(asm.SHL, b),
	)
	s.jump(asm.JUMP, 0, "loop")

	s.close()
}

// divLoop divides rem by div, leaving the quotient in quo and the remainder in rem.
// div is kept, tmp and acc are destroyed.
// Zero divisor gives zero quotient and zero remainder.
//
// acc is doubled from div until it exceeds rem, then halved back
// shifting a quotient bit in on each step and subtracting when it fits.
func (g *gen) divLoop(rem, div, tmp, quo, acc asm.Reg) {
	s := g.snippet()

	s.jump(asm.JZERO, div, "zero")

	g.emit(asm.RR(asm.COPY, acc, div))

	s.mark("double")
	g.emit(
		asm.RR(asm.COPY, quo, acc),
		asm.RR(asm.SUB, quo, rem),
	)
	s.jump(asm.JZERO, quo, "shl")
	s.jump(asm.JUMP, 0, "divide")

	s.mark("shl")
	g.emit(asm.R(asm.SHL, acc))
	s.jump(asm.JUMP, 0, "double")

	s.mark("divide")
	g.emit(asm.R(asm.RESET, quo))

	s.mark("bit")
	g.emit(
		asm.RR(asm.COPY, tmp, acc),
		asm.RR(asm.SUB, tmp, rem),
	)
	s.jump(asm.JZERO, tmp, "one")
	g.emit(
		asm.R(asm.SHL, quo),
		asm.R(asm.SHR, acc),
	)
	s.jump(asm.JUMP, 0, "check")

	s.mark("one")
	g.emit(
		asm.R(asm.SHL, quo),
		asm.R(asm.INC, quo),
		asm.RR(asm.SUB, rem, acc),
		asm.R(asm.SHR, acc),
	)

	s.mark("check")
	g.emit(
		asm.RR(asm.COPY, tmp, div),
		asm.RR(asm.SUB, tmp, acc),
	)
	s.jump(asm.JZERO, tmp, "bit")
	s.jump(asm.JUMP, 0, end)

	s.mark("zero")
	g.emit(
		asm.R(asm.RESET, rem),
		asm.R(asm.RESET, quo),
	)

	s.close()
}
