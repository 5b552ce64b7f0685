package back

import (
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/mrc/compiler/asm"
	"github.com/slowlang/mrc/compiler/ast"
)

type (
	// slot is a general register bound to a variable or free (loc == nil).
	// A dirty slot holds a value newer than memory.
	slot struct {
		loc   ast.Loc
		dirty bool
	}
)

// alloc binds every read operand to a register, loading it from memory
// if it isn't resident, and binds the write target without loading it.
// Operands must not be constants.
func (g *gen) alloc(w ast.Loc, rs ...ast.Value) (wr asm.Reg, rr []asm.Reg) {
	busy := rs
	if w != nil {
		busy = append(busy[:len(busy):len(busy)], w)
	}

	for _, v := range rs {
		l, ok := v.(ast.Loc)
		if !ok {
			panic(errors.New("constant operand %v in register allocation", v))
		}

		r, ok := g.find(l)
		if !ok {
			if e, ok := l.(ast.Elem); ok {
				g.writeBackArray(e.Array, l)
			}

			r = g.take(busy)
			g.load(l, r)
			g.regs[r] = slot{loc: l}
		}

		rr = append(rr, r)
	}

	if w == nil {
		return 0, rr
	}

	if e, ok := w.(ast.Elem); ok {
		g.writeBackArray(e.Array, w)
	}

	wr, ok := g.find(w)
	if !ok {
		wr = g.take(rs)
		g.regs[wr] = slot{loc: w}
	}

	g.regs[wr].dirty = true

	return wr, rr
}

func (g *gen) find(l ast.Value) (asm.Reg, bool) {
	for r, s := range g.regs {
		if s.loc != nil && ast.Value(s.loc) == l {
			return asm.Reg(r), true
		}
	}

	return 0, false
}

// take returns a free register or evicts one.
// The victim is the lowest register whose variable is not in excl.
// There is no recency tracking, the scan order keeps output reproducible.
func (g *gen) take(excl []ast.Value) asm.Reg {
	for r, s := range g.regs {
		if s.loc == nil {
			return asm.Reg(r)
		}
	}

outer:
	for r, s := range g.regs {
		for _, v := range excl {
			if ast.Value(s.loc) == v {
				continue outer
			}
		}

		g.spill(asm.Reg(r))
		g.regs[r] = slot{}

		return asm.Reg(r)
	}

	panic(errors.New("no register to evict, operands: %v", excl))
}

// spill writes a dirty register back to memory. The binding stays.
func (g *gen) spill(r asm.Reg) {
	s := &g.regs[r]

	if s.loc == nil || !s.dirty {
		return
	}

	tlog.V("regs").Printw("spill", "reg", r, "loc", s.loc, "from", loc.Caller(1))

	g.store(s.loc, r)
	s.dirty = false
}

// writeBackArray spills registers holding elements of array other than except,
// so a following load of any element of it sees memory up to date.
func (g *gen) writeBackArray(array string, except ast.Loc) {
	for r, s := range g.regs {
		if e, ok := s.loc.(ast.Elem); ok && e.Array == array && s.loc != except {
			g.spill(asm.Reg(r))
		}
	}
}

// beforeWrite is called before writing l.
// Elements indexed by a scalar being overwritten are committed to memory
// while their address is still computed from the old index.
func (g *gen) beforeWrite(l ast.Loc) {
	v, ok := l.(ast.Var)
	if !ok {
		return
	}

	for r, s := range g.regs {
		if ast.IndexedBy(s.loc, v) {
			g.spill(asm.Reg(r))
		}
	}
}

// afterWrite is called after writing l.
// Elements indexed by the changed scalar now name other cells and are reloaded.
// Other elements of a written array may alias the written one and are dropped,
// they are clean at this point.
func (g *gen) afterWrite(l ast.Loc) {
	switch l := l.(type) {
	case ast.Var:
		for r, s := range g.regs {
			if ast.IndexedBy(s.loc, l) {
				g.load(s.loc, asm.Reg(r))
			}
		}
	case ast.Elem:
		for r, s := range g.regs {
			if ast.SameArray(s.loc, l) && s.loc != ast.Loc(l) {
				g.regs[r] = slot{}
			}
		}
	}
}

// flush commits every occupied register and frees them all.
// Memory is the only state shared between blocks.
func (g *gen) flush() {
	for r, s := range g.regs {
		if s.loc == nil {
			continue
		}

		g.store(s.loc, asm.Reg(r))
	}

	g.reset()
}

func (g *gen) reset() {
	g.regs = [asm.NumGeneral]slot{}
}

func (g *gen) load(l ast.Loc, r asm.Reg) {
	a := g.addr(l)
	g.emit(asm.RR(asm.LOAD, r, a))
}

func (g *gen) store(l ast.Loc, r asm.Reg) {
	a := g.addr(l)
	g.emit(asm.RR(asm.STORE, r, a))
}

// addr puts the memory address of l into a scratch register.
// Scalars use R8. Elements use R9, with R8 holding the index if it's not resident.
func (g *gen) addr(l ast.Loc) asm.Reg {
	switch l := l.(type) {
	case ast.Var:
		return g.num(g.syms.Addr(string(l)), asm.R8)
	case ast.Elem:
		base := g.syms.Addr(l.Array)

		switch ix := l.Index.(type) {
		case ast.Num:
			return g.num(base+uint64(ix), asm.R9)
		case ast.Var:
			r, ok := g.find(ix)
			if !ok {
				g.load(ix, asm.R8)
				r = asm.R8
			}

			g.num(base, asm.R9)
			g.emit(asm.RR(asm.ADD, asm.R9, r))

			return asm.R9
		default:
			panic(errors.New("bad index of %v: %T", l.Array, l.Index))
		}
	default:
		panic(errors.New("bad location: %T", l))
	}
}
