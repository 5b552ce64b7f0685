package back

import (
	"context"
	"math/bits"

	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/mrc/compiler/asm"
	"github.com/slowlang/mrc/compiler/ast"
	"github.com/slowlang/mrc/compiler/cfg"
)

type (
	// gen is the state of one compilation.
	gen struct {
		syms ast.Symtab

		code  []asm.Instr
		start []uint64 // block -> code address

		fixups fixups

		regs [asm.NumGeneral]slot
	}

	// fixup is a jump at code[pos] to the start of block.
	fixup struct {
		pos   int
		block int
	}

	fixups struct {
		heap.Heap[fixup]
	}

	// snippet is a window of code with its own labels.
	// Labels are resolved when the snippet is closed.
	snippet struct {
		g *gen

		base   uint64
		labels map[string]uint64
		refs   []localRef
	}

	localRef struct {
		pos   int
		label string
	}
)

// end is the label of the address right after a snippet.
const end = "end"

// Generate emits code for blocks in index order.
// Jumps between blocks are patched once the whole program is emitted.
func Generate(ctx context.Context, blocks []cfg.Block, syms ast.Symtab) (code []asm.Instr, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: generate", "blocks", len(blocks), "symbols", len(syms))
	defer tr.Finish("err", &err)

	defer func() {
		p := recover()
		if p == nil {
			return
		}

		e, ok := p.(error)
		if !ok {
			panic(p)
		}

		err = errors.Wrap(e, "internal fault")
	}()

	g := newGen(syms)

	for i, b := range blocks {
		g.start = append(g.start, g.pc())

		g.block(b)

		if tr.If("dump_blocks") {
			tr.Printw("block", "block", i, "start", g.start[i], "size", g.pc()-g.start[i], "term", tlog.NextAsType, b.Term)
		}
	}

	err = g.resolve()
	if err != nil {
		return nil, errors.Wrap(err, "resolve labels")
	}

	if tr.If("dump_code") {
		for i, x := range g.code {
			tr.Printw("code", "addr", i, "instr", x)
		}
	}

	return g.code, nil
}

func newGen(syms ast.Symtab) *gen {
	return &gen{
		syms:   syms,
		fixups: fixups{Heap: heap.Heap[fixup]{Less: fixupLess}},
	}
}

func (g *gen) block(b cfg.Block) {
	for _, op := range b.Code {
		switch op := op.(type) {
		case ast.Assign:
			g.assign(op)
		case ast.Get:
			g.get(op)
		case ast.Put:
			g.put(op)
		default:
			panic(errors.New("unsupported block op: %T", op))
		}
	}

	// successors must see all writes in memory
	g.flush()

	switch t := b.Term.(type) {
	case nil:
	case cfg.If:
		g.branch(t.Cond, t.Target)
	case cfg.Goto:
		g.jumpBlock(asm.Jump(0), t.Target)
	case cfg.Halt:
		g.emit(asm.Instr{Op: asm.HALT})
	default:
		panic(errors.New("unsupported terminator: %T", t))
	}

	// registers loaded for the branch condition are clean
	g.reset()
}

func (g *gen) get(x ast.Get) {
	g.beforeWrite(x.Target)

	w, _ := g.alloc(x.Target)
	g.emit(asm.R(asm.READ, w))

	g.afterWrite(x.Target)
}

func (g *gen) put(x ast.Put) {
	if n, ok := x.Value.(ast.Num); ok {
		r := g.num(uint64(n), asm.R9)
		g.emit(asm.R(asm.WRITE, r))

		return
	}

	_, r := g.alloc(nil, x.Value)
	g.emit(asm.R(asm.WRITE, r[0]))
}

func (g *gen) emit(x ...asm.Instr) {
	g.code = append(g.code, x...)
}

func (g *gen) pc() uint64 {
	return uint64(len(g.code))
}

// num synthesizes constant n in r:
// RESET, then the binary digits from the most significant one,
// the leading 1 as INC and each next digit as SHL plus INC for 1.
func (g *gen) num(n uint64, r asm.Reg) asm.Reg {
	g.emit(asm.R(asm.RESET, r))

	if n == 0 {
		return r
	}

	g.emit(asm.R(asm.INC, r))

	for i := bits.Len64(n) - 2; i >= 0; i-- {
		g.emit(asm.R(asm.SHL, r))

		if n>>i&1 == 1 {
			g.emit(asm.R(asm.INC, r))
		}
	}

	return r
}

// jumpBlock emits a jump to a block. The address is patched by resolve.
func (g *gen) jumpBlock(x asm.Instr, block int) {
	g.fixups.Push(fixup{pos: len(g.code), block: block})
	g.emit(x)
}

func (g *gen) resolve() error {
	for g.fixups.Len() != 0 {
		f := g.fixups.Pop()

		if f.block < 0 || f.block >= len(g.start) {
			return errors.New("jump at %d to unknown block %d", f.pos, f.block)
		}

		x := &g.code[f.pos]
		x.Args[x.Op.JumpArg()] = g.start[f.block]
	}

	return nil
}

func fixupLess(d []fixup, i, j int) bool {
	if d[i].block != d[j].block {
		return d[i].block < d[j].block
	}

	return d[i].pos < d[j].pos
}

func (g *gen) snippet() *snippet {
	return &snippet{
		g:      g,
		base:   g.pc(),
		labels: map[string]uint64{},
	}
}

func (s *snippet) mark(l string) {
	s.labels[l] = s.g.pc()
}

// jump emits a jump to a local label.
func (s *snippet) jump(op asm.Op, r asm.Reg, l string) {
	s.refs = append(s.refs, localRef{pos: len(s.g.code), label: l})

	if op == asm.JUMP {
		s.g.emit(asm.Jump(0))
	} else {
		s.g.emit(asm.JumpIf(op, r, 0))
	}
}

func (s *snippet) jumpBlock(op asm.Op, r asm.Reg, block int) {
	if op == asm.JUMP {
		s.g.jumpBlock(asm.Jump(0), block)
	} else {
		s.g.jumpBlock(asm.JumpIf(op, r, 0), block)
	}
}

// close resolves local labels. The end label is the next address.
func (s *snippet) close() {
	lim := s.g.pc()
	s.labels[end] = lim

	for _, ref := range s.refs {
		addr, ok := s.labels[ref.label]
		if !ok || addr < s.base || addr > lim {
			panic(errors.New("snippet at %d: bad label %q", s.base, ref.label))
		}

		x := &s.g.code[ref.pos]
		x.Args[x.Op.JumpArg()] = addr
	}
}

func (f fixup) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt(b, "pos", f.pos)
	b = e.AppendKeyInt(b, "block", f.block)

	return b
}
