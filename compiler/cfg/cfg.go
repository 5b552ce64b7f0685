package cfg

import (
	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/ast"
)

type (
	// Op is a straight-line operation: ast.Assign, ast.Get or ast.Put.
	Op = ast.Node

	// Term ends a block: If, Goto or Halt. Nil falls through to the next block.
	Term interface {
		term()
	}

	// If jumps to Target when Cond holds.
	If struct {
		Cond   ast.Cond
		Target int
	}

	Goto struct {
		Target int
	}

	Halt struct{}

	Block struct {
		Code []Op
		Term Term
	}

	builder struct {
		blocks []Block
	}
)

func (If) term()   {}
func (Goto) term() {}
func (Halt) term() {}

// Convert linearizes a checked program body into basic blocks.
// Block 0 is the entry, the last block halts.
func Convert(body []ast.Node) []Block {
	var b builder

	b.commands(body)
	b.terminate(len(b.blocks)-1, Halt{})

	return b.blocks
}

func (b *builder) open() int {
	b.blocks = append(b.blocks, Block{})

	return len(b.blocks) - 1
}

func (b *builder) last() int {
	return len(b.blocks) - 1
}

func (b *builder) add(ops ...Op) {
	l := &b.blocks[b.last()]
	l.Code = append(l.Code, ops...)
}

func (b *builder) terminate(i int, t Term) {
	if b.blocks[i].Term != nil {
		panic(errors.New("block %d terminated twice: %T then %T", i, b.blocks[i].Term, t))
	}

	b.blocks[i].Term = t
}

func (b *builder) commands(body []ast.Node) {
	b.open()

	for _, x := range body {
		b.command(x)
	}
}

func (b *builder) command(x ast.Node) {
	switch x := x.(type) {
	case ast.Assign, ast.Get, ast.Put:
		b.add(x)
	case ast.IfThen:
		b.ifThen(x)
	case ast.IfElse:
		b.ifElse(x)
	case ast.While:
		b.while(x)
	case ast.ForUp:
		b.forLoop(x.Iter, x.Begin, x.End, x.Body, true)
	case ast.ForDown:
		b.forLoop(x.Iter, x.Begin, x.End, x.Body, false)
	default:
		panic(errors.New("unsupported command: %T", x))
	}
}

// The branch skips the guarded code, so it carries the negated condition.

func (b *builder) ifThen(x ast.IfThen) {
	head := b.last()

	b.commands(x.Body)
	after := b.open()

	b.terminate(head, If{Cond: x.Cond.Negate(), Target: after})
}

func (b *builder) ifElse(x ast.IfElse) {
	head := b.last()

	b.commands(x.Then)
	thenEnd := b.last()

	b.commands(x.Else)
	after := b.open()

	b.terminate(head, If{Cond: x.Cond.Negate(), Target: thenEnd + 1})
	b.terminate(thenEnd, Goto{Target: after})
}

func (b *builder) while(x ast.While) {
	head := b.open()

	b.commands(x.Body)
	b.terminate(b.last(), Goto{Target: head})

	exit := b.open()

	b.terminate(head, If{Cond: x.Cond.Negate(), Target: exit})
}

// forLoop computes the iteration count once, before the loop,
// so the head only tests the hidden counter for zero.
func (b *builder) forLoop(iter ast.Var, begin, end ast.Value, body []ast.Node, up bool) {
	counter := ast.CounterOf(iter)

	b.add(ast.Assign{Target: iter, Expr: begin})

	if up {
		// counter = (end + 1) - begin
		var top ast.Expr = ast.BinOp{Op: ast.Add, L: end, R: ast.Num(1)}
		if n, ok := end.(ast.Num); ok {
			top = n + 1
		}

		b.add(
			ast.Assign{Target: counter, Expr: top},
			ast.Assign{Target: counter, Expr: ast.BinOp{Op: ast.Sub, L: counter, R: iter}},
		)
	} else {
		// counter = (begin + 1) - end
		b.add(
			ast.Assign{Target: counter, Expr: ast.BinOp{Op: ast.Add, L: iter, R: ast.Num(1)}},
			ast.Assign{Target: counter, Expr: ast.BinOp{Op: ast.Sub, L: counter, R: end}},
		)
	}

	step := ast.Sub
	if up {
		step = ast.Add
	}

	head := b.open()

	b.commands(body)
	b.add(
		ast.Assign{Target: iter, Expr: ast.BinOp{Op: step, L: iter, R: ast.Num(1)}},
		ast.Assign{Target: counter, Expr: ast.BinOp{Op: ast.Sub, L: counter, R: ast.Num(1)}},
	)
	b.terminate(b.last(), Goto{Target: head})

	exit := b.open()

	b.terminate(head, If{
		Cond:   ast.Cond{Rel: ast.Eq, L: counter, R: ast.Num(0)},
		Target: exit,
	})
}
