package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/mrc/compiler/ast"
)

var (
	x = ast.Var("x")
	y = ast.Var("y")
)

func assign(v ast.Loc, e ast.Expr) ast.Assign { return ast.Assign{Target: v, Expr: e} }

func checked(t *testing.T, body []ast.Node) []Block {
	t.Helper()

	blocks := Convert(body)

	_, err := Check(blocks)
	require.NoError(t, err)

	return blocks
}

func TestEmpty(t *testing.T) {
	blocks := checked(t, nil)

	assert.Equal(t, []Block{{Term: Halt{}}}, blocks)
}

func TestStraight(t *testing.T) {
	body := []ast.Node{
		ast.Get{Target: x},
		assign(y, ast.BinOp{Op: ast.Mul, L: x, R: ast.Num(3)}),
		ast.Put{Value: y},
	}

	blocks := checked(t, body)

	assert.Equal(t, []Block{{Code: body, Term: Halt{}}}, blocks)
}

func TestIfThen(t *testing.T) {
	blocks := checked(t, []ast.Node{
		assign(x, ast.Num(1)),
		ast.IfThen{
			Cond: ast.Cond{Rel: ast.Lt, L: x, R: y},
			Body: []ast.Node{assign(y, ast.Num(2))},
		},
		assign(x, ast.Num(3)),
	})

	assert.Equal(t, []Block{
		{Code: []Op{assign(x, ast.Num(1))}, Term: If{Cond: ast.Cond{Rel: ast.Geq, L: x, R: y}, Target: 2}},
		{Code: []Op{assign(y, ast.Num(2))}},
		{Code: []Op{assign(x, ast.Num(3))}, Term: Halt{}},
	}, blocks)
}

func TestIfElse(t *testing.T) {
	blocks := checked(t, []ast.Node{
		ast.IfElse{
			Cond: ast.Cond{Rel: ast.Eq, L: x, R: y},
			Then: []ast.Node{ast.Put{Value: ast.Num(1)}},
			Else: []ast.Node{ast.Put{Value: ast.Num(2)}},
		},
	})

	assert.Equal(t, []Block{
		{Term: If{Cond: ast.Cond{Rel: ast.Neq, L: x, R: y}, Target: 2}},
		{Code: []Op{ast.Put{Value: ast.Num(1)}}, Term: Goto{Target: 3}},
		{Code: []Op{ast.Put{Value: ast.Num(2)}}},
		{Term: Halt{}},
	}, blocks)
}

func TestWhile(t *testing.T) {
	dec := assign(x, ast.BinOp{Op: ast.Sub, L: x, R: ast.Num(1)})

	blocks := checked(t, []ast.Node{
		ast.While{
			Cond: ast.Cond{Rel: ast.Gt, L: x, R: ast.Num(0)},
			Body: []ast.Node{dec},
		},
	})

	assert.Equal(t, []Block{
		{},
		{Term: If{Cond: ast.Cond{Rel: ast.Leq, L: x, R: ast.Num(0)}, Target: 3}},
		{Code: []Op{dec}, Term: Goto{Target: 1}},
		{Term: Halt{}},
	}, blocks)
}

func TestForUp(t *testing.T) {
	it := ast.Var("@0")
	cnt := ast.Var("#0")
	s := ast.Var("s")

	body := assign(s, ast.BinOp{Op: ast.Add, L: s, R: it})

	blocks := checked(t, []ast.Node{
		ast.ForUp{Iter: it, Begin: ast.Num(1), End: ast.Num(5), Body: []ast.Node{body}},
	})

	assert.Equal(t, []Block{
		{Code: []Op{
			assign(it, ast.Num(1)),
			assign(cnt, ast.Num(6)),
			assign(cnt, ast.BinOp{Op: ast.Sub, L: cnt, R: it}),
		}},
		{Term: If{Cond: ast.Cond{Rel: ast.Eq, L: cnt, R: ast.Num(0)}, Target: 3}},
		{Code: []Op{
			body,
			assign(it, ast.BinOp{Op: ast.Add, L: it, R: ast.Num(1)}),
			assign(cnt, ast.BinOp{Op: ast.Sub, L: cnt, R: ast.Num(1)}),
		}, Term: Goto{Target: 1}},
		{Term: Halt{}},
	}, blocks)
}

func TestForDown(t *testing.T) {
	it := ast.Var("@3")
	cnt := ast.Var("#3")

	blocks := checked(t, []ast.Node{
		ast.ForDown{Iter: it, Begin: x, End: y, Body: []ast.Node{ast.Put{Value: it}}},
	})

	require.Len(t, blocks, 4)

	assert.Equal(t, []Op{
		assign(it, x),
		assign(cnt, ast.BinOp{Op: ast.Add, L: it, R: ast.Num(1)}),
		assign(cnt, ast.BinOp{Op: ast.Sub, L: cnt, R: y}),
	}, blocks[0].Code)

	assert.Equal(t, []Op{
		ast.Put{Value: it},
		assign(it, ast.BinOp{Op: ast.Sub, L: it, R: ast.Num(1)}),
		assign(cnt, ast.BinOp{Op: ast.Sub, L: cnt, R: ast.Num(1)}),
	}, blocks[2].Code)
}

func TestNested(t *testing.T) {
	inner := ast.While{
		Cond: ast.Cond{Rel: ast.Neq, L: y, R: ast.Num(0)},
		Body: []ast.Node{
			ast.IfElse{
				Cond: ast.Cond{Rel: ast.Lt, L: x, R: y},
				Then: []ast.Node{assign(x, ast.BinOp{Op: ast.Add, L: x, R: ast.Num(1)})},
				Else: []ast.Node{
					ast.IfThen{Cond: ast.Cond{Rel: ast.Eq, L: x, R: ast.Num(7)}, Body: []ast.Node{ast.Put{Value: x}}},
				},
			},
			assign(y, ast.BinOp{Op: ast.Sub, L: y, R: ast.Num(1)}),
		},
	}

	blocks := checked(t, []ast.Node{
		ast.ForUp{Iter: "@0", Begin: ast.Num(0), End: x, Body: []ast.Node{inner}},
		ast.Put{Value: y},
	})

	reach, err := Check(blocks)
	require.NoError(t, err)
	assert.Equal(t, len(blocks), reach.Size(), "all blocks reachable")

	for i, b := range blocks[:len(blocks)-1] {
		assert.NotEqual(t, Halt{}, b.Term, "block %d", i)
	}
}

func TestCheck(t *testing.T) {
	_, err := Check(nil)
	assert.Error(t, err)

	_, err = Check([]Block{{Term: Goto{Target: 0}}})
	assert.Error(t, err)

	_, err = Check([]Block{{Term: Goto{Target: 5}}, {Term: Halt{}}})
	assert.Error(t, err)

	reach, err := Check([]Block{{Term: Goto{Target: 2}}, {}, {Term: Halt{}}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, reach.Missing(3))
}

func TestTerminateTwice(t *testing.T) {
	b := builder{blocks: []Block{{Term: Halt{}}}}

	assert.Panics(t, func() { b.terminate(0, Goto{}) })
}

func TestForElemBounds(t *testing.T) {
	it := ast.Var("@1")
	cnt := ast.Var("#1")
	lo := ast.Elem{Array: "t", Index: ast.Num(0)}
	hi := ast.Elem{Array: "t", Index: x}

	blocks := checked(t, []ast.Node{
		ast.ForUp{Iter: it, Begin: lo, End: hi},
	})

	require.NotEmpty(t, blocks)

	assert.Equal(t, []Op{
		assign(it, lo),
		assign(cnt, ast.BinOp{Op: ast.Add, L: hi, R: ast.Num(1)}),
		assign(cnt, ast.BinOp{Op: ast.Sub, L: cnt, R: it}),
	}, blocks[0].Code)
}
