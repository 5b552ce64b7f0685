package front

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/mrc/compiler/ast"
)

func compile(t testing.TB, text string) (ast.Program, error) {
	t.Helper()

	ctx := context.Background()

	s := New("test.imp", []byte(text))

	err := s.Parse(ctx)
	if err != nil {
		return ast.Program{}, err
	}

	return s.Analyze(ctx)
}

func TestProgram(t *testing.T) {
	p, err := compile(t, `
DECLARE
	a b t(10) [ table ] c
IN
	GET a;
	b := a + 1;
	t(b) := 3 * 4;
	IF a >= b THEN
		PUT a;
	ELSE
		PUT t(2);
	ENDIF
	WHILE a != 0 DO
		a := a - 1;
	ENDWHILE
	FOR i FROM 1 TO b DO
		FOR j DOWN FROM i TO 0 DO
			PUT j;
		ENDFOR
		PUT t(i);
	ENDFOR
	FOR i FROM a TO 5 DO
		c := i;
	ENDFOR
END
`)
	require.NoError(t, err)

	assert.Equal(t, ast.Symtab{
		"a": 0, "b": 1, "c": 2,
		"@0": 3, "#0": 4,
		"@1": 5, "#1": 6,
		"@2": 7, "#2": 8,
		"t": 9,
	}, p.Symtab)

	a, b := ast.Var("a"), ast.Var("b")

	assert.Equal(t, []ast.Node{
		ast.Get{Target: a},
		ast.Assign{Target: b, Expr: ast.BinOp{Op: ast.Add, L: a, R: ast.Num(1)}},
		ast.Assign{Target: ast.Elem{Array: "t", Index: b}, Expr: ast.Num(12)},
		ast.IfElse{
			Cond: ast.Cond{Rel: ast.Geq, L: a, R: b},
			Then: []ast.Node{ast.Put{Value: a}},
			Else: []ast.Node{ast.Put{Value: ast.Elem{Array: "t", Index: ast.Num(2)}}},
		},
		ast.While{
			Cond: ast.Cond{Rel: ast.Neq, L: a, R: ast.Num(0)},
			Body: []ast.Node{ast.Assign{Target: a, Expr: ast.BinOp{Op: ast.Sub, L: a, R: ast.Num(1)}}},
		},
		ast.ForUp{Iter: "@0", Begin: ast.Num(1), End: b, Body: []ast.Node{
			ast.ForDown{Iter: "@1", Begin: ast.Var("@0"), End: ast.Num(0), Body: []ast.Node{
				ast.Put{Value: ast.Var("@1")},
			}},
			ast.Put{Value: ast.Elem{Array: "t", Index: ast.Var("@0")}},
		}},
		ast.ForUp{Iter: "@2", Begin: a, End: ast.Num(5), Body: []ast.Node{
			ast.Assign{Target: ast.Var("c"), Expr: ast.Var("@2")},
		}},
	}, p.Body)
}

func TestFolding(t *testing.T) {
	p, err := compile(t, `DECLARE a b c d e IN
	a := 3 - 5;
	b := 7 / 0;
	c := 7 % 0;
	d := 17 % 5;
	e := 6 * 7;
END`)
	require.NoError(t, err)

	var vals []ast.Expr
	for _, n := range p.Body {
		vals = append(vals, n.(ast.Assign).Expr)
	}

	assert.Equal(t, []ast.Expr{ast.Num(0), ast.Num(0), ast.Num(0), ast.Num(2), ast.Num(42)}, vals)
}

func TestEmptyBlocks(t *testing.T) {
	p, err := compile(t, `DECLARE a IN GET a; IF a = 1 THEN ELSE ENDIF IF a = 2 THEN ENDIF END`)
	require.NoError(t, err)

	require.Len(t, p.Body, 3)
	assert.IsType(t, ast.IfElse{}, p.Body[1])
	assert.IsType(t, ast.IfThen{}, p.Body[2])
}

func TestErrors(t *testing.T) {
	for _, tc := range []struct {
		text string
		err  string
	}{
		{"", "empty input"},
		{" \n\t ", "empty input"},
		{"DECLARE a a IN END", `line 1: double declaration of "a"`},
		{"DECLARE a IN\nb := 1;\nEND", `line 2: undeclared variable "b"`},
		{"DECLARE a b IN\n\nb := a;\nEND", `line 3: uninitialized variable "a"`},
		{"DECLARE a IN\nFOR i FROM 1 TO 2 DO\n  i := 3;\nENDFOR\nEND", `line 3: assignment to loop iterator "i"`},
		{"DECLARE a IN\nFOR i FROM 1 TO 2 DO\n  GET i;\nENDFOR\nEND", `line 3: assignment to loop iterator "i"`},
		{"DECLARE a IN\nFOR i FROM 1 TO 2 DO\nENDFOR\nPUT i;\nEND", `line 4: undeclared variable "i"`},
		{"DECLARE t(3) IN\nt := 1;\nEND", `line 2: array "t" used as a scalar`},
		{"DECLARE a IN\na(1) := 1;\nEND", `line 2: scalar "a" used as an array`},
		{"DECLARE a IN\na := 1\nEND", `line 3: unexpected END, want ";"`},
		{"DECLARE a IN\na = 1;\nEND", "line 2: unexpected"},
		{"DECLARE a IN\na := 1; # END", `line 2: unexpected symbol "#"`},
		{"DECLARE a IN\n[ open comment\na := 1;\nEND", "line 2: unexpected symbol"},
		{"DECLARE a IN a := 1; END END", "unexpected END, want end of input"},
		{"DECLARE a IN a := 1;", "unexpected end of input, want END"},
		{"DECLARE a IN a := 99999999999999999999999; END", "number out of range"},
		{"DECLARE A IN END", `unexpected symbol "A"`},
	} {
		_, err := compile(t, tc.text)
		if assert.Error(t, err, "%q", tc.text) {
			assert.Contains(t, err.Error(), tc.err, "%q", tc.text)
		}
	}
}

func TestInitializedByGet(t *testing.T) {
	_, err := compile(t, "DECLARE a t(2) IN GET a; GET t(a); PUT t(0); PUT a; END")
	assert.NoError(t, err)
}

func TestComments(t *testing.T) {
	p, err := compile(t, "[head] DECLARE [a] a IN [\nmulti\nline\n] PUT 1; END [tail]")
	require.NoError(t, err)

	assert.Equal(t, []ast.Node{ast.Put{Value: ast.Num(1)}}, p.Body)
	assert.Equal(t, ast.Symtab{"a": 0}, p.Symtab)
}
