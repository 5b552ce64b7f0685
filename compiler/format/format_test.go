package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/mrc/compiler/ast"
	"github.com/slowlang/mrc/compiler/cfg"
)

var prog = ast.Program{
	Symtab: ast.Symtab{"a": 0, "@0": 1, "#0": 2, "t": 3},
	Body: []ast.Node{
		ast.Get{Target: ast.Var("a")},
		ast.IfElse{
			Cond: ast.Cond{Rel: ast.Leq, L: ast.Var("a"), R: ast.Num(3)},
			Then: []ast.Node{ast.Put{Value: ast.Num(1)}},
			Else: []ast.Node{ast.Assign{Target: ast.Var("a"), Expr: ast.BinOp{Op: ast.Mod, L: ast.Var("a"), R: ast.Num(3)}}},
		},
		ast.ForDown{Iter: "@0", Begin: ast.Var("a"), End: ast.Num(0), Body: []ast.Node{
			ast.Assign{Target: ast.Elem{Array: "t", Index: ast.Var("@0")}, Expr: ast.Var("@0")},
		}},
	},
}

func TestFormatProgram(t *testing.T) {
	b, err := Format(context.Background(), nil, prog)
	require.NoError(t, err)

	assert.Equal(t, `[ a=0 @0=1 #0=2 t=3 ]
GET a;
IF a <= 3 THEN
	PUT 1;
ELSE
	a := a % 3;
ENDIF
FOR @0 DOWN FROM a TO 0 DO
	t(@0) := @0;
ENDFOR
`, string(b))
}

func TestFormatBlocks(t *testing.T) {
	blocks := cfg.Convert([]ast.Node{
		ast.Get{Target: ast.Var("a")},
		ast.While{Cond: ast.Cond{Rel: ast.Gt, L: ast.Var("a"), R: ast.Num(0)}, Body: []ast.Node{
			ast.Assign{Target: ast.Var("a"), Expr: ast.BinOp{Op: ast.Sub, L: ast.Var("a"), R: ast.Num(1)}},
		}},
	})

	b, err := Format(context.Background(), nil, blocks)
	require.NoError(t, err)

	assert.Equal(t, `block 0:
	GET a;
block 1:
	IF a <= 0 GOTO 3
block 2:
	a := a - 1;
	GOTO 1
block 3:
	HALT
`, string(b))
}

func TestFormatUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 5)
	assert.Error(t, err)
}
