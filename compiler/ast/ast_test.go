package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegate(t *testing.T) {
	rels := []Rel{Eq, Neq, Lt, Gt, Leq, Geq}

	for _, r := range rels {
		n := r.Negate()

		assert.Equal(t, r, n.Negate(), "%v", r)

		for a := uint64(0); a < 4; a++ {
			for b := uint64(0); b < 4; b++ {
				assert.NotEqual(t, r.Holds(a, b), n.Holds(a, b), "%d %v %d", a, r, b)
			}
		}
	}

	assert.Panics(t, func() { Rel("<>").Negate() })
}

func TestFold(t *testing.T) {
	assert.Equal(t, Num(7), Fold(Add, 3, 4))
	assert.Equal(t, Num(0), Fold(Sub, 3, 4))
	assert.Equal(t, Num(1), Fold(Sub, 5, 4))
	assert.Equal(t, Num(12), Fold(Mul, 3, 4))
	assert.Equal(t, Num(3), Fold(Div, 13, 4))
	assert.Equal(t, Num(1), Fold(Mod, 13, 4))
	assert.Equal(t, Num(0), Fold(Div, 10, 0))
	assert.Equal(t, Num(0), Fold(Mod, 10, 0))
}

func TestCounterOf(t *testing.T) {
	assert.Equal(t, Var("#3"), CounterOf("@3"))
	assert.Equal(t, Var("#i"), CounterOf("i"))
}

func TestSymtab(t *testing.T) {
	s := Symtab{"a": 0, "t": 1}

	assert.Equal(t, uint64(1), s.Addr("t"))
	assert.Panics(t, func() { s.Addr("b") })
}

func TestArrays(t *testing.T) {
	ti := Elem{Array: "t", Index: Var("i")}
	t2 := Elem{Array: "t", Index: Num(2)}
	u2 := Elem{Array: "u", Index: Num(2)}

	assert.True(t, SameArray(ti, t2))
	assert.False(t, SameArray(t2, u2))
	assert.False(t, SameArray(Var("t"), t2))

	assert.True(t, IndexedBy(ti, "i"))
	assert.False(t, IndexedBy(t2, "i"))
	assert.False(t, IndexedBy(Var("i"), "i"))

	assert.True(t, Value(ti) == Value(Elem{Array: "t", Index: Var("i")}), "elements are comparable identities")
}

func TestValueIsExpr(t *testing.T) {
	for _, v := range []Value{Num(3), Var("a"), Elem{Array: "t", Index: Var("a")}} {
		var e Expr = v

		assert.Equal(t, v, e)
	}
}
