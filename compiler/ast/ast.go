package ast

import (
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Node is a command.
	Node interface {
		node()
	}

	// Value is an operand: Num, Var or Elem.
	// Every Value is also an Expr.
	Value interface {
		Expr
		value()
	}

	// Loc is an assignable Value: Var or Elem.
	Loc interface {
		Value
		loc()
	}

	// Expr is a Value or a BinOp.
	Expr interface {
		expr()
	}

	Num uint64
	Var string

	// Elem is an array element reference.
	// Index is Num or Var, never another Elem.
	Elem struct {
		Array string
		Index Value
	}

	Op  string
	Rel string

	BinOp struct {
		Op   Op
		L, R Value
	}

	Cond struct {
		Rel  Rel
		L, R Value
	}

	Assign struct {
		Target Loc
		Expr   Expr
	}

	IfThen struct {
		Cond Cond
		Body []Node
	}

	IfElse struct {
		Cond Cond
		Then []Node
		Else []Node
	}

	While struct {
		Cond Cond
		Body []Node
	}

	ForUp struct {
		Iter       Var
		Begin, End Value
		Body       []Node
	}

	ForDown struct {
		Iter       Var
		Begin, End Value
		Body       []Node
	}

	Get struct {
		Target Loc
	}

	Put struct {
		Value Value
	}

	// Symtab maps scalar names to their cell and array names to element 0.
	Symtab map[string]uint64

	Program struct {
		Symtab Symtab
		Body   []Node
	}
)

const (
	Add Op = "+"
	Sub Op = "-"
	Mul Op = "*"
	Div Op = "/"
	Mod Op = "%"
)

const (
	Eq  Rel = "="
	Neq Rel = "!="
	Lt  Rel = "<"
	Gt  Rel = ">"
	Leq Rel = "<="
	Geq Rel = ">="
)

func (Num) value()  {}
func (Var) value()  {}
func (Elem) value() {}

func (Var) loc()  {}
func (Elem) loc() {}

func (Num) expr()   {}
func (Var) expr()   {}
func (Elem) expr()  {}
func (BinOp) expr() {}

func (Assign) node()  {}
func (IfThen) node()  {}
func (IfElse) node()  {}
func (While) node()   {}
func (ForUp) node()   {}
func (ForDown) node() {}
func (Get) node()     {}
func (Put) node()     {}

// Negate returns the relation that holds exactly when r doesn't.
func (r Rel) Negate() Rel {
	switch r {
	case Eq:
		return Neq
	case Neq:
		return Eq
	case Lt:
		return Geq
	case Geq:
		return Lt
	case Gt:
		return Leq
	case Leq:
		return Gt
	default:
		panic(errors.New("unknown relation: %q", string(r)))
	}
}

func (r Rel) Holds(a, b uint64) bool {
	switch r {
	case Eq:
		return a == b
	case Neq:
		return a != b
	case Lt:
		return a < b
	case Gt:
		return a > b
	case Leq:
		return a <= b
	case Geq:
		return a >= b
	default:
		panic(errors.New("unknown relation: %q", string(r)))
	}
}

// Negate negates the relation keeping operands in place.
func (c Cond) Negate() Cond {
	c.Rel = c.Rel.Negate()
	return c
}

// Fold computes a constant operation the way the machine would:
// subtraction saturates at zero, division and modulo by zero give zero.
func Fold(op Op, a, b Num) Num {
	switch op {
	case Add:
		return a + b
	case Sub:
		if b > a {
			return 0
		}

		return a - b
	case Mul:
		return a * b
	case Div:
		if b == 0 {
			return 0
		}

		return a / b
	case Mod:
		if b == 0 {
			return 0
		}

		return a % b
	default:
		panic(errors.New("unknown operation: %q", string(op)))
	}
}

// CounterOf returns the hidden iteration counter paired with a loop iterator.
// Iterators are named @N by analysis, counters are #N.
func CounterOf(iter Var) Var {
	return Var("#" + strings.TrimPrefix(string(iter), "@"))
}

// Addr returns the address of name.
// A missing name is a broken contract with the front end, so it panics.
func (s Symtab) Addr(name string) uint64 {
	a, ok := s[name]
	if !ok {
		panic(errors.New("no address for symbol %q", name))
	}

	return a
}

// SameArray reports whether x and y are elements of the same array.
func SameArray(x, y Value) bool {
	a, ok := x.(Elem)
	if !ok {
		return false
	}

	b, ok := y.(Elem)

	return ok && a.Array == b.Array
}

// IndexedBy reports whether x is an array element indexed by scalar v.
func IndexedBy(x Value, v Var) bool {
	e, ok := x.(Elem)
	return ok && e.Index == Value(v)
}

func (e Elem) TlogAppend(b []byte) []byte {
	var enc tlwire.Encoder

	switch ix := e.Index.(type) {
	case Num:
		return enc.AppendFormat(b, "%s(%d)", e.Array, uint64(ix))
	case Var:
		return enc.AppendFormat(b, "%s(%s)", e.Array, string(ix))
	default:
		return enc.AppendFormat(b, "%s(%v)", e.Array, ix)
	}
}
