package front

import (
	"bytes"
	"fmt"

	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/ast"
)

type (
	// State holds one source file through parsing and analysis.
	State struct {
		name string
		b    []byte

		decls []Decl
		body  []Stmt
	}

	Decl struct {
		Pos   int
		Name  string
		Array bool
		Size  uint64
	}

	// Operand is Number or Ref.
	Operand interface{}

	Number struct {
		Pos   int
		Value uint64
	}

	// Ref is a scalar or an array element reference as written in the source.
	Ref struct {
		Pos   int
		Name  string
		Array bool
		Index Operand
	}

	// Expr is a single operand if Op is empty.
	Expr struct {
		Op   ast.Op
		L, R Operand
	}

	Cond struct {
		Rel  ast.Rel
		L, R Operand
	}

	Stmt interface{}

	Assign struct {
		Target Ref
		Expr   Expr
	}

	If struct {
		Cond Cond
		Then []Stmt
		Else []Stmt // nil if there is no ELSE
	}

	While struct {
		Cond Cond
		Body []Stmt
	}

	For struct {
		Iter       Ref
		Down       bool
		Begin, End Operand
		Body       []Stmt
	}

	Get struct {
		Target Ref
	}

	Put struct {
		Value Operand
	}
)

func New(name string, text []byte) *State {
	return &State{
		name: name,
		b:    text,
	}
}

func (s *State) Name() string { return s.name }

// line returns 1-based line number of the byte at pos.
func (s *State) line(pos int) int {
	if pos > len(s.b) {
		pos = len(s.b)
	}

	return 1 + bytes.Count(s.b[:pos], []byte{'\n'})
}

func (s *State) errorf(pos int, format string, args ...interface{}) error {
	return errors.New("line %d: %s", s.line(pos), fmt.Sprintf(format, args...))
}

func (s *State) atLine(err error, pos int) error {
	return errors.Wrap(err, "line %d", s.line(pos))
}
