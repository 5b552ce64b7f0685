package front

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mrc/compiler/ast"
)

type (
	analyzer struct {
		s *State

		decls map[string]Decl
		init  map[string]bool

		iters int
	}

	// scope maps loop iterators visible at a point to their unique names.
	scope map[string]ast.Var
)

// Analyze checks the parsed program and lowers it to ast.
// Loop iterators are renamed to @N, each having a hidden counter #N.
// Memory is laid out as scalars in declaration order, then iterators and counters,
// then arrays.
func (s *State) Analyze(ctx context.Context) (p ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: analyze", "name", s.name)
	defer tr.Finish("err", &err)

	a := &analyzer{
		s:     s,
		decls: map[string]Decl{},
		init:  map[string]bool{},
	}

	err = a.declarations()
	if err != nil {
		return p, err
	}

	p.Body, err = a.commands(ctx, s.body, scope{})
	if err != nil {
		return p, err
	}

	p.Symtab = a.symtab()

	if tr.If("dump_symtab") {
		tr.Printw("symtab", "symtab", p.Symtab)
	}

	return p, nil
}

func (a *analyzer) declarations() error {
	for _, d := range a.s.decls {
		if _, ok := a.decls[d.Name]; ok {
			return a.s.errorf(d.Pos, "double declaration of %q", d.Name)
		}

		a.decls[d.Name] = d
	}

	return nil
}

func (a *analyzer) symtab() ast.Symtab {
	s := ast.Symtab{}
	k := uint64(0)

	for _, d := range a.s.decls {
		if d.Array {
			continue
		}

		s[d.Name] = k
		k++
	}

	for j := 0; j < a.iters; j++ {
		it := iterName(j)

		s[string(it)] = k
		s[string(ast.CounterOf(it))] = k + 1
		k += 2
	}

	for _, d := range a.s.decls {
		if !d.Array {
			continue
		}

		s[d.Name] = k
		k += d.Size
	}

	return s
}

func (a *analyzer) commands(ctx context.Context, cmds []Stmt, sc scope) (res []ast.Node, err error) {
	for _, x := range cmds {
		var n ast.Node

		n, err = a.command(ctx, x, sc)
		if err != nil {
			return nil, err
		}

		res = append(res, n)
	}

	return res, nil
}

func (a *analyzer) command(ctx context.Context, x Stmt, sc scope) (ast.Node, error) {
	switch x := x.(type) {
	case Assign:
		return a.assign(x, sc)
	case If:
		return a.ifCmd(ctx, x, sc)
	case While:
		c, err := a.cond(x.Cond, sc)
		if err != nil {
			return nil, err
		}

		body, err := a.commands(ctx, x.Body, sc)
		if err != nil {
			return nil, err
		}

		return ast.While{Cond: c, Body: body}, nil
	case For:
		return a.forCmd(ctx, x, sc)
	case Get:
		l, err := a.target(x.Target, sc)
		if err != nil {
			return nil, err
		}

		return ast.Get{Target: l}, nil
	case Put:
		v, err := a.value(x.Value, sc, true)
		if err != nil {
			return nil, err
		}

		return ast.Put{Value: v}, nil
	default:
		panic(errors.New("unsupported statement: %T", x))
	}
}

func (a *analyzer) assign(x Assign, sc scope) (ast.Node, error) {
	if err := a.notIterator(x.Target, sc); err != nil {
		return nil, err
	}

	e, err := a.expr(x.Expr, sc)
	if err != nil {
		return nil, err
	}

	l, err := a.loc(x.Target, sc, false)
	if err != nil {
		return nil, err
	}

	return ast.Assign{Target: l, Expr: e}, nil
}

func (a *analyzer) ifCmd(ctx context.Context, x If, sc scope) (ast.Node, error) {
	c, err := a.cond(x.Cond, sc)
	if err != nil {
		return nil, err
	}

	then, err := a.commands(ctx, x.Then, sc)
	if err != nil {
		return nil, err
	}

	if x.Else == nil {
		return ast.IfThen{Cond: c, Body: then}, nil
	}

	els, err := a.commands(ctx, x.Else, sc)
	if err != nil {
		return nil, err
	}

	return ast.IfElse{Cond: c, Then: then, Else: els}, nil
}

func (a *analyzer) forCmd(ctx context.Context, x For, sc scope) (ast.Node, error) {
	begin, err := a.value(x.Begin, sc, true)
	if err != nil {
		return nil, err
	}

	end, err := a.value(x.End, sc, true)
	if err != nil {
		return nil, err
	}

	it := iterName(a.iters)
	a.iters++

	inner := make(scope, len(sc)+1)
	for k, v := range sc {
		inner[k] = v
	}

	inner[x.Iter.Name] = it

	tlog.SpanFromContext(ctx).V("iterators").Printw("iterator", "name", x.Iter.Name, "as", it, "line", a.s.line(x.Iter.Pos))

	body, err := a.commands(ctx, x.Body, inner)
	if err != nil {
		return nil, err
	}

	if x.Down {
		return ast.ForDown{Iter: it, Begin: begin, End: end, Body: body}, nil
	}

	return ast.ForUp{Iter: it, Begin: begin, End: end, Body: body}, nil
}

// target is a location being read from input.
func (a *analyzer) target(r Ref, sc scope) (ast.Loc, error) {
	if err := a.notIterator(r, sc); err != nil {
		return nil, err
	}

	return a.loc(r, sc, false)
}

func (a *analyzer) notIterator(r Ref, sc scope) error {
	if _, ok := sc[r.Name]; ok && !r.Array {
		return a.s.errorf(r.Pos, "assignment to loop iterator %q", r.Name)
	}

	return nil
}

func (a *analyzer) expr(e Expr, sc scope) (ast.Expr, error) {
	l, err := a.value(e.L, sc, true)
	if err != nil {
		return nil, err
	}

	if e.Op == "" {
		return l.(ast.Expr), nil
	}

	r, err := a.value(e.R, sc, true)
	if err != nil {
		return nil, err
	}

	ln, lok := l.(ast.Num)
	rn, rok := r.(ast.Num)

	if lok && rok {
		return ast.Fold(e.Op, ln, rn), nil
	}

	return ast.BinOp{Op: e.Op, L: l, R: r}, nil
}

func (a *analyzer) cond(c Cond, sc scope) (ast.Cond, error) {
	l, err := a.value(c.L, sc, true)
	if err != nil {
		return ast.Cond{}, err
	}

	r, err := a.value(c.R, sc, true)
	if err != nil {
		return ast.Cond{}, err
	}

	return ast.Cond{Rel: c.Rel, L: l, R: r}, nil
}

func (a *analyzer) value(v Operand, sc scope, read bool) (ast.Value, error) {
	switch v := v.(type) {
	case Number:
		return ast.Num(v.Value), nil
	case Ref:
		return a.loc(v, sc, read)
	default:
		panic(errors.New("unsupported operand: %T", v))
	}
}

// loc resolves a reference. Reading a scalar requires it to be written before
// in program text order. Array elements are never checked for initialization.
func (a *analyzer) loc(r Ref, sc scope, read bool) (ast.Loc, error) {
	if !r.Array {
		if it, ok := sc[r.Name]; ok {
			return it, nil
		}
	}

	d, ok := a.decls[r.Name]
	if !ok {
		return nil, a.s.errorf(r.Pos, "undeclared variable %q", r.Name)
	}

	if !r.Array {
		if d.Array {
			return nil, a.s.errorf(r.Pos, "array %q used as a scalar", r.Name)
		}

		if read && !a.init[r.Name] {
			return nil, a.s.errorf(r.Pos, "uninitialized variable %q", r.Name)
		}

		a.init[r.Name] = true

		return ast.Var(r.Name), nil
	}

	if !d.Array {
		return nil, a.s.errorf(r.Pos, "scalar %q used as an array", r.Name)
	}

	ix, err := a.value(r.Index, sc, true)
	if err != nil {
		return nil, err
	}

	if n, ok := ix.(ast.Num); ok && uint64(n) >= d.Size {
		tlog.Printw("constant index out of bounds", "array", r.Name, "index", uint64(n), "size", d.Size, "line", a.s.line(r.Pos))
	}

	return ast.Elem{Array: r.Name, Index: ix}, nil
}

func iterName(n int) ast.Var {
	return ast.Var(fmt.Sprintf("@%d", n))
}
