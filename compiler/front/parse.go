package front

import (
	"bytes"
	"context"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mrc/compiler/ast"
)

func (s *State) Parse(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: parse", "name", s.name, "size", len(s.b))
	defer tr.Finish("err", &err)

	if len(bytes.TrimSpace(s.b)) == 0 {
		return errors.New("empty input")
	}

	i, err := s.parseProgram(ctx, 0)
	if err != nil {
		return s.atLine(err, i)
	}

	tr.V("parse").Printw("parsed", "decls", len(s.decls), "commands", len(s.body))

	return nil
}

func (s *State) parseProgram(ctx context.Context, st int) (i int, err error) {
	i, err = s.expect(ctx, st, Keyword("DECLARE"))
	if err != nil {
		return
	}

	s.decls, i, err = s.parseDecls(ctx, i)
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("IN"))
	if err != nil {
		return
	}

	s.body, i, err = s.parseCommands(ctx, i, Keyword("END"))
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("END"))
	if err != nil {
		return
	}

	tk, tst, _ := s.next(ctx, i)
	if tk != nil {
		return tst, NewUnexpected(tk, nil)
	}

	return i, nil
}

func (s *State) parseDecls(ctx context.Context, st int) (ds []Decl, i int, err error) {
	i = st

	for {
		tk, tst, e := s.next(ctx, i)

		name, ok := tk.(Ident)
		if !ok {
			return ds, tst, nil
		}

		d := Decl{Pos: tst, Name: string(name)}
		i = e

		tk, _, e = s.next(ctx, i)
		if tk == Char('(') {
			var n Number

			n, i, err = s.parseNumber(ctx, e)
			if err != nil {
				return
			}

			i, err = s.expect(ctx, i, Char(')'))
			if err != nil {
				return
			}

			d.Array = true
			d.Size = n.Value
		}

		ds = append(ds, d)
	}
}

// parseCommands parses commands up to one of stop keywords which is not consumed.
func (s *State) parseCommands(ctx context.Context, st int, stop ...Keyword) (cmds []Stmt, i int, err error) {
	i = st

	for {
		tk, tst, _ := s.next(ctx, i)

		if kw, ok := tk.(Keyword); ok {
			for _, w := range stop {
				if kw == w {
					return cmds, tst, nil
				}
			}
		}

		if tk == nil {
			want := make([]Token, len(stop))
			for j, w := range stop {
				want[j] = w
			}

			return nil, tst, NewUnexpected(tk, want...)
		}

		var x Stmt
		x, i, err = s.parseCommand(ctx, i)
		if err != nil {
			return
		}

		cmds = append(cmds, x)
	}
}

func (s *State) parseCommand(ctx context.Context, st int) (x Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	switch tk := tk.(type) {
	case Ident:
		return s.parseAssign(ctx, st)
	case Keyword:
		switch tk {
		case "IF":
			return s.parseIf(ctx, i)
		case "WHILE":
			return s.parseWhile(ctx, i)
		case "FOR":
			return s.parseFor(ctx, i)
		case "GET":
			return s.parseGet(ctx, i)
		case "PUT":
			return s.parsePut(ctx, i)
		}
	}

	return nil, tst, NewUnexpected(tk, Ident(""), Keyword("IF"), Keyword("WHILE"), Keyword("FOR"), Keyword("GET"), Keyword("PUT"))
}

func (s *State) parseAssign(ctx context.Context, st int) (x Stmt, i int, err error) {
	r, i, err := s.parseRef(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, Punct(":="))
	if err != nil {
		return nil, i, err
	}

	e, i, err := s.parseExpr(ctx, i)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, Char(';'))
	if err != nil {
		return nil, i, err
	}

	tlog.SpanFromContext(ctx).V("parse").Printw("assign", "target", r.Name, "op", e.Op)

	return Assign{Target: r, Expr: e}, i, nil
}

func (s *State) parseIf(ctx context.Context, st int) (x Stmt, i int, err error) {
	var y If

	y.Cond, i, err = s.parseCond(ctx, st)
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("THEN"))
	if err != nil {
		return
	}

	y.Then, i, err = s.parseCommands(ctx, i, Keyword("ELSE"), Keyword("ENDIF"))
	if err != nil {
		return
	}

	tk, _, e := s.next(ctx, i)
	if tk == Keyword("ELSE") {
		y.Else, i, err = s.parseCommands(ctx, e, Keyword("ENDIF"))
		if err != nil {
			return
		}

		if y.Else == nil {
			y.Else = []Stmt{}
		}
	}

	i, err = s.expect(ctx, i, Keyword("ENDIF"))
	if err != nil {
		return
	}

	return y, i, nil
}

func (s *State) parseWhile(ctx context.Context, st int) (x Stmt, i int, err error) {
	var y While

	y.Cond, i, err = s.parseCond(ctx, st)
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("DO"))
	if err != nil {
		return
	}

	y.Body, i, err = s.parseCommands(ctx, i, Keyword("ENDWHILE"))
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("ENDWHILE"))
	if err != nil {
		return
	}

	return y, i, nil
}

func (s *State) parseFor(ctx context.Context, st int) (x Stmt, i int, err error) {
	var y For

	tk, tst, i := s.next(ctx, st)

	name, ok := tk.(Ident)
	if !ok {
		return nil, tst, NewUnexpected(tk, Ident(""))
	}

	y.Iter = Ref{Pos: tst, Name: string(name)}

	tk, _, e := s.next(ctx, i)
	if tk == Keyword("DOWN") {
		y.Down = true
		i = e
	}

	i, err = s.expect(ctx, i, Keyword("FROM"))
	if err != nil {
		return
	}

	y.Begin, i, err = s.parseValue(ctx, i)
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("TO"))
	if err != nil {
		return
	}

	y.End, i, err = s.parseValue(ctx, i)
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("DO"))
	if err != nil {
		return
	}

	y.Body, i, err = s.parseCommands(ctx, i, Keyword("ENDFOR"))
	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Keyword("ENDFOR"))
	if err != nil {
		return
	}

	return y, i, nil
}

func (s *State) parseGet(ctx context.Context, st int) (x Stmt, i int, err error) {
	r, i, err := s.parseRef(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, Char(';'))
	if err != nil {
		return nil, i, err
	}

	return Get{Target: r}, i, nil
}

func (s *State) parsePut(ctx context.Context, st int) (x Stmt, i int, err error) {
	v, i, err := s.parseValue(ctx, st)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, Char(';'))
	if err != nil {
		return nil, i, err
	}

	return Put{Value: v}, i, nil
}

func (s *State) parseExpr(ctx context.Context, st int) (x Expr, i int, err error) {
	x.L, i, err = s.parseValue(ctx, st)
	if err != nil {
		return
	}

	tk, _, e := s.next(ctx, i)

	switch tk {
	case Char('+'), Char('-'), Char('*'), Char('/'), Char('%'):
		x.Op = ast.Op([]byte{byte(tk.(Char))})
	default:
		return x, i, nil
	}

	x.R, i, err = s.parseValue(ctx, e)
	if err != nil {
		return
	}

	return x, i, nil
}

func (s *State) parseCond(ctx context.Context, st int) (c Cond, i int, err error) {
	c.L, i, err = s.parseValue(ctx, st)
	if err != nil {
		return
	}

	tk, tst, e := s.next(ctx, i)

	switch tk := tk.(type) {
	case Char:
		switch tk {
		case '=', '<', '>':
			c.Rel = ast.Rel([]byte{byte(tk)})
		}
	case Punct:
		switch tk {
		case "!=", "<=", ">=":
			c.Rel = ast.Rel(tk)
		}
	}

	if c.Rel == "" {
		return c, tst, NewUnexpected(tk, Char('='), Punct("!="), Char('<'), Char('>'), Punct("<="), Punct(">="))
	}

	c.R, i, err = s.parseValue(ctx, e)
	if err != nil {
		return
	}

	return c, i, nil
}

func (s *State) parseValue(ctx context.Context, st int) (x Operand, i int, err error) {
	tk, tst, _ := s.next(ctx, st)

	switch tk.(type) {
	case Digits:
		return s.parseNumber(ctx, st)
	case Ident:
		return s.parseRef(ctx, st)
	default:
		return nil, tst, NewUnexpected(tk, Digits(""), Ident(""))
	}
}

func (s *State) parseRef(ctx context.Context, st int) (r Ref, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	name, ok := tk.(Ident)
	if !ok {
		return r, tst, NewUnexpected(tk, Ident(""))
	}

	r = Ref{Pos: tst, Name: string(name)}

	tk, _, e := s.next(ctx, i)
	if tk != Char('(') {
		return r, i, nil
	}

	r.Array = true

	tk, tst, _ = s.next(ctx, e)

	switch tk.(type) {
	case Digits:
		r.Index, i, err = s.parseNumber(ctx, e)
	case Ident:
		tk, tst, i = s.next(ctx, e)
		r.Index = Ref{Pos: tst, Name: string(tk.(Ident))}
	default:
		return r, tst, NewUnexpected(tk, Digits(""), Ident(""))
	}

	if err != nil {
		return
	}

	i, err = s.expect(ctx, i, Char(')'))
	if err != nil {
		return
	}

	return r, i, nil
}

func (s *State) parseNumber(ctx context.Context, st int) (n Number, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	d, ok := tk.(Digits)
	if !ok {
		return n, tst, NewUnexpected(tk, Digits(""))
	}

	v, err := strconv.ParseUint(string(d), 10, 64)
	if err != nil {
		return n, tst, errors.New("number out of range: %s", string(d))
	}

	return Number{Pos: tst, Value: v}, i, nil
}

func (s *State) expect(ctx context.Context, st int, want Token) (i int, err error) {
	tk, tst, i := s.next(ctx, st)
	if tk != want {
		return tst, NewUnexpected(tk, want)
	}

	return i, nil
}
