package format

import (
	"context"
	"sort"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/ast"
	"github.com/slowlang/mrc/compiler/cfg"
)

// Format appends source-like text of ast.Program, []ast.Node, ast.Symtab or []cfg.Block.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case ast.Program:
		return formatProgram(ctx, b, x, d)
	case ast.Symtab:
		return formatSymtab(ctx, b, x, d), nil
	case []ast.Node:
		return formatCommands(ctx, b, x, d)
	case []cfg.Block:
		return formatBlocks(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatProgram(ctx context.Context, b []byte, x ast.Program, d int) (_ []byte, err error) {
	b = formatSymtab(ctx, b, x.Symtab, d)

	b, err = formatCommands(ctx, b, x.Body, d)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	return b, nil
}

func formatSymtab(ctx context.Context, b []byte, x ast.Symtab, d int) []byte {
	names := make([]string, 0, len(x))
	for n := range x {
		names = append(names, n)
	}

	sort.Slice(names, func(i, j int) bool {
		if x[names[i]] != x[names[j]] {
			return x[names[i]] < x[names[j]]
		}

		return names[i] < names[j]
	})

	b = app(b, d, "[")

	for _, n := range names {
		b = hfmt.Appendf(b, " %s=%d", n, x[n])
	}

	return append(b, " ]\n"...)
}

func formatCommands(ctx context.Context, b []byte, x []ast.Node, d int) (_ []byte, err error) {
	for _, s := range x {
		switch s := s.(type) {
		case ast.Assign, ast.Get, ast.Put:
			b, err = formatOp(ctx, b, s, d)
			if err != nil {
				return nil, err
			}
		case ast.IfThen:
			b = app(b, d, "IF %s THEN\n", cond(s.Cond))

			b, err = formatCommands(ctx, b, s.Body, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "then")
			}

			b = app(b, d, "ENDIF\n")
		case ast.IfElse:
			b = app(b, d, "IF %s THEN\n", cond(s.Cond))

			b, err = formatCommands(ctx, b, s.Then, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "then")
			}

			b = app(b, d, "ELSE\n")

			b, err = formatCommands(ctx, b, s.Else, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "else")
			}

			b = app(b, d, "ENDIF\n")
		case ast.While:
			b = app(b, d, "WHILE %s DO\n", cond(s.Cond))

			b, err = formatCommands(ctx, b, s.Body, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "while")
			}

			b = app(b, d, "ENDWHILE\n")
		case ast.ForUp:
			b = app(b, d, "FOR %s FROM %s TO %s DO\n", s.Iter, value(s.Begin), value(s.End))

			b, err = formatCommands(ctx, b, s.Body, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "for")
			}

			b = app(b, d, "ENDFOR\n")
		case ast.ForDown:
			b = app(b, d, "FOR %s DOWN FROM %s TO %s DO\n", s.Iter, value(s.Begin), value(s.End))

			b, err = formatCommands(ctx, b, s.Body, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "for")
			}

			b = app(b, d, "ENDFOR\n")
		default:
			return nil, errors.New("unsupported command: %T", s)
		}
	}

	return b, nil
}

func formatBlocks(ctx context.Context, b []byte, x []cfg.Block, d int) (_ []byte, err error) {
	for i, blk := range x {
		b = app(b, d, "block %d:\n", i)

		for _, op := range blk.Code {
			b, err = formatOp(ctx, b, op, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "block %d", i)
			}
		}

		switch t := blk.Term.(type) {
		case nil:
		case cfg.If:
			b = app(b, d+1, "IF %s GOTO %d\n", cond(t.Cond), t.Target)
		case cfg.Goto:
			b = app(b, d+1, "GOTO %d\n", t.Target)
		case cfg.Halt:
			b = app(b, d+1, "HALT\n")
		default:
			return nil, errors.New("block %d: unsupported terminator: %T", i, t)
		}
	}

	return b, nil
}

func formatOp(ctx context.Context, b []byte, x ast.Node, d int) ([]byte, error) {
	switch x := x.(type) {
	case ast.Assign:
		b = app(b, d, "%s := %s;\n", value(x.Target), expr(x.Expr))
	case ast.Get:
		b = app(b, d, "GET %s;\n", value(x.Target))
	case ast.Put:
		b = app(b, d, "PUT %s;\n", value(x.Value))
	default:
		return nil, errors.New("unsupported op: %T", x)
	}

	return b, nil
}

func expr(x ast.Expr) string {
	switch x := x.(type) {
	case ast.BinOp:
		return value(x.L) + " " + string(x.Op) + " " + value(x.R)
	case ast.Value:
		return value(x)
	default:
		return "?"
	}
}

func cond(x ast.Cond) string {
	return value(x.L) + " " + string(x.Rel) + " " + value(x.R)
}

func value(x ast.Value) string {
	switch x := x.(type) {
	case ast.Num:
		return string(hfmt.Appendf(nil, "%d", uint64(x)))
	case ast.Var:
		return string(x)
	case ast.Elem:
		return x.Array + "(" + value(x.Index) + ")"
	default:
		return "?"
	}
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, '\t')
	}

	b = hfmt.Appendf(b, f, args...)

	return b
}
