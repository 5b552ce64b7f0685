package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mrc/compiler/asm"
	"github.com/slowlang/mrc/compiler/ast"
	"github.com/slowlang/mrc/compiler/back"
	"github.com/slowlang/mrc/compiler/cfg"
	"github.com/slowlang/mrc/compiler/front"
)

func CompileFile(ctx context.Context, name string) (code []asm.Instr, err error) {
	p, err := AnalyzeFile(ctx, name)
	if err != nil {
		return nil, err
	}

	return Generate(ctx, p)
}

// AnalyzeFile reads, parses and checks a source file.
func AnalyzeFile(ctx context.Context, name string) (p ast.Program, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return p, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Analyze(ctx, name, text)
}

func Compile(ctx context.Context, name string, text []byte) (code []asm.Instr, err error) {
	p, err := Analyze(ctx, name, text)
	if err != nil {
		return nil, err
	}

	return Generate(ctx, p)
}

// Analyze parses and checks source text.
func Analyze(ctx context.Context, name string, text []byte) (p ast.Program, err error) {
	st := front.New(name, text)

	err = st.Parse(ctx)
	if err != nil {
		return p, errors.Wrap(err, "parse")
	}

	p, err = st.Analyze(ctx)
	if err != nil {
		return p, errors.Wrap(err, "analyze")
	}

	return p, nil
}

// Blocks builds and checks the control flow graph of a program.
func Blocks(ctx context.Context, p ast.Program) ([]cfg.Block, error) {
	blocks := cfg.Convert(p.Body)

	reach, err := cfg.Check(blocks)
	if err != nil {
		return nil, errors.Wrap(err, "check cfg")
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_cfg") {
		tr.Printw("cfg", "blocks", len(blocks), "reachable", reach.Size(), "unreachable", reach.Missing(len(blocks)))
	}

	return blocks, nil
}

// Generate compiles an analyzed program to machine code.
func Generate(ctx context.Context, p ast.Program) (code []asm.Instr, err error) {
	blocks, err := Blocks(ctx, p)
	if err != nil {
		return nil, err
	}

	code, err = back.Generate(ctx, blocks, p.Symtab)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	return code, nil
}
