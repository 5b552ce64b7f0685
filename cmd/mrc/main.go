package main

import (
	"context"
	"os"

	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mrc/compiler"
	"github.com/slowlang/mrc/compiler/asm"
	"github.com/slowlang/mrc/compiler/format"
)

func main() {
	cli.RunAndExit(newApp(), os.Args, os.Environ())
}

func newApp() *cli.Command {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print analyzed program",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	cfgCmd := &cli.Command{
		Name:        "cfg",
		Description: "print basic blocks",
		Action:      cfgAct,
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source file to machine code",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("out,o", env.Str("MRC_OUT", "a.mr"), "output file"),
		},
	}

	app := &cli.Command{
		Name:        "mrc",
		Description: "mrc compiles imperative programs for the minimal register machine",
		Flags: []*cli.Flag{
			cli.NewFlag("verbose,v", "", "tlog verbosity topics"),
		},
		Commands: []*cli.Command{
			parseCmd,
			cfgCmd,
			compileCmd,
		},
	}

	return app
}

func setup(c *cli.Command) context.Context {
	tlog.SetVerbosity(c.String("verbose"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func parseAct(c *cli.Command) (err error) {
	ctx := setup(c)

	for _, a := range c.Args {
		p, err := compiler.AnalyzeFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "analyze %v", a)
		}

		b, err := format.Format(ctx, nil, p)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func cfgAct(c *cli.Command) (err error) {
	ctx := setup(c)

	for _, a := range c.Args {
		p, err := compiler.AnalyzeFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "analyze %v", a)
		}

		blocks, err := compiler.Blocks(ctx, p)
		if err != nil {
			return errors.Wrap(err, "cfg %v", a)
		}

		b, err := format.Format(ctx, nil, blocks)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := setup(c)

	if len(c.Args) != 1 {
		return errors.New("one source file expected, got %d", len(c.Args))
	}

	name := c.Args[0]
	out := c.String("out")

	code, err := compiler.CompileFile(ctx, name)
	if err != nil {
		return errors.Wrap(err, "compile %v", name)
	}

	err = os.WriteFile(out, asm.AppendText(nil, code), 0o644)
	if err != nil {
		return errors.Wrap(err, "write output")
	}

	tlog.Printw("compiled", "src", name, "out", out, "instructions", len(code))

	return nil
}
