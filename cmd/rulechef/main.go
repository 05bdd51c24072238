package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/rulechef/rulechef/pkg/rulechef"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func main() {
	app := &cli.Command{
		Name:      "rulechef",
		Usage:     "compile a rulechef DSL rule description into Ghidra Rule C++ source",
		ArgsUsage: "<infile> [<outfile>]",
		Action:    run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		fmt.Fprintln(os.Stderr, "usage: rulechef <infile> [<outfile>]")
		return cli.Exit("missing <infile>", 1)
	}

	infile := cmd.Args().Get(0)
	outfile := cmd.Args().Get(1)

	code, warnings, err := rulechef.CompileFile(infile)
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, colorize(ansiYellow, "warning: "+w))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, colorize(ansiRed, err.Error()))
		return cli.Exit(err, 1)
	}

	if outfile == "" {
		_, err = fmt.Fprint(os.Stdout, code)
		return err
	}

	return os.WriteFile(outfile, []byte(code), 0o644)
}

// colorize wraps msg in ANSI color codes only when stderr is a terminal,
// so piped/redirected output stays plain.
func colorize(code, msg string) string {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return msg
	}
	return code + msg + ansiReset
}
