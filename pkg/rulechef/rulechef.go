// Package rulechef provides a public API for compiling rulechef DSL rule
// descriptions into Ghidra-style Rule subclass C++ source.
//
// Basic usage:
//
//	code, warnings, err := rulechef.Compile(`add_zero: INT_ADD(x, 0) => x`)
//	if err != nil {
//	    var diags *rulechef.Diagnostics
//	    if errors.As(err, &diags) {
//	        for _, d := range diags.Errors {
//	            fmt.Fprintln(os.Stderr, d)
//	        }
//	    }
//	}
//
// Or compile straight from a file:
//
//	code, warnings, err := rulechef.CompileFile("add_zero.rule")
package rulechef

import (
	"fmt"
	"os"

	"github.com/rulechef/rulechef/internal/emit"
	"github.com/rulechef/rulechef/internal/lexer"
	"github.com/rulechef/rulechef/internal/parser"
)

// Diagnostics aggregates every error produced while compiling one rule:
// lexical errors, parse errors, and (at most one, since emission stops
// at the first) emit error. Warnings are informational and are not part
// of the error value; they are returned separately by Compile.
type Diagnostics struct {
	Errors []error
}

func (d *Diagnostics) Error() string {
	if len(d.Errors) == 1 {
		return d.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors (first: %s)", len(d.Errors), d.Errors[0].Error())
}

// Unwrap exposes every collected error for errors.Is/errors.As.
func (d *Diagnostics) Unwrap() []error {
	return d.Errors
}

// Compile lowers one rule's DSL source text into C++ source. Warnings
// (e.g. a tautological ordering constraint) are returned alongside a
// successful result and never cause failure on their own.
func Compile(source string) (string, []string, error) {
	return compile(lexer.New(source))
}

// CompileFile reads path and compiles its contents, using path as the
// filename reported in any diagnostic positions.
func CompileFile(path string) (string, []string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return compile(lexer.NewWithFilename(string(source), path))
}

func compile(l *lexer.Lexer) (string, []string, error) {
	tokens := l.Tokenize()
	if lexErrs := l.Errors(); len(lexErrs) > 0 {
		diags := &Diagnostics{}
		for _, e := range lexErrs {
			diags.Errors = append(diags.Errors, e)
		}
		return "", nil, diags
	}

	rule, parseErrs := parser.New(tokens).ParseRule()
	if len(parseErrs) > 0 {
		diags := &Diagnostics{}
		for _, e := range parseErrs {
			diags.Errors = append(diags.Errors, e)
		}
		return "", nil, diags
	}

	code, warnings, err := emit.EmitRule(rule)
	if err != nil {
		return "", warnings, &Diagnostics{Errors: []error{err}}
	}

	return code, warnings, nil
}
