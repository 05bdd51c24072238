// Demo: compiling a handful of rulechef DSL rules to Ghidra Rule C++.
//
// Run from the repo root:
//
//	go run demo/main.go
package main

import (
	"fmt"
	"os"

	"github.com/rulechef/rulechef/pkg/rulechef"
)

var sampleRules = []string{
	"add_zero_is_zero_check: INT_EQUAL(x, 0) => INT_EQUAL(x, 0)",
	"fold_shift: INT_RIGHT(INT_RIGHT(x, a), b) => INT_RIGHT(x, INT_ADD(a, b))",
	"narrow_constant: INT_AND(x, y) :- { y = 255:1 } => INT_AND(x, y)",
	"commutative_swap: INT_ADD(x, y) => INT_SUB(x, y)",
}

func main() {
	for _, src := range sampleRules {
		fmt.Println("Compiling:", src)
		fmt.Println()

		code, warnings, err := rulechef.Compile(src)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error compiling rule: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(code)
		fmt.Println("────────────────────────────────────────")
	}
}
