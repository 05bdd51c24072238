// Package model defines the typed AST ("token") nodes that the parser
// produces and the emitter consumes: variables, sized numbers, size-of
// expressions, binary arithmetic, opcodes, opcode alternatives, and
// constraints. Nodes are immutable once constructed.
package model

// Token is the sum type every AST node implements. It mirrors the
// original RuleChef tool's TOK_* hierarchy: every node can render itself
// back into DSL-like source for documentation comments, enumerate the
// Var leaves it contains, and report its own byte size where that is
// known statically.
type Token interface {
	// ToPretty reconstructs a human-readable DSL form, with the
	// autovar_ prefix stripped from variable names.
	ToPretty() string

	// GetVariables returns every Var this node contains, depth-first,
	// with duplicates. Callers dedup on variable name.
	GetVariables() []*Var

	// GetSize reports the node's byte width. The second return value
	// is false when the size cannot be determined statically.
	GetSize() (int, bool)

	// tokenNode is an unexported marker restricting Token to the node
	// kinds declared in this package.
	tokenNode()
}
