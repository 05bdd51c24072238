package model

import "fmt"

// ConstraintOp is the comparison imposed by a Constraint.
type ConstraintOp int

const (
	ConstraintEqual ConstraintOp = iota
	ConstraintLess
	ConstraintGreater
)

func (op ConstraintOp) String() string {
	switch op {
	case ConstraintEqual:
		return "="
	case ConstraintLess:
		return "<"
	case ConstraintGreater:
		return ">"
	default:
		panic(fmt.Sprintf("model: unknown ConstraintOp %d", op))
	}
}

// Constraint is a side condition the matcher must also satisfy, beyond
// the structural match_expr. The left-hand side must be a value
// expression (never an Opcode).
type Constraint struct {
	Left  Token
	Op    ConstraintOp
	Right Token
}

func (c *Constraint) tokenNode() {}

func (c *Constraint) ToPretty() string {
	return fmt.Sprintf("%s %s %s", c.Left.ToPretty(), c.Op, c.Right.ToPretty())
}

func (c *Constraint) GetVariables() []*Var {
	vars := c.Left.GetVariables()
	vars = append(vars, c.Right.GetVariables()...)
	return vars
}

// GetSize is always unknown: a constraint is a predicate, not a value.
func (c *Constraint) GetSize() (int, bool) {
	return 0, false
}
