package model

import "strings"

// Opcode is a P-code operation applied to an ordered argument list. It
// is the required root of both match_expr and (non-Var) replace_expr,
// and may also appear nested as the argument of another Opcode.
type Opcode struct {
	Name string
	Args []Token
}

func (o *Opcode) tokenNode() {}

func (o *Opcode) ToPretty() string {
	parts := make([]string, len(o.Args))
	for i, a := range o.Args {
		parts[i] = a.ToPretty()
	}
	return o.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (o *Opcode) GetVariables() []*Var {
	var vars []*Var
	for _, a := range o.Args {
		vars = append(vars, a.GetVariables()...)
	}
	return vars
}

// GetSize reports the byte width of this opcode's output varnode,
// following the fixed opcode→size table (see opcodes.go). The second
// return value is false when the opcode's output size is not determined
// by its inputs.
func (o *Opcode) GetSize() (int, bool) {
	switch OutputSizeRuleOf(o.Name) {
	case SizeRulePiece:
		if len(o.Args) != 2 {
			return 0, false
		}
		lhs, lok := o.Args[0].GetSize()
		rhs, rok := o.Args[1].GetSize()
		if !lok || !rok {
			return 0, false
		}
		return lhs + rhs, true
	case SizeRuleInput0:
		if len(o.Args) == 0 {
			return 0, false
		}
		return o.Args[0].GetSize()
	case SizeRuleBoolean:
		return 1, true
	default:
		return 0, false
	}
}

// IsCommutative reports whether this opcode's two inputs may be matched
// in either order.
func (o *Opcode) IsCommutative() bool {
	return IsCommutativeOp(o.Name)
}

// NumArgs is the arity of this opcode as written.
func (o *Opcode) NumArgs() int {
	return len(o.Args)
}

// OpcodeOr is a disjunction of ≥2 alternatives, each an Opcode or a Var.
// It may only appear on the right-hand side of an "=" Constraint.
type OpcodeOr struct {
	Elements []Token
}

func (o *OpcodeOr) tokenNode() {}

func (o *OpcodeOr) ToPretty() string {
	parts := make([]string, len(o.Elements))
	for i, e := range o.Elements {
		parts[i] = e.ToPretty()
	}
	return strings.Join(parts, " | ")
}

func (o *OpcodeOr) GetVariables() []*Var {
	var vars []*Var
	for _, e := range o.Elements {
		vars = append(vars, e.GetVariables()...)
	}
	return vars
}

func (o *OpcodeOr) GetSize() (int, bool) {
	return 0, false
}
