package model

import "strings"

// autoVarPrefix is prepended to every user-written variable name so the
// emitted code can never collide with a target-language keyword or the
// emitter's own fresh names.
const autoVarPrefix = "autovar_"

// Var is a symbolic variable. Its first occurrence in a match expression
// binds it to an IR value; every later occurrence constrains that value
// to equal the binding. Equality is by name.
type Var struct {
	// Name is the internal name, already carrying the autovar_ prefix.
	Name string
}

// NewVar builds a Var from a user-written (unprefixed) identifier.
func NewVar(userName string) *Var {
	return &Var{Name: autoVarPrefix + userName}
}

func (v *Var) tokenNode() {}

// ToC renders the variable's internal (prefixed) name, which is also the
// name used for the corresponding local in emitted C++.
func (v *Var) ToC() string {
	return v.Name
}

func (v *Var) ToPretty() string {
	return strings.TrimPrefix(v.Name, autoVarPrefix)
}

func (v *Var) GetVariables() []*Var {
	return []*Var{v}
}

// GetSize is always unknown for a bare variable: whether it denotes a
// number (size 8) or a varnode (size known only via SizeOf at runtime)
// isn't decided until it's bound in a match expression.
func (v *Var) GetSize() (int, bool) {
	return 0, false
}

// Equal reports whether two variables refer to the same binding.
func (v *Var) Equal(other *Var) bool {
	return other != nil && v.Name == other.Name
}
