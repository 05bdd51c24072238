package model

import "fmt"

// SizeOf evaluates, at runtime, to the byte width of a bound IR variable.
// Its own size (the size of a size) is always 8 bytes.
type SizeOf struct {
	Variable *Var
}

func (s *SizeOf) tokenNode() {}

// ToC renders the runtime expression for the referenced variable's size.
func (s *SizeOf) ToC() string {
	return fmt.Sprintf("%s->getSize()", s.Variable.ToC())
}

func (s *SizeOf) ToPretty() string {
	return fmt.Sprintf("|%s|", s.Variable.ToPretty())
}

// GetVariables yields the referenced variable itself, not SizeOf.
func (s *SizeOf) GetVariables() []*Var {
	return []*Var{s.Variable}
}

func (s *SizeOf) GetSize() (int, bool) {
	return 8, true
}
