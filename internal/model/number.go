package model

import "fmt"

// Number is an integer literal together with its declared byte width.
// When the declared size is not 8, the value is masked to that many
// bytes before any comparison in emitted code.
type Number struct {
	// Value is the parsed integer value.
	Value int64
	// Repr is the literal as written in the source (e.g. "0xff" or
	// "-12"), preserved so emitted C++ reads the same way the rule did.
	Repr string

	// Exactly one of SizeLiteral or SizeExpr is set; the default size
	// of 8 is stored as SizeLiteral (see NewNumber).
	SizeLiteral *int
	SizeExpr    *SizeOf
}

// NewNumber builds a Number with the default size of 8 bytes.
func NewNumber(value int64, repr string) *Number {
	eight := 8
	return &Number{Value: value, Repr: repr, SizeLiteral: &eight}
}

// NewSizedNumber builds a Number whose size is an explicit literal.
func NewSizedNumber(value int64, repr string, size int) *Number {
	return &Number{Value: value, Repr: repr, SizeLiteral: &size}
}

// NewSizeOfSizedNumber builds a Number whose size is determined at
// runtime by the width of a bound variable.
func NewSizeOfSizedNumber(value int64, repr string, size *SizeOf) *Number {
	return &Number{Value: value, Repr: repr, SizeExpr: size}
}

func (n *Number) tokenNode() {}

// ToC renders the literal exactly as written; masking (when the
// declared size is not 8) is applied by the emitter, not here.
func (n *Number) ToC() string {
	return n.Repr
}

// SizeToC renders the declared size as a C++ expression.
func (n *Number) SizeToC() string {
	if n.SizeLiteral != nil {
		return fmt.Sprintf("%d", *n.SizeLiteral)
	}
	return n.SizeExpr.Variable.ToC()
}

func (n *Number) ToPretty() string {
	switch {
	case n.SizeLiteral != nil && *n.SizeLiteral == 8:
		return n.Repr
	case n.SizeLiteral != nil:
		return fmt.Sprintf("%s:%d", n.Repr, *n.SizeLiteral)
	default:
		return fmt.Sprintf("%s:%s", n.Repr, n.SizeExpr.ToPretty())
	}
}

func (n *Number) GetVariables() []*Var {
	if n.SizeExpr != nil {
		return n.SizeExpr.GetVariables()
	}
	return nil
}

// GetSize returns the declared size when it's a literal; when the size
// is governed by a SizeOf expression, the width is only known at
// runtime, so the second return value is false.
func (n *Number) GetSize() (int, bool) {
	if n.SizeLiteral != nil {
		return *n.SizeLiteral, true
	}
	return 0, false
}
