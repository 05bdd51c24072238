package emit

import (
	"fmt"
	"strings"

	"github.com/rulechef/rulechef/internal/model"
)

// toCheckC is phase A of two-phase constraint emission (spec.md
// §4.3.2): for a plain comparison it emits the whole check and returns
// the indent level unchanged; for an OpcodeOr right-hand side it opens
// an indexed helper closure and returns an incremented indent level,
// signaling the caller that a matching toCheckCEnd is owed.
func (e *Emitter) toCheckC(c *model.Constraint, indent int) (string, int, error) {
	if or, ok := c.Right.(*model.OpcodeOr); ok {
		return e.toCheckCOpcodeOr(c, or, indent)
	}

	equalSides := tokensEqual(c.Left, c.Right)

	switch c.Op {
	case model.ConstraintEqual:
		if equalSides {
			return "", indent, nil
		}
		return e.toCheckCEqual(c, indent)

	case model.ConstraintLess:
		if equalSides {
			e.warnf("less-than constraint between two equal sides in %s", c.ToPretty())
			return fmt.Sprintf("%sreturn 0;\n", strings.Repeat(" ", indent)), indent, nil
		}
		code, err := e.toCheckCOrdering(c, "<", emitCheckLess, emitCheckConstantLess, indent)
		return code, indent, err

	case model.ConstraintGreater:
		if equalSides {
			e.warnf("greater-than constraint between two equal sides in %s", c.ToPretty())
			return fmt.Sprintf("%sreturn 0;\n", strings.Repeat(" ", indent)), indent, nil
		}
		code, err := e.toCheckCOrdering(c, ">", emitCheckGreater, emitCheckConstantGreater, indent)
		return code, indent, err

	default:
		return "", indent, &Error{Kind: KindInternalConsistency, Message: fmt.Sprintf("unknown constraint operator %v", c.Op)}
	}
}

func (e *Emitter) toCheckCEqual(c *model.Constraint, indent int) (string, int, error) {
	if rhsOp, ok := c.Right.(*model.Opcode); ok {
		leftVar, ok := c.Left.(*model.Var)
		if !ok {
			return "", indent, &Error{Kind: KindUnsupportedConstruct, Message: "left-hand side of an opcode equality constraint must be a bound variable"}
		}
		code, err := e.emitCheckOpcode(leftVar, rhsOp, indent)
		return code, indent, err
	}

	if _, ok := c.Right.(*model.Var); ok {
		return "", indent, &Error{Kind: KindUnsupportedConstruct, Message: "comparing two variables for equality is not supported - use as few variables as possible"}
	}

	code, err := e.emitCheckConstantEqual(model.ValueToC(c.Left), c.Right, indent)
	return code, indent, err
}

// toCheckCOrdering handles the "<" and ">" cases, which share the same
// shape: a bound Var on the right requires the emitted comparison
// against a runtime offset (no masking, since nothing declares a
// narrower size for the already-materialized right-hand value); a
// Number/BinOp right side requires the masked constant comparison.
func (e *Emitter) toCheckCOrdering(
	c *model.Constraint,
	op string,
	plainCheck func(a, b string, indent int) string,
	constCheck func(a string, val model.Token, indent int) (string, error),
	indent int,
) (string, error) {
	if rhsVar, ok := c.Right.(*model.Var); ok {
		if _, bound := e.bound[rhsVar.ToC()]; !bound {
			return "", &Error{Kind: KindUnsupportedConstruct, Message: "cannot create a new variable binding inside a constraint"}
		}
		out := emitCheckIsConstant(rhsVar.ToC(), indent)
		out += plainCheck(model.ValueToC(c.Left), fmt.Sprintf("%s->getOffset()", rhsVar.ToC()), indent)
		return out, nil
	}

	switch c.Right.(type) {
	case *model.Number, *model.BinOp:
		return constCheck(model.ValueToC(c.Left), c.Right, indent)
	default:
		return "", &Error{Kind: KindUnsupportedConstruct, Message: fmt.Sprintf("unsupported right-hand side %T for %q constraint", c.Right, op)}
	}
}

func (e *Emitter) toCheckCOpcodeOr(c *model.Constraint, or *model.OpcodeOr, indent int) (string, int, error) {
	if c.Op != model.ConstraintEqual {
		return "", indent, &Error{Kind: KindUnsupportedConstruct, Message: "only equality constraints are supported for an opcode alternative (|) right-hand side"}
	}
	if len(or.Elements) < 2 {
		return "", indent, &Error{Kind: KindInternalConsistency, Message: "opcode alternative must have at least two elements"}
	}
	for _, el := range or.Elements {
		if _, isVar := el.(*model.Var); isVar {
			return "", indent, &Error{Kind: KindUnsupportedConstruct, Message: "comparing a variable for equality inside an opcode alternative is not supported - use as few variables as possible"}
		}
	}

	leftVar, ok := c.Left.(*model.Var)
	if !ok {
		return "", indent, &Error{Kind: KindUnsupportedConstruct, Message: "left-hand side of an opcode-alternative constraint must be a bound variable"}
	}

	orFuncName, err := e.names.fresh("or_func")
	if err != nil {
		return "", indent, err
	}
	optionName, err := e.names.fresh("option_id")
	if err != nil {
		return "", indent, err
	}

	ind := strings.Repeat(" ", indent)
	var out strings.Builder

	out.WriteString("\n")
	fmt.Fprintf(&out, "%sauto %s = [&](int4 %s) -> int4 {\n", ind, orFuncName, optionName)
	fmt.Fprintf(&out, "%s  if (%s == 0) {\n", ind, optionName)

	first, err := e.checkOpcodeOrElement(leftVar, or.Elements[0], indent+4)
	if err != nil {
		return "", indent, err
	}
	out.WriteString(first)

	for i := 1; i < len(or.Elements)-1; i++ {
		fmt.Fprintf(&out, "%s  } else if (%s == %d) {\n", ind, optionName, i)
		mid, err := e.checkOpcodeOrElement(leftVar, or.Elements[i], indent+4)
		if err != nil {
			return "", indent, err
		}
		out.WriteString(mid)
	}

	fmt.Fprintf(&out, "%s  } else {\n", ind)
	last, err := e.checkOpcodeOrElement(leftVar, or.Elements[len(or.Elements)-1], indent+4)
	if err != nil {
		return "", indent, err
	}
	out.WriteString(last)
	fmt.Fprintf(&out, "%s  }\n\n", ind)

	e.orFuncNames[c] = orFuncName

	return out.String(), indent + 2, nil
}

func (e *Emitter) checkOpcodeOrElement(v *model.Var, el model.Token, indent int) (string, error) {
	op, ok := el.(*model.Opcode)
	if !ok {
		return "", &Error{Kind: KindInternalConsistency, Message: fmt.Sprintf("opcode-alternative element must be an opcode, got %T", el)}
	}
	return e.emitCheckOpcode(v, op, indent)
}

// toCheckCEnd is phase B of two-phase constraint emission: it closes
// the helper opened by toCheckC for an OpcodeOr constraint, looping
// over every alternative index and failing only if none matched.
func (e *Emitter) toCheckCEnd(c *model.Constraint, indent int) (string, error) {
	or, ok := c.Right.(*model.OpcodeOr)
	if !ok {
		return "", &Error{Kind: KindInternalConsistency, Message: "toCheckCEnd called on a constraint with no pending opcode alternative"}
	}

	funcName, ok := e.orFuncNames[c]
	if !ok {
		return "", &Error{Kind: KindInternalConsistency, Message: "no pending opcode-alternative closer for this constraint"}
	}
	delete(e.orFuncNames, c)

	itVar, err := e.names.fresh("i")
	if err != nil {
		return "", err
	}

	ind := strings.Repeat(" ", indent)
	n := len(or.Elements)

	var out strings.Builder
	fmt.Fprintf(&out, "%s  return 1;\n", ind)
	fmt.Fprintf(&out, "%s};\n", ind)
	out.WriteString("\n")
	fmt.Fprintf(&out, "%sint4 %s;\n", ind, itVar)
	fmt.Fprintf(&out, "%sfor (%s = 0; %s < %d; %s++) {;\n", ind, itVar, itVar, n, itVar)
	fmt.Fprintf(&out, "%s  if (%s(%s) != 0)\n", ind, funcName, itVar)
	fmt.Fprintf(&out, "%s    break;\n", ind)
	fmt.Fprintf(&out, "%s}\n", ind)
	out.WriteString("\n")
	fmt.Fprintf(&out, "%sif (%s == %d)\n", ind, itVar, n)
	fmt.Fprintf(&out, "%s  return 0;\n", ind)

	return out.String(), nil
}

// tokensEqual reports whether two value-position tokens are
// syntactically identical, used to detect tautological constraints.
func tokensEqual(a, b model.Token) bool {
	av, aok := a.(*model.Var)
	bv, bok := b.(*model.Var)
	if aok && bok {
		return av.Equal(bv)
	}
	if aok != bok {
		return false
	}
	return a.ToPretty() == b.ToPretty()
}
