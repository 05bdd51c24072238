package emit

import (
	"fmt"
	"strings"

	"github.com/rulechef/rulechef/internal/model"
)

func emitCheck(left, op, right string, indent int) string {
	return fmt.Sprintf("%sif (%s %s %s) return 0;\n", strings.Repeat(" ", indent), left, op, right)
}

func emitCheckEquality(a, b string, indent int) string    { return emitCheck(a, "!=", b, indent) }
func emitCheckGreater(a, b string, indent int) string     { return emitCheck(a, "<=", b, indent) }
func emitCheckGreaterEqual(a, b string, indent int) string { return emitCheck(a, "<", b, indent) }
func emitCheckLess(a, b string, indent int) string        { return emitCheck(a, ">=", b, indent) }
func emitCheckLessEqual(a, b string, indent int) string   { return emitCheck(a, ">", b, indent) }

// emitCheckIsConstant requires a varnode to hold a compile-time
// constant, with balanced parentheses (spec.md §9 item 3 fixes the
// original's unbalanced-paren bug).
func emitCheckIsConstant(varnodeName string, indent int) string {
	return fmt.Sprintf("%sif (! %s->isConstant()) return 0;\n", strings.Repeat(" ", indent), varnodeName)
}

// constSizeInfo reports the C++ expression for a constant token's
// declared byte width, and whether that width is statically known to
// be exactly 8 (the unmasked fast path).
func constSizeInfo(t model.Token) (string, bool, error) {
	switch v := t.(type) {
	case *model.Number:
		size, known := v.GetSize()
		return v.SizeToC(), known && size == 8, nil
	case *model.BinOp:
		return "8", true, nil
	default:
		return "", false, &Error{Kind: KindInternalConsistency, Message: fmt.Sprintf("%T is not a constant-valued token", t)}
	}
}

// emitCheckConstant fails the match unless a varnode is constant, and
// also fails it when the varnode's offset compared with op against
// constVal holds: op is the failure condition. When the declared size
// is not statically 8, constVal is masked to that many bytes first.
func emitCheckConstant(varnodeName, op string, constVal model.Token, indent int) (string, error) {
	sizeExpr, isEight, err := constSizeInfo(constVal)
	if err != nil {
		return "", err
	}
	ind := strings.Repeat(" ", indent)
	valueC := model.ValueToC(constVal)

	if isEight {
		return fmt.Sprintf("%sif ((! %s->isConstant()) || (%s->getOffset() %s %s)) return 0;\n",
			ind, varnodeName, varnodeName, op, valueC), nil
	}

	return fmt.Sprintf(
		"%suintb masked_const = %s & ((((uintb) 1) << (8 * %s)) - 1);\n"+
			"%sif ((! %s->isConstant()) || (%s->getOffset() %s masked_const)) return 0;\n",
		ind, valueC, sizeExpr, ind, varnodeName, varnodeName, op,
	), nil
}

func (e *Emitter) emitCheckConstantEqual(varnodeName string, constVal model.Token, indent int) (string, error) {
	sizeExpr, isEight, err := constSizeInfo(constVal)
	if err != nil {
		return "", err
	}
	ind := strings.Repeat(" ", indent)
	valueC := model.ValueToC(constVal)

	if isEight {
		return fmt.Sprintf("%sif (! %s->constantMatch(%s)) return 0;\n", ind, varnodeName, valueC), nil
	}

	return fmt.Sprintf(
		"%suintb masked_const = %s & ((((uintb) 1) << (8 * %s)) - 1);\n"+
			"%sif (! %s->constantMatch(masked_const)) return 0;\n",
		ind, valueC, sizeExpr, ind, varnodeName,
	), nil
}

func emitCheckConstantNotEqual(varnodeName string, constVal model.Token, indent int) (string, error) {
	return emitCheckConstant(varnodeName, "==", constVal, indent)
}
func emitCheckConstantGreater(varnodeName string, constVal model.Token, indent int) (string, error) {
	return emitCheckConstant(varnodeName, "<=", constVal, indent)
}
func emitCheckConstantGreaterEqual(varnodeName string, constVal model.Token, indent int) (string, error) {
	return emitCheckConstant(varnodeName, "<", constVal, indent)
}
func emitCheckConstantLess(varnodeName string, constVal model.Token, indent int) (string, error) {
	return emitCheckConstant(varnodeName, ">=", constVal, indent)
}
func emitCheckConstantLessEqual(varnodeName string, constVal model.Token, indent int) (string, error) {
	return emitCheckConstant(varnodeName, ">", constVal, indent)
}

// emitDeclareVar predeclares a replacement variable's C++ local so a
// later bind site (possibly inside a commutative helper closure) only
// needs to assign, not redeclare.
func (e *Emitter) emitDeclareVar(v *model.Var) string {
	e.declared[v.ToC()] = struct{}{}
	return fmt.Sprintf("  Varnode* %s;\n", v.ToC())
}

// emitCreateVarnode assigns varSource to varName, declaring it with a
// type prefix only the first time this name is used.
func (e *Emitter) emitCreateVarnode(varName, varSource string, indent int) string {
	typePrefix := "Varnode* "
	if _, ok := e.declared[varName]; ok {
		typePrefix = ""
	}
	return fmt.Sprintf("%s%s%s = %s;\n", strings.Repeat(" ", indent), typePrefix, varName, varSource)
}

func emitCreateVar(v *model.Var, parentOpName string, inputNumber int) string {
	return fmt.Sprintf("  data.opSetInput(%s, %s, %d);\n", parentOpName, v.ToC(), inputNumber)
}

// emitCreateConst materializes a constant varnode of the declared size
// and wires it as input inputNumber of parentOpName. The original
// tool's stray unary-minus typo (spec.md §9 item 4) hardcoded "op" here
// regardless of the true parent; this always uses parentOpName.
func (e *Emitter) emitCreateConst(constant model.Token, parentOpName string, inputNumber int) (string, error) {
	sizeExpr, _, err := constSizeInfo(constant)
	if err != nil {
		return "", err
	}

	constVarName, err := e.names.fresh("out_const")
	if err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "  Varnode* %s = data.newConstant(%s, %s);\n", constVarName, sizeExpr, model.ValueToC(constant))
	fmt.Fprintf(&out, "  data.opSetInput(%s, %s, %d);\n", parentOpName, constVarName, inputNumber)
	return out.String(), nil
}

// emitCreateOpcode allocates a new IR op implementing opcode, inserts
// it before parentOpName, and wires its output as parentOpName's input
// inputNum, recursing into opcode's own arguments.
func (e *Emitter) emitCreateOpcode(opcode *model.Opcode, parentOpName string, inputNum int) (string, error) {
	newOpName, err := e.names.fresh("out_op")
	if err != nil {
		return "", err
	}
	newOutVarName, err := e.names.fresh("out_varnode")
	if err != nil {
		return "", err
	}

	var sizeExpr string
	var input0Var *model.Var
	if len(opcode.Args) > 0 {
		input0Var, _ = opcode.Args[0].(*model.Var)
	}
	if size, known := opcode.GetSize(); known {
		sizeExpr = fmt.Sprintf("%d", size)
	} else if v := input0Var; v != nil && model.OutputSizeRuleOf(opcode.Name) == model.SizeRuleInput0 {
		// Input 0 is a bound varnode: its width is read at runtime.
		sizeExpr = fmt.Sprintf("%s->getSize()", v.ToC())
	} else {
		return "", &Error{Kind: KindInternalConsistency, Message: fmt.Sprintf("cannot determine output size of replacement opcode %s", opcode.Name)}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "  PcodeOp* %s = data.newOp(%d, %s->getAddr());\n", newOpName, len(opcode.Args), parentOpName)
	fmt.Fprintf(&out, "  data.opSetOpcode(%s, CPUI_%s);\n", newOpName, opcode.Name)
	fmt.Fprintf(&out, "  Varnode* %s = data.newUniqueOut(%s, %s);\n", newOutVarName, sizeExpr, newOpName)
	fmt.Fprintf(&out, "  data.opInsertBefore(%s, %s);\n", newOpName, parentOpName)
	fmt.Fprintf(&out, "  data.opSetInput(%s, %s, %d);\n\n", parentOpName, newOutVarName, inputNum)

	for i, arg := range opcode.Args {
		switch a := arg.(type) {
		case *model.Opcode:
			code, err := e.emitCreateOpcode(a, newOpName, i)
			if err != nil {
				return "", err
			}
			out.WriteString(code)
		case *model.Var:
			out.WriteString(emitCreateVar(a, newOpName, i))
		default:
			code, err := e.emitCreateConst(arg, newOpName, i)
			if err != nil {
				return "", err
			}
			out.WriteString(code)
		}
	}

	return out.String(), nil
}
