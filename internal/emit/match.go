package emit

import (
	"fmt"
	"strings"

	"github.com/rulechef/rulechef/internal/model"
)

// emitApplyOp lowers one rule's match/constraint/rewrite triad into the
// body of RuleSimplify<Name>::applyOp.
func (e *Emitter) emitApplyOp(ruleName string, match *model.Opcode, constraints []*model.Constraint, replace model.Token) (string, error) {
	var out strings.Builder

	fmt.Fprintf(&out, "int4 RuleSimplify%s::applyOp(PcodeOp *op, Funcdata &data)\n\n{\n\n  // Remaining checks on the match expression\n", ruleName)

	for _, v := range dedupVars(replace.GetVariables()) {
		out.WriteString(e.emitDeclareVar(v))
	}

	children, err := e.emitCheckOpcodeChildren("op", match, 2)
	if err != nil {
		return "", err
	}
	out.WriteString(children)

	if len(constraints) > 0 {
		out.WriteString("\n  // Some more checks for the extra constraints\n")
	}

	indentLevel := 2
	type pending struct {
		indent     int
		constraint *model.Constraint
	}
	var finishers []pending

	for _, c := range constraints {
		code, newIndent, err := e.toCheckC(c, indentLevel)
		if err != nil {
			return "", err
		}
		out.WriteString(code)
		if newIndent != indentLevel {
			finishers = append(finishers, pending{indentLevel, c})
			indentLevel = newIndent
		}
	}

	for i := len(finishers) - 1; i >= 0; i-- {
		code, err := e.toCheckCEnd(finishers[i].constraint, finishers[i].indent)
		if err != nil {
			return "", err
		}
		out.WriteString(code)
	}

	out.WriteString("\n  // matched this PcodeOp - replace this with the simplified structure\n")

	replaceOp, ok := replace.(*model.Opcode)
	if !ok {
		return "", &Error{Kind: KindUnsupportedConstruct, Message: fmt.Sprintf("rule %s: replace expression must be an opcode; a bare variable replacement root is not supported", ruleName)}
	}

	if replaceOp.Name != match.Name {
		fmt.Fprintf(&out, "  data.opSetOpcode(op, CPUI_%s);\n", replaceOp.Name)
	}

	numMatchArgs := len(match.Args)
	numReplaceArgs := len(replaceOp.Args)
	for i := numMatchArgs; i < numReplaceArgs; i++ {
		fmt.Fprintf(&out, "  op->insertInput(%d);\n", i)
	}
	for i := numReplaceArgs; i < numMatchArgs; i++ {
		fmt.Fprintf(&out, "  data.opRemoveInput(op, %d);\n", i)
	}

	for i, arg := range replaceOp.Args {
		switch a := arg.(type) {
		case *model.Opcode:
			code, err := e.emitCreateOpcode(a, "op", i)
			if err != nil {
				return "", err
			}
			out.WriteString(code)
		case *model.Var:
			out.WriteString(emitCreateVar(a, "op", i))
		default:
			code, err := e.emitCreateConst(arg, "op", i)
			if err != nil {
				return "", err
			}
			out.WriteString(code)
		}
	}

	out.WriteString("\n  return 1;\n}\n")

	return out.String(), nil
}

// emitCheckOpcodeChildren checks the arguments of opcode against an IR
// pointer named target, emitting either the non-commutative per-argument
// dispatch or the commutative dual-ordering helper, per spec.md §4.3.1.
func (e *Emitter) emitCheckOpcodeChildren(target string, opcode *model.Opcode, indent int) (string, error) {
	ind := strings.Repeat(" ", indent)

	var out strings.Builder
	fmt.Fprintf(&out, "\n%s// Checks %s\n", ind, opcode.ToPretty())

	isCommutative := opcode.IsCommutative()
	if isCommutative && len(opcode.Args) != 2 {
		return "", &Error{Kind: KindInternalConsistency, Message: fmt.Sprintf("opcode %s is marked commutative but has %d arguments, not 2", opcode.Name, len(opcode.Args))}
	}

	var checkLambdaName, varLeftName, varRightName string
	innerIndent := indent

	if isCommutative {
		var err error
		checkLambdaName, err = e.names.fresh("check_" + lastSegmentLower(opcode.Name))
		if err != nil {
			return "", err
		}
		varLeftName, err = e.names.fresh("autovar_left")
		if err != nil {
			return "", err
		}
		varRightName, err = e.names.fresh("autovar_right")
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&out, "%sauto %s = [&](Varnode* %s, Varnode* %s) -> int4 {\n", ind, checkLambdaName, varLeftName, varRightName)
		innerIndent += 2
	}

	for i, arg := range opcode.Args {
		var targetArg string
		if isCommutative {
			if i == 0 {
				targetArg = varLeftName
			} else {
				targetArg = varRightName
			}
		} else {
			targetArg = fmt.Sprintf("%s->getIn(%d)", target, i)
		}

		switch a := arg.(type) {
		case *model.Var:
			varName := a.ToC()
			if _, bound := e.bound[varName]; bound {
				out.WriteString(emitCheckEquality(targetArg, varName, innerIndent))
			} else {
				e.bound[varName] = struct{}{}
				out.WriteString(e.emitCreateVarnode(varName, targetArg, innerIndent))
			}
		case *model.BinOp:
			code, err := e.emitCheckConstantEqual(targetArg, a, innerIndent)
			if err != nil {
				return "", err
			}
			out.WriteString(code)
		case *model.Number:
			code, err := e.emitCheckConstantEqual(targetArg, a, innerIndent)
			if err != nil {
				return "", err
			}
			out.WriteString(code)
		case *model.Opcode:
			var varnodeName string
			if isCommutative {
				varnodeName = targetArg
			} else {
				var err error
				varnodeName, err = e.names.fresh("autovar")
				if err != nil {
					return "", err
				}
				out.WriteString(e.emitCreateVarnode(varnodeName, targetArg, innerIndent))
			}

			sub, err := e.emitCheckOpcode(&model.Var{Name: varnodeName}, a, innerIndent)
			if err != nil {
				return "", err
			}
			out.WriteString(sub)
		default:
			return "", &Error{Kind: KindInternalConsistency, Message: fmt.Sprintf("unsupported opcode argument type %T", arg)}
		}

		out.WriteString("\n")
	}

	if isCommutative {
		innerIndent -= 2
		nameA, err := e.names.fresh("autovar")
		if err != nil {
			return "", err
		}
		nameB, err := e.names.fresh("autovar")
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&out, "%s  return 1;\n%s};\n\n", ind, ind)
		out.WriteString(e.emitCreateVarnode(nameA, fmt.Sprintf("%s->getIn(0)", target), innerIndent))
		out.WriteString(e.emitCreateVarnode(nameB, fmt.Sprintf("%s->getIn(1)", target), innerIndent))
		fmt.Fprintf(&out, "%sif ((! %s(%s, %s)) && (! %s(%s, %s)))\n%s  return 0;\n",
			ind, checkLambdaName, nameA, nameB, checkLambdaName, nameB, nameA, ind)
	}

	return out.String(), nil
}

// emitCheckOpcode checks that varnode was written by an op matching
// opcode, recursing into its children.
func (e *Emitter) emitCheckOpcode(varnode *model.Var, opcode *model.Opcode, indent int) (string, error) {
	ind := strings.Repeat(" ", indent)

	var out strings.Builder
	fmt.Fprintf(&out, "%sif (! %s->isWritten()) return 0;\n", ind, varnode.ToC())

	pcodeVarName, err := e.names.fresh("temp_pcode")
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&out, "%sPcodeOp* %s = %s->getDef();\n", ind, pcodeVarName, varnode.ToC())

	out.WriteString(emitCheckEquality(fmt.Sprintf("%s->code()", pcodeVarName), fmt.Sprintf("CPUI_%s", opcode.Name), indent))

	children, err := e.emitCheckOpcodeChildren(pcodeVarName, opcode, indent)
	if err != nil {
		return "", err
	}
	out.WriteString(children)

	return out.String(), nil
}

func lastSegmentLower(name string) string {
	idx := strings.LastIndex(name, "_")
	if idx == -1 {
		return strings.ToLower(name)
	}
	return strings.ToLower(name[idx+1:])
}

func dedupVars(vars []*model.Var) []*model.Var {
	seen := make(map[string]struct{}, len(vars))
	var out []*model.Var
	for _, v := range vars {
		if _, ok := seen[v.Name]; ok {
			continue
		}
		seen[v.Name] = struct{}{}
		out = append(out, v)
	}
	return out
}
