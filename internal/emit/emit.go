// Package emit lowers a parsed model.Rule into C++ source implementing a
// Ghidra-style Rule subclass: a class skeleton, an opcode-list
// registration, and an applyOp body performing the match, constraint,
// and rewrite steps.
package emit

import (
	"fmt"
	"strings"

	"github.com/rulechef/rulechef/internal/model"
)

// maxNamesPerPrefix bounds how many fresh names a single prefix may
// allocate within one rule compilation, guarding against pathological
// input (e.g. a rule somehow driving unbounded nesting).
const maxNamesPerPrefix = 1000

// Kind classifies an emit-time failure.
type Kind int

const (
	KindUnsupportedConstruct Kind = iota
	KindBudgetExhausted
	KindInternalConsistency
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedConstruct:
		return "unsupported construct"
	case KindBudgetExhausted:
		return "budget exhausted"
	case KindInternalConsistency:
		return "internal consistency"
	default:
		return "?"
	}
}

// Error is an emit-time failure. Unlike parser errors, it carries no
// source position: by the time a Rule reaches the emitter, the AST is
// fully parsed and positions have already served their purpose.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// nameAllocator hands out fresh, prefix-scoped identifiers of the form
// <prefix>_<n>, picking the smallest n not yet allocated or reserved.
// It tracks only those names; which DSL variables are bound is kept
// separately in Emitter.bound.
type nameAllocator struct {
	used map[string]struct{}
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: make(map[string]struct{})}
}

func (a *nameAllocator) reserve(name string) {
	a.used[name] = struct{}{}
}

func (a *nameAllocator) fresh(prefix string) (string, error) {
	for i := 0; i < maxNamesPerPrefix; i++ {
		name := fmt.Sprintf("%s_%d", prefix, i)
		if _, taken := a.used[name]; !taken {
			a.used[name] = struct{}{}
			return name, nil
		}
	}
	return "", &Error{Kind: KindBudgetExhausted, Message: fmt.Sprintf("exhausted %d names with prefix %q", maxNamesPerPrefix, prefix)}
}

// Emitter holds the ephemeral state of one rule's compilation: the
// shared name namespace, which C++ locals have already been declared
// (so later uses assign rather than redeclare), which DSL variables
// have already been bound by the match, and which OpcodeOr closers are
// still owed by an in-progress two-phase constraint emission.
type Emitter struct {
	names       *nameAllocator
	declared    map[string]struct{}
	bound       map[string]struct{}
	orFuncNames map[*model.Constraint]string
	warnings    []string
}

func newEmitter() *Emitter {
	return &Emitter{
		names:       newNameAllocator(),
		declared:    make(map[string]struct{}),
		bound:       make(map[string]struct{}),
		orFuncNames: make(map[*model.Constraint]string),
	}
}

func (e *Emitter) warnf(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

// EmitRule lowers a full rule into one C++ translation unit: the class
// skeleton, the doc comment reproducing the DSL form, getOpList, and
// applyOp. Warnings (tautological constraints) are returned alongside a
// successful result; they never cause failure.
func EmitRule(rule *model.Rule) (string, []string, error) {
	e := newEmitter()

	applyOp, err := e.emitApplyOp(rule.Name, rule.Match, rule.Constraints, rule.Replace)
	if err != nil {
		return "", e.warnings, err
	}

	parts := []string{
		emitClassHeader(rule.Name),
		"",
		emitExplanationDocstring(rule),
		emitGetOpList(rule.Name, rule.Match),
		"",
		applyOp,
	}
	return strings.Join(parts, "\n"), e.warnings, nil
}

func emitClassHeader(name string) string {
	return fmt.Sprintf(
		"class RuleSimplify%s : public Rule {\n"+
			"public:\n"+
			"  RuleSimplify%s(const string &g) : Rule( g, 0, \"simplify%s\") {}	///< Constructor\n"+
			"  virtual Rule *clone(const ActionGroupList &grouplist) const {\n"+
			"    if (!grouplist.contains(getGroup())) return (Rule *)0;\n"+
			"    return new RuleSimplify%s(getGroup());\n"+
			"  }\n"+
			"  virtual void getOpList(vector<uint4> &oplist) const;\n"+
			"  virtual int4 applyOp(PcodeOp *op,Funcdata &data);\n"+
			"};\n",
		name, name, strings.ToLower(name), name,
	)
}

func emitGetOpList(name string, match *model.Opcode) string {
	return fmt.Sprintf(
		"void RuleSimplify%s::getOpList(vector<uint4> &oplist) const\n"+
			"{\n"+
			"  oplist.push_back(CPUI_%s);\n"+
			"}\n",
		name, match.Name,
	)
}

func emitExplanationDocstring(rule *model.Rule) string {
	lines := rule.PrettyLines()
	var b strings.Builder
	fmt.Fprintf(&b, "/// \\class RuleSimplify%s\n", rule.Name)
	b.WriteString("///\n")
	b.WriteString("/// \\brief This rule was automatically generated rule from the expression:\n")
	b.WriteString("///\n")
	b.WriteString("/// ")
	b.WriteString(strings.Join(lines, "\n/// "))
	b.WriteString("\n///")
	return b.String()
}
