package emit

import (
	"regexp"
	"testing"

	"github.com/rulechef/rulechef/internal/lexer"
	"github.com/rulechef/rulechef/internal/model"
	"github.com/rulechef/rulechef/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRule(t *testing.T, source string) *model.Rule {
	t.Helper()
	toks := lexer.New(source).Tokenize()
	rule, errs := parser.New(toks).ParseRule()
	require.Empty(t, errs, "%v", errs)
	return rule
}

// S1: a bare-variable replacement root is rejected (spec.md's Open
// Question #1 decision: the original tool generates dead code here).
func TestEmitBareVariableReplaceIsUnsupported(t *testing.T) {
	rule := parseRule(t, "add_zero: INT_ADD(x, 0) => x")

	_, _, err := EmitRule(rule)
	require.Error(t, err)

	var emitErr *Error
	require.ErrorAs(t, err, &emitErr)
	assert.Equal(t, KindUnsupportedConstruct, emitErr.Kind)
}

// S1 variant: a commutative opcode's two inputs are checked in both
// orderings via the generated helper closure.
func TestEmitCommutativeMatchGeneratesBothOrderings(t *testing.T) {
	rule := parseRule(t, "swap_add: INT_ADD(x, y) => INT_SUB(x, y)")

	code, warnings, err := EmitRule(rule)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Contains(t, code, "class RuleSimplifyswap_add")
	assert.Contains(t, code, "auto check_add_")
	assert.Contains(t, code, "RuleSimplifyswap_add::applyOp")
	assert.Contains(t, code, "CPUI_INT_SUB")
}

// S2: a nested opcode in the match expression recurses into its own
// children, and a nested opcode in the replacement recurses into its
// own construction.
func TestEmitNestedOpcodeRewrite(t *testing.T) {
	rule := parseRule(t, "nested: INT_RIGHT(INT_RIGHT(x, a), b) => INT_RIGHT(x, INT_ADD(a, b))")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "getDef()")
	assert.Contains(t, code, "CPUI_INT_RIGHT")
	assert.Contains(t, code, "data.newOp(2")
	assert.Contains(t, code, "CPUI_INT_ADD")
}

// S3: a constraint against a narrower-than-8-byte constant masks the
// comparison value to the declared width before comparing.
func TestEmitMaskedConstantConstraint(t *testing.T) {
	rule := parseRule(t, "narrow_check: INT_ADD(x, y) :- { x = 10:1 } => INT_ADD(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "masked_const")
	assert.Contains(t, code, "8 * 1")
	assert.Contains(t, code, "constantMatch(masked_const)")
}

// S3b: the default (8-byte) constant size takes the unmasked fast path.
func TestEmitDefaultSizeConstantIsUnmasked(t *testing.T) {
	rule := parseRule(t, "wide_check: INT_ADD(x, y) :- { x = 10 } => INT_ADD(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.NotContains(t, code, "masked_const")
	assert.Contains(t, code, "constantMatch(10)")
}

// S4: a less-than constraint against a sized constant emits the masked
// ">=" failure check (fail unless strictly less).
func TestEmitLessThanConstraint(t *testing.T) {
	rule := parseRule(t, "bounded: INT_AND(x, y) :- { x < 10:1 } => INT_AND(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "masked_const")
	assert.Contains(t, code, ">= masked_const")
}

// S4b: a less-than constraint against a bound variable compares runtime
// offsets directly, with no masking.
func TestEmitLessThanVariableConstraint(t *testing.T) {
	rule := parseRule(t, "bounded_var: INT_AND(x, y) :- { x < y } => INT_AND(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "isConstant()")
	assert.Contains(t, code, ">= autovar_y->getOffset()")
}

// S5: an opcode-alternative constraint with three or more elements must
// make every alternative reachable, not just the first and last (the
// documented off-by-one fix to the closing iteration).
func TestEmitOpcodeOrConstraintExhaustiveness(t *testing.T) {
	rule := parseRule(t, "three_way: INT_ADD(x, y) :- { x = INT_SUB(a, b) | INT_MULT(a, b) | INT_XOR(a, b) } => INT_ADD(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "== 0) {")
	assert.Contains(t, code, "== 1) {")
	assert.Contains(t, code, "} else {")
	assert.Contains(t, code, "CPUI_INT_SUB")
	assert.Contains(t, code, "CPUI_INT_MULT")
	assert.Contains(t, code, "CPUI_INT_XOR")

	matches := regexp.MustCompile(`i_\d+ < 3`).FindAllString(code, -1)
	assert.Len(t, matches, 1)
}

// S5b: a two-element opcode alternative has no middle branch at all -
// the loop still closes correctly with just an if/else.
func TestEmitOpcodeOrConstraintTwoElements(t *testing.T) {
	rule := parseRule(t, "two_way: INT_ADD(x, y) :- { x = INT_SUB(a, b) | INT_XOR(a, b) } => INT_ADD(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.NotContains(t, code, "== 1) {")
	assert.Regexp(t, regexp.MustCompile(`i_\d+ < 2`), code)
}

// S6: a replacement with more arguments than the match inserts the
// extra inputs; fewer arguments removes them.
func TestEmitArityGrowthInsertsInputs(t *testing.T) {
	rule := parseRule(t, "widen: INT_ADD(x, y) => INT_MULT(x, y, 1)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "op->insertInput(2);")
	assert.NotContains(t, code, "opRemoveInput")
}

func TestEmitArityShrinkRemovesInputs(t *testing.T) {
	// CALL (not in the commutative set) tolerates the 3-argument match
	// that a 2-argument commutative opcode's arity check would reject.
	rule := parseRule(t, "narrow: CALL(x, y, z) => CALL(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "data.opRemoveInput(op, 2);")
	assert.NotContains(t, code, "insertInput")
}

// Invariant: freshness - no C++ local is declared twice.
func TestEmitNeverDeclaresTheSameNameTwice(t *testing.T) {
	rule := parseRule(t, "nested_dup: INT_RIGHT(INT_RIGHT(x, a), a) => INT_RIGHT(x, a)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	declRe := regexp.MustCompile(`Varnode\* (\w+);`)
	seen := make(map[string]struct{})
	for _, m := range declRe.FindAllStringSubmatch(code, -1) {
		name := m[1]
		_, dup := seen[name]
		assert.False(t, dup, "name %q declared more than once", name)
		seen[name] = struct{}{}
	}
}

// Invariant: a variable's later occurrence in a match checks equality
// rather than rebinding.
func TestEmitRepeatedVariableChecksEquality(t *testing.T) {
	rule := parseRule(t, "self_sub: INT_SUB(x, x) => INT_AND(x, x)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "!= autovar_x")
}

// Invariant: a tautological equality constraint (same token on both
// sides) is silently dropped - it can never fail the match, so no check
// is emitted for it.
func TestEmitTautologicalEqualityConstraintIsDropped(t *testing.T) {
	rule := parseRule(t, "tauto: INT_ADD(x, y) :- { x = x } => INT_ADD(x, y)")

	code, warnings, err := EmitRule(rule)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotContains(t, code, "autovar_x != autovar_x")
}

// Invariant: a tautological ordering constraint (same token on both
// sides of "<" or ">") can never hold, so it warns and forces the match
// to fail outright rather than emitting a dead comparison.
func TestEmitTautologicalOrderingConstraintWarnsAndFails(t *testing.T) {
	rule := parseRule(t, "tauto_order: INT_ADD(x, y) :- { x < x } => INT_ADD(x, y)")

	code, warnings, err := EmitRule(rule)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	assert.Contains(t, code, "return 0;")
}

// Invariant: an equality constraint between two variables is rejected.
func TestEmitVariableEqualityConstraintIsUnsupported(t *testing.T) {
	rule := parseRule(t, "two_vars: INT_ADD(x, y) :- { x = y } => INT_ADD(x, y)")

	_, _, err := EmitRule(rule)
	require.Error(t, err)

	var emitErr *Error
	require.ErrorAs(t, err, &emitErr)
	assert.Equal(t, KindUnsupportedConstruct, emitErr.Kind)
}

// The fresh-name allocator never hands out the same name twice, and
// reports BudgetExhausted once a prefix's space is used up.
func TestNameAllocatorFreshNamesAreUnique(t *testing.T) {
	a := newNameAllocator()
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		name, err := a.fresh("autovar")
		require.NoError(t, err)
		_, dup := seen[name]
		require.False(t, dup)
		seen[name] = struct{}{}
	}
}

func TestNameAllocatorReserveAvoidsCollision(t *testing.T) {
	a := newNameAllocator()
	a.reserve("autovar_0")
	name, err := a.fresh("autovar")
	require.NoError(t, err)
	assert.Equal(t, "autovar_1", name)
}

func TestNameAllocatorBudgetExhausted(t *testing.T) {
	a := newNameAllocator()
	for i := 0; i < maxNamesPerPrefix; i++ {
		_, err := a.fresh("p")
		require.NoError(t, err)
	}
	_, err := a.fresh("p")
	require.Error(t, err)

	var emitErr *Error
	require.ErrorAs(t, err, &emitErr)
	assert.Equal(t, KindBudgetExhausted, emitErr.Kind)
}

// The opcode-list registration and class skeleton both carry the
// rule's name and match opcode.
func TestEmitClassSkeletonAndOpList(t *testing.T) {
	rule := parseRule(t, "foo: COPY(x) => COPY(x)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "class RuleSimplifyfoo : public Rule")
	assert.Contains(t, code, "RuleSimplifyfoo(const string &g)")
	assert.Contains(t, code, "void RuleSimplifyfoo::getOpList(vector<uint4> &oplist) const")
	assert.Contains(t, code, "oplist.push_back(CPUI_COPY);")
	assert.Contains(t, code, `simplifyfoo`)
}

// The explanation docstring reproduces the DSL form of the rule.
func TestEmitExplanationDocstringReproducesRule(t *testing.T) {
	rule := parseRule(t, "foo: INT_AND(x, y) :- { x < 5 } => INT_AND(x, y)")

	code, _, err := EmitRule(rule)
	require.NoError(t, err)

	assert.Contains(t, code, "INT_AND(x, y) :- {")
	assert.Contains(t, code, "x < 5")
	assert.Contains(t, code, "} => INT_AND(x, y)")
}
