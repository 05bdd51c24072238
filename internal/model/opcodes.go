package model

// AllOpNames is the fixed, closed set of P-code opcode mnemonics the DSL
// recognizes. An OPCODE token in the grammar must be drawn from here.
var AllOpNames = []string{
	"COPY", "LOAD", "STORE", "BRANCH", "CBRANCH", "BRANCHIND", "CALL", "CALLIND",
	"CALLOTHER", "RETURN", "INT_EQUAL", "INT_NOTEQUAL", "INT_SLESS",
	"INT_SLESSEQUAL", "INT_LESS", "INT_LESSEQUAL", "INT_ZEXT", "INT_SEXT",
	"INT_ADD", "INT_SUB", "INT_CARRY", "INT_SCARRY", "INT_SBORROW", "INT_2COMP",
	"INT_NEGATE", "INT_XOR", "INT_AND", "INT_OR", "INT_LEFT", "INT_RIGHT",
	"INT_SRIGHT", "INT_MULT", "INT_DIV", "INT_SDIV", "INT_REM", "INT_SREM",
	"BOOL_NEGATE", "BOOL_XOR", "BOOL_AND", "BOOL_OR", "FLOAT_EQUAL",
	"FLOAT_NOTEQUAL", "FLOAT_LESS", "FLOAT_LESSEQUAL", "FLOAT_NAN", "FLOAT_ADD",
	"FLOAT_DIV", "FLOAT_MULT", "FLOAT_SUB", "FLOAT_NEG", "FLOAT_ABS",
	"FLOAT_SQRT", "FLOAT_INT2FLOAT", "FLOAT_FLOAT2FLOAT", "FLOAT_TRUNC",
	"FLOAT_CEIL", "FLOAT_FLOOR", "FLOAT_ROUND", "MULTIEQUAL", "INDIRECT",
	"PIECE", "SUBPIECE", "CAST", "PTRADD", "PTRSUB", "SEGMENTOP", "CPOOLREF",
	"NEW", "INSERT", "EXTRACT", "POPCOUNT",
}

// CommutativeOpNames is the subset of AllOpNames whose two inputs may be
// matched in either order. Only 2-argument opcodes appear here.
var CommutativeOpNames = []string{
	"INT_EQUAL", "INT_NOTEQUAL", "INT_ADD", "INT_XOR", "INT_AND", "INT_OR",
	"INT_MULT", "BOOL_XOR", "BOOL_AND", "BOOL_OR", "FLOAT_EQUAL", "FLOAT_NOTEQUAL",
	"FLOAT_ADD", "FLOAT_MULT",
}

// SizeRule classifies how an opcode's output size relates to its inputs.
type SizeRule int

const (
	// SizeRuleUnknown means the opcode's output size is not determined
	// by this table (not in reference, or genuinely data-dependent).
	SizeRuleUnknown SizeRule = iota
	// SizeRuleInput0 means the output is the same size as input 0.
	SizeRuleInput0
	// SizeRuleBoolean means the output is a single byte.
	SizeRuleBoolean
	// SizeRulePiece means the output is the sum of the two input sizes.
	SizeRulePiece
)

var (
	allOpSet         map[string]struct{}
	commutativeOpSet map[string]struct{}
	sizeRuleTable    map[string]SizeRule
)

func init() {
	allOpSet = make(map[string]struct{}, len(AllOpNames))
	for _, name := range AllOpNames {
		allOpSet[name] = struct{}{}
	}

	commutativeOpSet = make(map[string]struct{}, len(CommutativeOpNames))
	for _, name := range CommutativeOpNames {
		commutativeOpSet[name] = struct{}{}
	}

	sizeRuleTable = make(map[string]SizeRule, len(AllOpNames))
	registerSizeRule(SizeRulePiece, "PIECE")
	registerSizeRule(SizeRuleInput0,
		"COPY", "INT_ADD", "INT_SUB", "INT_2COMP", "INT_NEGATE",
		"INT_XOR", "INT_AND", "INT_OR", "INT_LEFT", "INT_RIGHT",
		"INT_SRIGHT", "INT_MULT", "INT_DIV", "INT_REM", "INT_SDIV",
		"INT_SREM", "FLOAT_ADD", "FLOAT_SUB", "FLOAT_MULT", "FLOAT_DIV",
		"FLOAT_NEG", "FLOAT_ABS", "FLOAT_SQRT", "FLOAT_CEIL",
		"FLOAT_FLOOR", "FLOAT_ROUND",
	)
	registerSizeRule(SizeRuleBoolean,
		"INT_EQUAL", "INT_NOTEQUAL", "INT_LESS", "INT_SLESS",
		"INT_LESSEQUAL", "INT_SLESSEQUAL", "INT_CARRY", "INT_SCARRY",
		"INT_SBORROW", "BOOL_NEGATE", "BOOL_XOR", "BOOL_AND", "BOOL_OR",
		"FLOAT_EQUAL", "FLOAT_NOTEQUAL", "FLOAT_LESS", "FLOAT_LESSEQUAL",
		"FLOAT_NAN",
	)
}

func registerSizeRule(rule SizeRule, names ...string) {
	for _, name := range names {
		sizeRuleTable[name] = rule
	}
}

// IsKnownOp reports whether name is one of the fixed opcode mnemonics.
func IsKnownOp(name string) bool {
	_, ok := allOpSet[name]
	return ok
}

// IsCommutativeOp reports whether name is in the commutative subset.
func IsCommutativeOp(name string) bool {
	_, ok := commutativeOpSet[name]
	return ok
}

// OutputSizeRuleOf returns the size-inference rule registered for name,
// or SizeRuleUnknown if none is registered.
func OutputSizeRuleOf(name string) SizeRule {
	return sizeRuleTable[name]
}
