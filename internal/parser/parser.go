// Package parser turns a rulechef DSL token stream into a model.Rule via
// a hand-written recursive-descent parser, with a precedence-climbing
// sub-parser for the DSL's C-style value expressions. No grammar-engine
// library is used — see DESIGN.md for why.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rulechef/rulechef/internal/lexer"
	"github.com/rulechef/rulechef/internal/model"
)

// Precedence levels for the value-expression sub-grammar, lowest
// binding power first. All operators are left-associative; parentheses
// override.
const (
	precLowest = iota
	precOr     // |
	precXor    // ^
	precAnd    // &
	precShift  // << >>
	precAddSub // + -
	precMult   // *
)

// Error is a parse-time error: malformed syntax or an unknown opcode.
// Parsing continues past an Error where it safely can, so one pass can
// surface more than one mistake.
type Error struct {
	Pos     model.Position
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser consumes a flat token slice and produces a model.Rule.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []Error
}

// New creates a Parser over an already-tokenized source.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseRule parses exactly one rule (the DSL has one rule per file).
func (p *Parser) ParseRule() (*model.Rule, []Error) {
	rule := p.parseRule()
	return rule, p.errors
}

func (p *Parser) parseRule() *model.Rule {
	name := p.parseName()
	p.expect(lexer.Colon)

	matchExpr := p.parseExpr()
	match, ok := matchExpr.(*model.Opcode)
	if matchExpr != nil && !ok {
		p.errorf(p.current().Pos, "match expression must be a single opcode, not %s", matchExpr.ToPretty())
	}

	var constraints []*model.Constraint
	if p.current().Kind == lexer.ColonDash {
		p.advance()
		p.expect(lexer.LBrace)
		for p.current().Kind != lexer.RBrace && p.current().Kind != lexer.EOF {
			constraints = append(constraints, p.parseConstraint())
		}
		p.expect(lexer.RBrace)
	}

	p.expect(lexer.Arrow)
	replace := p.parseReplaceExpr()

	if p.current().Kind != lexer.EOF {
		p.errorf(p.current().Pos, "unexpected trailing input starting at %q", p.current().Lexeme)
	}

	return &model.Rule{
		Name:        name,
		Match:       match,
		Constraints: constraints,
		Replace:     replace,
	}
}

func (p *Parser) parseName() string {
	tok := p.current()
	if tok.Kind != lexer.Ident {
		p.errorf(tok.Pos, "expected rule name, got %s", tok.Kind)
		return ""
	}
	p.advance()
	return tok.Lexeme
}

// parseConstraint parses `valueexpr ('<' | '>' | '=') expr`.
func (p *Parser) parseConstraint() *model.Constraint {
	left := p.parseValueExpr()

	var op model.ConstraintOp
	switch p.current().Kind {
	case lexer.Lt:
		op = model.ConstraintLess
	case lexer.Gt:
		op = model.ConstraintGreater
	case lexer.Eq:
		op = model.ConstraintEqual
	default:
		p.errorf(p.current().Pos, "expected '<', '>' or '=' in constraint, got %s", p.current().Kind)
	}
	p.advance()

	right := p.parseExpr()

	return &model.Constraint{Left: left, Op: op, Right: right}
}

// parseReplaceExpr parses `opexpr | VAR`.
func (p *Parser) parseReplaceExpr() model.Token {
	if p.isOpcodeStart() {
		return p.parseOpcodeExpr()
	}
	return p.parseVar()
}

// parseExpr parses `altexpr | valueexpr`.
func (p *Parser) parseExpr() model.Token {
	if p.isOpcodeStart() {
		opcode := p.parseOpcodeExpr()
		if p.current().Kind == lexer.Pipe {
			return p.parseAltTail(opcode)
		}
		return opcode
	}
	return p.parseValueExpr()
}

// parseAltTail parses the ('|' (VAR | opexpr))* continuation of an
// opcode alternation, given the first element already parsed.
func (p *Parser) parseAltTail(first model.Token) model.Token {
	elements := []model.Token{first}
	for p.current().Kind == lexer.Pipe {
		p.advance()
		if p.isOpcodeStart() {
			elements = append(elements, p.parseOpcodeExpr())
		} else {
			elements = append(elements, p.parseVar())
		}
	}
	return &model.OpcodeOr{Elements: elements}
}

// isOpcodeStart reports whether the parser is positioned at an
// identifier followed by '(', i.e. an opcode application. Whether the
// identifier is a known opcode is checked by parseOpcodeExpr, which
// reports an unknown one.
func (p *Parser) isOpcodeStart() bool {
	tok := p.current()
	if tok.Kind != lexer.Ident {
		return false
	}
	return p.peek(1).Kind == lexer.LParen
}

func (p *Parser) parseOpcodeExpr() *model.Opcode {
	tok := p.current()
	if tok.Kind != lexer.Ident || !model.IsKnownOp(tok.Lexeme) {
		p.errorf(tok.Pos, "unknown opcode %q", tok.Lexeme)
	}
	name := tok.Lexeme
	p.advance()
	p.expect(lexer.LParen)

	var args []model.Token
	if p.current().Kind != lexer.RParen {
		args = append(args, p.parseExpr())
		for p.current().Kind == lexer.Comma {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	p.expect(lexer.RParen)

	if len(args) == 0 {
		p.errorf(tok.Pos, "opcode %s requires at least one argument", name)
	}

	return &model.Opcode{Name: name, Args: args}
}

func (p *Parser) parseVar() *model.Var {
	tok := p.current()
	if tok.Kind != lexer.Ident || !isVariableName(tok.Lexeme) {
		p.errorf(tok.Pos, "expected a variable name, got %q", tok.Lexeme)
		p.advance()
		return model.NewVar("_error")
	}
	p.advance()
	return model.NewVar(tok.Lexeme)
}

func isVariableName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || r == '_') {
			return false
		}
	}
	return true
}

// --- value expressions: C-style precedence climbing ---

func (p *Parser) parseValueExpr() model.Token {
	return p.parsePrecedence(precLowest)
}

func (p *Parser) parsePrecedence(minPrec int) model.Token {
	left := p.parseValuePrimary()

	for {
		prec, kind := p.infixPrecedence()
		if prec < minPrec || prec == precLowest {
			break
		}
		p.advance()
		right := p.parsePrecedence(prec + 1)
		binop, consistent := model.NewBinOp(binOpKindOf(kind), left, right)
		if !consistent {
			p.errorf(p.current().Pos, "operand sizes disagree in binary operation")
		}
		left = binop
	}

	return left
}

func (p *Parser) infixPrecedence() (int, lexer.Kind) {
	switch p.current().Kind {
	case lexer.Pipe:
		return precOr, lexer.Pipe
	case lexer.Caret:
		return precXor, lexer.Caret
	case lexer.Amp:
		return precAnd, lexer.Amp
	case lexer.LShift:
		return precShift, lexer.LShift
	case lexer.RShift:
		return precShift, lexer.RShift
	case lexer.Plus:
		return precAddSub, lexer.Plus
	case lexer.Minus:
		return precAddSub, lexer.Minus
	case lexer.Star:
		return precMult, lexer.Star
	default:
		return precLowest, lexer.EOF
	}
}

func binOpKindOf(kind lexer.Kind) model.BinOpKind {
	switch kind {
	case lexer.Plus:
		return model.BinOpAdd
	case lexer.Minus:
		return model.BinOpSub
	case lexer.Star:
		return model.BinOpMult
	case lexer.Amp:
		return model.BinOpAnd
	case lexer.Pipe:
		return model.BinOpOr
	case lexer.Caret:
		return model.BinOpXor
	case lexer.LShift:
		return model.BinOpLShift
	case lexer.RShift:
		return model.BinOpRShift
	default:
		panic(fmt.Sprintf("parser: %s is not a binary operator", kind))
	}
}

// parseValuePrimary parses `VAR | sized_number | sizeof | '(' valueexpr ')'`.
func (p *Parser) parseValuePrimary() model.Token {
	switch p.current().Kind {
	case lexer.Pipe:
		return p.parseSizeOf()
	case lexer.Number:
		return p.parseSizedNumber()
	case lexer.LParen:
		p.advance()
		inner := p.parseValueExpr()
		p.expect(lexer.RParen)
		return inner
	case lexer.Ident:
		return p.parseVar()
	default:
		p.errorf(p.current().Pos, "expected a value, got %s", p.current().Kind)
		p.advance()
		return model.NewVar("_error")
	}
}

func (p *Parser) parseSizeOf() *model.SizeOf {
	p.expect(lexer.Pipe)
	v := p.parseVar()
	p.expect(lexer.Pipe)
	return &model.SizeOf{Variable: v}
}

func (p *Parser) parseSizedNumber() *model.Number {
	lit := p.parseNumberLiteral()

	if p.current().Kind != lexer.Colon {
		return model.NewNumber(lit.value, lit.repr)
	}
	p.advance()

	if p.current().Kind == lexer.Pipe {
		sz := p.parseSizeOf()
		return model.NewSizeOfSizedNumber(lit.value, lit.repr, sz)
	}

	sizeLit := p.parseNumberLiteral()
	return model.NewSizedNumber(lit.value, lit.repr, int(sizeLit.value))
}

type numberLiteral struct {
	value int64
	repr  string
}

func (p *Parser) parseNumberLiteral() numberLiteral {
	tok := p.current()
	if tok.Kind != lexer.Number {
		p.errorf(tok.Pos, "expected a number, got %s", tok.Kind)
		p.advance()
		return numberLiteral{}
	}
	p.advance()

	value, err := strconv.ParseInt(tok.Lexeme, 0, 64)
	if err != nil {
		p.errorf(tok.Pos, "invalid number literal %q: %v", tok.Lexeme, err)
		return numberLiteral{repr: tok.Lexeme}
	}
	return numberLiteral{value: value, repr: tok.Lexeme}
}

// --- token stream navigation ---

func (p *Parser) current() lexer.Token {
	return p.peek(0)
}

func (p *Parser) peek(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[idx]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.errorf(tok.Pos, "expected %s, got %s", kind, tok.Kind)
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) errorf(pos model.Position, format string, args ...any) {
	p.errors = append(p.errors, Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}
