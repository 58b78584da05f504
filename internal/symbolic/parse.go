package symbolic

import (
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/san-kum/linlab/internal/errs"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operator spellings that normalize to the ASCII set.
var opAliases = map[string]string{
	"**": "^",
	"·":  "*",
	"×":  "*",
	"÷":  "/",
	"−":  "-",
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		r, w := utf8.DecodeRuneInString(input[i:])
		switch {
		case unicode.IsSpace(r):
			i += w
		case r >= '0' && r <= '9' || r == '.':
			start := i
			i = scanNumber(input, i)
			toks = append(toks, token{kind: tokNum, text: input[start:i], pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(input) {
				r, w := utf8.DecodeRuneInString(input[i:])
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
					break
				}
				i += w
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], pos: start})
		case strings.HasPrefix(input[i:], "**"):
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^()", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i += w
		default:
			if alias, ok := opAliases[string(r)]; ok {
				toks = append(toks, token{kind: tokOp, text: alias, pos: i})
				i += w
				continue
			}
			return nil, &errs.ParseError{Input: input, Pos: i, Msg: "unexpected character " + string(r)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(input)}), nil
}

func scanNumber(s string, i int) int {
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			return j
		}
	}
	return i
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) fail(pos int, msg string) error {
	return &errs.ParseError{Input: p.input, Pos: pos, Msg: msg}
}

// Parse reads an infix expression. Exponentiation binds tighter than unary
// minus and is right associative, so -x^2 is -(x^2) and a^b^c is a^(b^c).
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &errs.ParseError{Input: input, Pos: 0, Msg: "empty expression"}
	}
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.fail(t.pos, "unexpected "+t.text)
	}
	return e, nil
}

// ParseEquation splits "lhs = rhs" and parses both sides.
func ParseEquation(input string) (Expr, Expr, error) {
	parts := strings.Split(input, "=")
	if len(parts) != 2 {
		return nil, nil, &errs.ParseError{Input: input, Pos: -1, Msg: "equation needs exactly one '='"}
	}
	lhs, err := Parse(parts[0])
	if err != nil {
		return nil, nil, err
	}
	rhs, err := Parse(parts[1])
	if err != nil {
		if pe, ok := err.(*errs.ParseError); ok {
			return nil, nil, &errs.ParseError{Input: input, Pos: pe.Pos + len(parts[0]) + 1, Msg: pe.Msg}
		}
		return nil, nil, err
	}
	return lhs, rhs, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if op.text == "+" {
			left = AddOf(left, right)
		} else {
			left = SubOf(left, right)
		}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") {
		op := p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op.text == "*" {
			left = MulOf(left, right)
			continue
		}
		if isNum(right, 0) {
			return nil, p.fail(op.pos, "division by zero")
		}
		left = DivOf(left, right)
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("-") {
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	}
	if p.isOp("+") {
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	op := p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	if isNum(base, 0) {
		if en, ok := exp.(*Num); ok && en.IsNegative() {
			return nil, p.fail(op.pos, "division by zero")
		}
	}
	return PowOf(base, exp), nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.fail(t.pos, "bad number "+t.text)
		}
		return &Num{val: r}, nil
	case tokIdent:
		if !p.isOp("(") {
			return S(t.text), nil
		}
		if !IsFunction(t.text) {
			return nil, p.fail(t.pos, "unknown function "+t.text)
		}
		p.next()
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if !p.isOp(")") {
			return nil, p.fail(p.peek().pos, "missing ')'")
		}
		p.next()
		return Apply(t.text, arg)
	case tokOp:
		if t.text == "(" {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			if !p.isOp(")") {
				return nil, p.fail(p.peek().pos, "missing ')'")
			}
			p.next()
			return e, nil
		}
		return nil, p.fail(t.pos, "unexpected "+t.text)
	}
	return nil, p.fail(t.pos, "unexpected end of input")
}
