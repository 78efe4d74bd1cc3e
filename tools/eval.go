package tools

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/chaterm/chaterm/errors"
)

// Arithmetic expression evaluator for the calculate tool. The argument text
// comes from the model, so this must stay a closed little language: numeric
// literals, + - * / ^ and parentheses, plus a fixed whitelist of functions
// and constants. Nothing here may ever grow into a general evaluator.

var evalConstants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type evalFunc struct {
	arity int
	apply func(args []float64) float64
}

var evalFunctions = map[string]evalFunc{
	"sqrt": {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"sin":  {1, func(a []float64) float64 { return math.Sin(a[0]) }},
	"cos":  {1, func(a []float64) float64 { return math.Cos(a[0]) }},
	"tan":  {1, func(a []float64) float64 { return math.Tan(a[0]) }},
	"log":  {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"abs":  {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"pow":  {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	val  float64
}

// lexExpression splits an expression into tokens, rejecting anything
// outside the allowed vocabulary.
func lexExpression(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		ch := rune(input[i])
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			j := i
			for j < len(input) && (input[j] >= '0' && input[j] <= '9' || input[j] == '.') {
				j++
			}
			// Exponent suffix like 1e9 or 2.5e-3.
			if j < len(input) && (input[j] == 'e' || input[j] == 'E') {
				k := j + 1
				if k < len(input) && (input[k] == '+' || input[k] == '-') {
					k++
				}
				if k < len(input) && input[k] >= '0' && input[k] <= '9' {
					for k < len(input) && input[k] >= '0' && input[k] <= '9' {
						k++
					}
					j = k
				}
			}
			text := input[i:j]
			val, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.New("invalid number %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, val: val})
			i = j
		case unicode.IsLetter(ch):
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j]))) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: strings.ToLower(input[i:j])})
			i = j
		case ch == '+':
			toks = append(toks, token{kind: tokPlus, text: "+"})
			i++
		case ch == '-':
			toks = append(toks, token{kind: tokMinus, text: "-"})
			i++
		case ch == '*':
			toks = append(toks, token{kind: tokStar, text: "*"})
			i++
		case ch == '/':
			toks = append(toks, token{kind: tokSlash, text: "/"})
			i++
		case ch == '^':
			toks = append(toks, token{kind: tokCaret, text: "^"})
			i++
		case ch == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case ch == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case ch == ',':
			toks = append(toks, token{kind: tokComma, text: ","})
			i++
		default:
			return nil, errors.New("unexpected character %q in expression", string(ch))
		}
	}
	toks = append(toks, token{kind: tokEOF, text: "end of expression"})
	return toks, nil
}

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) expect(kind tokenKind, what string) error {
	if p.peek().kind != kind {
		return errors.New("expected %s, found %q", what, p.peek().text)
	}
	p.next()
	return nil
}

// evaluate parses and evaluates an arithmetic expression.
func evaluate(input string) (float64, error) {
	toks, err := lexExpression(input)
	if err != nil {
		return 0, err
	}
	p := &exprParser{toks: toks}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, errors.New("unexpected %q after expression", p.peek().text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("expression has no finite result")
	}
	return v, nil
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case tokMinus:
			p.next()
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokStar:
			p.next()
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case tokSlash:
			p.next()
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, errors.New("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		v, err := p.parseUnary()
		return -v, err
	case tokPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles ^ with right associativity: 2^3^2 is 2^(3^2).
func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokCaret {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	switch tok := p.next(); tok.kind {
	case tokNumber:
		return tok.val, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		return v, p.expect(tokRParen, "')'")
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(tok.text)
		}
		if v, ok := evalConstants[tok.text]; ok {
			return v, nil
		}
		return 0, errors.New("unknown constant %q", tok.text)
	default:
		return 0, errors.New("unexpected %q in expression", tok.text)
	}
}

func (p *exprParser) parseCall(name string) (float64, error) {
	fn, ok := evalFunctions[name]
	if !ok {
		return 0, errors.New("unknown function %q", name)
	}
	p.next() // consume '('

	var args []float64
	if p.peek().kind != tokRParen {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return 0, err
	}
	if len(args) != fn.arity {
		return 0, errors.New("%s expects %d argument(s), got %d", name, fn.arity, len(args))
	}
	return fn.apply(args), nil
}
