package formula

import (
	"github.com/guttosm/mtmengine/internal/product"
)

// Lookup resolves an instrument price; ok=false means no price is known.
type Lookup func(instrument product.Canonical) (price float64, ok bool)

type node interface {
	eval(lookup Lookup, missing map[product.Canonical]bool) float64
}

type numberNode float64

func (n numberNode) eval(Lookup, map[product.Canonical]bool) float64 { return float64(n) }

type instrumentNode product.Canonical

func (n instrumentNode) eval(lookup Lookup, missing map[product.Canonical]bool) float64 {
	p, ok := lookup(product.Canonical(n))
	if !ok {
		missing[product.Canonical(n)] = true
		return 0
	}
	return p
}

type negNode struct{ x node }

func (n negNode) eval(l Lookup, m map[product.Canonical]bool) float64 { return -n.x.eval(l, m) }

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(l Lookup, m map[product.Canonical]bool) float64 {
	a, b := n.left.eval(l, m), n.right.eval(l, m)
	switch n.op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	case '/':
		if b == 0 {
			return 0
		}
		return a / b
	}
	return 0
}

// Apply evaluates f against a price snapshot. Instruments missing from
// prices evaluate as 0 so daily series evaluation stays total. The
// sentinel evaluates to 0.
func Apply(f PricingFormula, prices map[product.Canonical]float64) float64 {
	v, _ := Resolve(f, func(i product.Canonical) (float64, bool) {
		p, ok := prices[i]
		return p, ok
	})
	return v
}

// Resolve evaluates f with lookup and also reports which instruments had no
// price, in first-appearance order. Callers that must distinguish "priced
// at zero" from "not priced" (single-leg valuation) use the missing list.
func Resolve(f PricingFormula, lookup Lookup) (float64, []product.Canonical) {
	if f.IsEmpty() || f.expr == nil {
		return 0, nil
	}
	missing := make(map[product.Canonical]bool)
	v := f.expr.eval(lookup, missing)
	if len(missing) == 0 {
		return v, nil
	}
	var out []product.Canonical
	for _, i := range f.Instruments() {
		if missing[i] {
			out = append(out, i)
		}
	}
	return v, out
}

// compile turns the token sequence into an expression tree.
//
// Grammar:
//
//	expr    := term (('+' | '-') term)*
//	term    := factor (('*' | '/') factor | percentage)*
//	factor  := ('+' | '-') factor | '(' expr ')' | operand
//	operand := instrument | fixedValue | percentage
//
// A percentage directly following a factor scales it ("X 110%" == X * 1.1).
func compile(tokens []Token) (node, bool) {
	p := &parser{tokens: tokens}
	n, ok := p.expr()
	if !ok || p.pos != len(tokens) {
		return nil, false
	}
	return n, true
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) expr() (node, bool) {
	left, ok := p.term()
	if !ok {
		return nil, false
	}
	for {
		t, more := p.peek()
		if !more || t.Type != TokenOperator || (t.Operator != '+' && t.Operator != '-') {
			return left, true
		}
		p.pos++
		right, ok := p.term()
		if !ok {
			return nil, false
		}
		left = binaryNode{op: t.Operator, left: left, right: right}
	}
}

func (p *parser) term() (node, bool) {
	left, ok := p.factor()
	if !ok {
		return nil, false
	}
	for {
		t, more := p.peek()
		if !more {
			return left, true
		}
		switch {
		case t.Type == TokenPercentage:
			p.pos++
			left = binaryNode{op: '*', left: left, right: numberNode(t.Number / 100)}
		case t.Type == TokenOperator && (t.Operator == '*' || t.Operator == '/'):
			p.pos++
			right, ok := p.factor()
			if !ok {
				return nil, false
			}
			left = binaryNode{op: t.Operator, left: left, right: right}
		default:
			return left, true
		}
	}
}

func (p *parser) factor() (node, bool) {
	t, more := p.peek()
	if !more {
		return nil, false
	}
	switch t.Type {
	case TokenOperator:
		if t.Operator != '+' && t.Operator != '-' {
			return nil, false
		}
		p.pos++
		x, ok := p.factor()
		if !ok {
			return nil, false
		}
		if t.Operator == '-' {
			return negNode{x: x}, true
		}
		return x, true
	case TokenOpenBracket:
		p.pos++
		x, ok := p.expr()
		if !ok {
			return nil, false
		}
		if c, more := p.peek(); !more || c.Type != TokenCloseBracket {
			return nil, false
		}
		p.pos++
		return x, true
	case TokenInstrument:
		p.pos++
		return instrumentNode(t.Instrument), true
	case TokenFixedValue:
		p.pos++
		return numberNode(t.Number), true
	case TokenPercentage:
		p.pos++
		return numberNode(t.Number / 100), true
	default:
		return nil, false
	}
}
