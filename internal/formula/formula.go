// Package formula models symbolic pricing formulas attached to trade legs.
//
// Persisted formulas are loosely typed JSON documents. They are validated
// once, at Parse, into a closed PricingFormula whose token sequence has been
// compiled into an expression tree; malformed payloads collapse to the empty
// sentinel so one corrupt formula never stops aggregation of the rest of a book.
package formula

import (
	"strings"

	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// TokenType enumerates the symbolic terms a formula can hold.
type TokenType string

const (
	TokenInstrument   TokenType = "instrument"
	TokenFixedValue   TokenType = "fixedValue"
	TokenPercentage   TokenType = "percentage"
	TokenOperator     TokenType = "operator"
	TokenOpenBracket  TokenType = "openBracket"
	TokenCloseBracket TokenType = "closeBracket"
)

// Token is one symbolic term. Instrument tokens carry a canonical product;
// numeric tokens carry their parsed number.
type Token struct {
	Type       TokenType
	Instrument product.Canonical
	Number     float64
	Operator   byte
}

// Exposures is the declared per-category weight of each instrument.
type Exposures struct {
	Physical map[product.Canonical]float64
	Pricing  map[product.Canonical]float64
}

// HasPhysical reports whether any physical weight is declared.
func (e Exposures) HasPhysical() bool { return len(e.Physical) > 0 }

// HasPricing reports whether any pricing weight is declared.
func (e Exposures) HasPricing() bool { return len(e.Pricing) > 0 }

// IsEmpty reports whether neither category declares anything.
func (e Exposures) IsEmpty() bool { return !e.HasPhysical() && !e.HasPricing() }

// Distribution is an explicit per-instrument, per-month weight table.
type Distribution map[product.Canonical]map[period.MonthCode]float64

// PricingFormula is a parsed, validated pricing formula.
//
// Invariants:
//   - Tokens, when non-empty, always form a valid infix expression (expr is set).
//   - A formula with no tokens is the "no formula" sentinel.
//   - MonthlyDistribution, when present for an instrument, is authoritative over
//     Exposures for that instrument and is never renormalized.
type PricingFormula struct {
	Tokens              []Token
	Exposures           Exposures
	MonthlyDistribution Distribution

	expr node
}

// Empty returns the "no formula" sentinel.
func Empty() PricingFormula { return PricingFormula{} }

// IsEmpty reports whether f is the sentinel (no tokens).
func (f PricingFormula) IsEmpty() bool { return len(f.Tokens) == 0 }

// HasMonthlyDistribution reports whether an explicit distribution is present.
func (f PricingFormula) HasMonthlyDistribution() bool { return len(f.MonthlyDistribution) > 0 }

// Instruments returns the distinct instruments referenced by the tokens, in order of appearance.
func (f PricingFormula) Instruments() []product.Canonical {
	seen := make(map[product.Canonical]bool)
	var out []product.Canonical
	for _, t := range f.Tokens {
		if t.Type == TokenInstrument && !seen[t.Instrument] {
			seen[t.Instrument] = true
			out = append(out, t.Instrument)
		}
	}
	return out
}

// String renders the formula as an infix expression, e.g. "Argus UCOME + 15".
func (f PricingFormula) String() string {
	parts := make([]string, 0, len(f.Tokens))
	for _, t := range f.Tokens {
		switch t.Type {
		case TokenInstrument:
			parts = append(parts, string(t.Instrument))
		case TokenFixedValue:
			parts = append(parts, formatNumber(t.Number))
		case TokenPercentage:
			parts = append(parts, formatNumber(t.Number)+"%")
		case TokenOperator:
			parts = append(parts, string(t.Operator))
		case TokenOpenBracket:
			parts = append(parts, "(")
		case TokenCloseBracket:
			parts = append(parts, ")")
		}
	}
	s := strings.Join(parts, " ")
	s = strings.ReplaceAll(s, "( ", "(")
	return strings.ReplaceAll(s, " )", ")")
}
