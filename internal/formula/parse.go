package formula

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// Canonicalizer maps raw instrument names onto canonical products.
// *product.Mapper satisfies it.
type Canonicalizer interface {
	Canonical(raw string) product.Canonical
}

type rawToken struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type rawExposures struct {
	Physical map[string]any `json:"physical"`
	Pricing  map[string]any `json:"pricing"`
}

type rawFormula struct {
	Tokens                   []rawToken                `json:"tokens"`
	Exposures                *rawExposures             `json:"exposures"`
	MonthlyDistribution      map[string]map[string]any `json:"monthlyDistribution"`
	MonthlyDistributionSnake map[string]map[string]any `json:"monthly_distribution"`
}

// Parse validates a persisted formula payload. Malformed JSON, unknown
// token types, unparsable numbers and token sequences that do not form an
// infix expression all yield the Empty sentinel. A nil canonicalizer maps
// instruments through an empty vocabulary (pass-through normalization).
func Parse(raw []byte, c Canonicalizer) PricingFormula {
	f, _ := Decode(raw, c)
	return f
}

// Decode is Parse that also reports whether raw was well-formed. Blank and
// JSON null payloads are well-formed: they simply carry no formula.
func Decode(raw []byte, c Canonicalizer) (PricingFormula, bool) {
	if isBlankPayload(raw) {
		return Empty(), true
	}
	f, ok := parse(raw, c)
	if !ok {
		return Empty(), false
	}
	return f, true
}

// ParseExposures decodes a bare {"physical": {...}, "pricing": {...}} map,
// as stored on paper legs. ok is false for blank or malformed payloads.
func ParseExposures(raw []byte, c Canonicalizer) (Exposures, bool) {
	if c == nil {
		c = product.NewMapper(product.Vocabulary{})
	}
	if isBlankPayload(raw) {
		return Exposures{}, false
	}
	var re rawExposures
	if err := json.Unmarshal(raw, &re); err != nil {
		return Exposures{}, false
	}
	x := Exposures{Physical: weights(re.Physical, c), Pricing: weights(re.Pricing, c)}
	return x, !x.IsEmpty()
}

func parse(raw []byte, c Canonicalizer) (PricingFormula, bool) {
	if c == nil {
		c = product.NewMapper(product.Vocabulary{})
	}
	if isBlankPayload(raw) {
		return Empty(), false
	}

	var rf rawFormula
	if err := json.Unmarshal(raw, &rf); err != nil {
		return Empty(), false
	}

	tokens := make([]Token, 0, len(rf.Tokens))
	for _, rt := range rf.Tokens {
		t, ok := convertToken(rt, c)
		if !ok {
			return Empty(), false
		}
		tokens = append(tokens, t)
	}

	f := PricingFormula{Tokens: tokens}
	if len(tokens) > 0 {
		expr, ok := compile(tokens)
		if !ok {
			return Empty(), false
		}
		f.expr = expr
	}

	if rf.Exposures != nil {
		f.Exposures = Exposures{
			Physical: weights(rf.Exposures.Physical, c),
			Pricing:  weights(rf.Exposures.Pricing, c),
		}
	}

	dist := rf.MonthlyDistribution
	if len(dist) == 0 {
		dist = rf.MonthlyDistributionSnake
	}
	f.MonthlyDistribution = distribution(dist, c)
	return f, true
}

func isBlankPayload(raw []byte) bool {
	t := strings.TrimSpace(string(raw))
	return t == "" || t == "null"
}

func convertToken(rt rawToken, c Canonicalizer) (Token, bool) {
	switch TokenType(rt.Type) {
	case TokenInstrument:
		name, ok := rt.Value.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return Token{}, false
		}
		return Token{Type: TokenInstrument, Instrument: c.Canonical(name)}, true
	case TokenFixedValue, TokenPercentage:
		n, ok := number(rt.Value)
		if !ok {
			return Token{}, false
		}
		return Token{Type: TokenType(rt.Type), Number: n}, true
	case TokenOperator:
		s, _ := rt.Value.(string)
		op, ok := operator(s)
		if !ok {
			return Token{}, false
		}
		return Token{Type: TokenOperator, Operator: op}, true
	case TokenOpenBracket:
		return Token{Type: TokenOpenBracket}, true
	case TokenCloseBracket:
		return Token{Type: TokenCloseBracket}, true
	default:
		return Token{}, false
	}
}

func operator(s string) (byte, bool) {
	switch strings.TrimSpace(s) {
	case "+":
		return '+', true
	case "-", "−":
		return '-', true
	case "*", "x", "X", "×":
		return '*', true
	case "/", "÷":
		return '/', true
	default:
		return 0, false
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "%")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// weights canonicalizes a raw instrument→weight map; entries whose weight
// is not numeric are dropped and keys that canonicalize together are summed.
func weights(raw map[string]any, c Canonicalizer) map[product.Canonical]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[product.Canonical]float64, len(raw))
	for k, v := range raw {
		n, ok := number(v)
		if !ok {
			continue
		}
		out[c.Canonical(k)] += n
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func distribution(raw map[string]map[string]any, c Canonicalizer) Distribution {
	if len(raw) == 0 {
		return nil
	}
	out := make(Distribution, len(raw))
	for instrument, months := range raw {
		key := c.Canonical(instrument)
		for m, v := range months {
			code, err := period.ParseMonthCode(m)
			if err != nil {
				continue
			}
			n, ok := number(v)
			if !ok {
				continue
			}
			if out[key] == nil {
				out[key] = make(map[period.MonthCode]float64)
			}
			out[key][code] += n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
