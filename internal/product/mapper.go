package product

import (
	"strings"
)

// Relationship is the paper-trade relationship type of an instrument code.
type Relationship string

const (
	FP     Relationship = "FP"
	DIFF   Relationship = "DIFF"
	SPREAD Relationship = "SPREAD"
)

// Descriptor is the parsed form of a paper instrument code.
// FP descriptors have no opposite; DIFF and SPREAD always carry one.
type Descriptor struct {
	Base         Canonical
	Opposite     Canonical
	HasOpposite  bool
	Relationship Relationship
}

// Mapper canonicalizes raw product and instrument names. It is the only
// place map keys for aggregation are produced, so every component goes
// through it before touching a per-product map.
type Mapper struct {
	vocab       Vocabulary
	aliases     map[string]Canonical
	pricingOnly map[Canonical]bool
	marker      string
}

// NewMapper indexes the vocabulary for case-insensitive lookups.
func NewMapper(v Vocabulary) *Mapper {
	m := &Mapper{
		vocab:       v,
		aliases:     make(map[string]Canonical),
		pricingOnly: make(map[Canonical]bool),
		marker:      strings.ToUpper(strings.TrimSpace(v.BiodieselMarker)),
	}
	for _, e := range v.Entries {
		m.aliases[normalize(string(e.Canonical))] = e.Canonical
		for _, a := range e.Aliases {
			m.aliases[normalize(a)] = e.Canonical
		}
		if e.PricingOnly {
			m.pricingOnly[e.Canonical] = true
		}
	}
	return m
}

// Vocabulary returns the vocabulary the mapper was built from.
func (m *Mapper) Vocabulary() Vocabulary { return m.vocab }

// Products lists the vocabulary's canonical products.
func (m *Mapper) Products() []Canonical { return m.vocab.Products() }

// Canonical maps a raw name onto the vocabulary. Unknown names pass through
// normalized (trimmed, whitespace collapsed, upper-cased); blank names map
// to Unknown. It never fails.
func (m *Mapper) Canonical(raw string) Canonical {
	key := normalize(raw)
	if key == "" {
		return Unknown
	}
	if c, ok := m.aliases[key]; ok {
		return c
	}
	return Canonical(key)
}

// IsBiodiesel reports whether p is a biodiesel grade: its name contains the
// configured marker (case-insensitive).
func (m *Mapper) IsBiodiesel(p Canonical) bool {
	if m.marker == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(string(p)), m.marker)
}

// IsPricingOnly reports whether p is flagged as a pure pricing instrument
// whose net exposure is carried by its pricing figure alone.
func (m *Mapper) IsPricingOnly(p Canonical) bool {
	return m.pricingOnly[p]
}

// ParsePaperInstrument splits a composite paper code into base and opposite
// products.
//
// Accepted shapes (case-insensitive):
//   - "UCOME"                 → FP on UCOME
//   - "UCOME FP"              → FP on UCOME
//   - "UCOME/FAME0"           → DIFF UCOME against FAME0
//   - "RME VS FAME0 SPREAD"   → SPREAD RME against FAME0
//   - "UCOME DIFF"            → DIFF UCOME against the vocabulary's DiffReference
//
// A single-sided DIFF/SPREAD code with no configured reference degrades to FP.
func (m *Mapper) ParsePaperInstrument(raw string) Descriptor {
	code := normalize(raw)
	rel, code := splitRelationship(code)

	left, right, paired := splitPair(code)
	if paired {
		if rel != SPREAD {
			rel = DIFF
		}
		return Descriptor{
			Base:         m.Canonical(left),
			Opposite:     m.Canonical(right),
			HasOpposite:  true,
			Relationship: rel,
		}
	}

	base := m.Canonical(code)
	if (rel == DIFF || rel == SPREAD) && m.vocab.DiffReference != "" && base != m.vocab.DiffReference {
		return Descriptor{
			Base:         base,
			Opposite:     m.vocab.DiffReference,
			HasOpposite:  true,
			Relationship: rel,
		}
	}
	return Descriptor{Base: base, Relationship: FP}
}

func splitRelationship(code string) (Relationship, string) {
	for _, rel := range []Relationship{SPREAD, DIFF, FP} {
		suffix := " " + string(rel)
		if strings.HasSuffix(code, suffix) {
			return rel, strings.TrimSpace(strings.TrimSuffix(code, suffix))
		}
	}
	return "", code
}

func splitPair(code string) (string, string, bool) {
	for _, sep := range []string{"/", " VS ", " VS. "} {
		if i := strings.Index(code, sep); i > 0 {
			left := strings.TrimSpace(code[:i])
			right := strings.TrimSpace(code[i+len(sep):])
			if left != "" && right != "" {
				return left, right, true
			}
		}
	}
	return "", "", false
}

func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
