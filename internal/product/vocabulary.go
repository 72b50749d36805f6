package product

// Canonical is a normalized product or pricing-instrument identifier.
type Canonical string

func (c Canonical) String() string { return string(c) }

// Entry declares one canonical product and the raw spellings that map to it.
type Entry struct {
	Canonical   Canonical `mapstructure:"canonical" yaml:"canonical"`
	Aliases     []string  `mapstructure:"aliases" yaml:"aliases"`
	PricingOnly bool      `mapstructure:"pricing_only" yaml:"pricing_only"`
}

// Vocabulary is the controlled product vocabulary the mapper works from.
//
// Fields:
//   - Entries: canonical products in display order.
//   - BiodieselMarker: substring marking a canonical name as a biodiesel grade.
//   - DiffReference: the opposite leg assumed by single-sided DIFF/SPREAD codes.
type Vocabulary struct {
	Entries         []Entry   `mapstructure:"products"`
	BiodieselMarker string    `mapstructure:"biodiesel_marker"`
	DiffReference   Canonical `mapstructure:"diff_reference"`
}

const (
	ArgusUCOME   Canonical = "Argus UCOME"
	ArgusFAME0   Canonical = "Argus FAME0"
	ArgusRME     Canonical = "Argus RME"
	ArgusHVO     Canonical = "Argus HVO"
	ArgusSME     Canonical = "Argus SME"
	PlattsLSGO   Canonical = "Platts LSGO"
	PlattsDiesel Canonical = "Platts Diesel"
	ICEGasoil    Canonical = "ICE GASOIL FUTURES"

	// Unknown keys legs whose product name is blank.
	Unknown Canonical = "UNKNOWN"
)

// DefaultVocabulary returns the vocabulary used when no products file is configured.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		BiodieselMarker: "Argus",
		DiffReference:   ICEGasoil,
		Entries: []Entry{
			{Canonical: ArgusUCOME, Aliases: []string{"UCOME", "UCO ME", "ARGUS UCOME", "UCOME FOB"}},
			{Canonical: ArgusFAME0, Aliases: []string{"FAME0", "FAME 0", "FAME ZERO", "ARGUS FAME0", "FAME"}},
			{Canonical: ArgusRME, Aliases: []string{"RME", "ARGUS RME", "RME DAP"}},
			{Canonical: ArgusHVO, Aliases: []string{"HVO", "ARGUS HVO", "HVO100"}},
			{Canonical: ArgusSME, Aliases: []string{"SME", "ARGUS SME", "SOYA ME"}},
			{Canonical: PlattsLSGO, Aliases: []string{"LSGO", "PLATTS LSGO", "LOW SULPHUR GASOIL"}},
			{Canonical: PlattsDiesel, Aliases: []string{"DIESEL", "PLATTS DIESEL", "ULSD"}},
			{Canonical: ICEGasoil, PricingOnly: true, Aliases: []string{
				"GASOIL", "GAS OIL", "ICE GASOIL", "ICE GAS OIL", "ICE GASOIL FUTURES", "ICE GASOIL FUTURES (EFP)", "LSGO FUTURES",
			}},
		},
	}
}

// Products lists the canonical products in vocabulary order.
func (v Vocabulary) Products() []Canonical {
	out := make([]Canonical, 0, len(v.Entries))
	for _, e := range v.Entries {
		out = append(out, e.Canonical)
	}
	return out
}
