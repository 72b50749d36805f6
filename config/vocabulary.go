package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/guttosm/mtmengine/internal/product"
)

// LoadVocabulary reads the product vocabulary from a YAML file with its own
// viper instance, so it never mixes with the environment-backed global one.
// An empty path returns the built-in vocabulary.
//
// Example file:
//
//	biodiesel_marker: Argus
//	diff_reference: ICE GASOIL FUTURES
//	products:
//	  - canonical: Argus UCOME
//	    aliases: [UCOME, UCO ME]
//	  - canonical: ICE GASOIL FUTURES
//	    pricing_only: true
//	    aliases: [GASOIL, ICE GASOIL]
func LoadVocabulary(path string) (product.Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return product.DefaultVocabulary(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return product.Vocabulary{}, fmt.Errorf("read products file %s: %w", path, err)
	}

	var vocab product.Vocabulary
	if err := v.Unmarshal(&vocab); err != nil {
		return product.Vocabulary{}, fmt.Errorf("decode products file %s: %w", path, err)
	}
	if len(vocab.Entries) == 0 {
		return product.Vocabulary{}, fmt.Errorf("products file %s declares no products", path)
	}

	def := product.DefaultVocabulary()
	if vocab.BiodieselMarker == "" {
		vocab.BiodieselMarker = def.BiodieselMarker
	}
	if vocab.DiffReference == "" {
		vocab.DiffReference = def.DiffReference
	}
	return vocab, nil
}

// Vocabulary loads the configured vocabulary and applies the
// BIODIESEL_MARKER override.
func (e EngineConfig) Vocabulary() (product.Vocabulary, error) {
	vocab, err := LoadVocabulary(e.ProductsFile)
	if err != nil {
		return product.Vocabulary{}, err
	}
	if m := strings.TrimSpace(e.BiodieselMarker); m != "" {
		vocab.BiodieselMarker = m
	}
	return vocab, nil
}
