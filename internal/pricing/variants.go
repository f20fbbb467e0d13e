package pricing

import "github.com/Simplici0/quoteengine/internal/catalog"

// FindVariant returns the first active variant whose configuration is a subset of cfg.
// Every key of the variant's fingerprint must be present in cfg with an equal value.
// Catalog order breaks ties.
func FindVariant(variants []catalog.Variant, cfg catalog.Configuration) (catalog.Variant, bool) {
	for _, v := range variants {
		if v.IsActive && fingerprintMatches(v.Configuration, cfg) {
			return v, true
		}
	}
	return catalog.Variant{}, false
}

func fingerprintMatches(fingerprint, cfg catalog.Configuration) bool {
	for key, want := range fingerprint {
		got, ok := cfg[key]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}
