package pricing

import (
	"strings"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

// FindMissingRequired returns the names of required attributes with no usable selection in cfg.
// Absent keys, null values, empty strings and empty lists all count as missing.
func FindMissingRequired(attributes []catalog.Attribute, cfg catalog.Configuration) []string {
	var missing []string
	for _, attr := range attributes {
		if !attr.IsRequired {
			continue
		}
		if v, ok := cfg.Lookup(attr); !ok || v.IsEmpty() {
			missing = append(missing, attr.Name)
		}
	}
	return missing
}

func missingRequiredWarning(names []string) string {
	return "Missing required attributes: " + strings.Join(names, ", ")
}
