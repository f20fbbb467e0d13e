package pricing

import (
	"slices"
	"testing"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

func TestFindMissingRequired(t *testing.T) {
	attrs := []catalog.Attribute{
		{Name: "Material", IsRequired: true},
		{Name: "Extras", IsRequired: true, Type: catalog.AttributeMultiSelect},
		{Name: "Notes"},
		{Name: "Laminated", IsRequired: true, Type: catalog.AttributeBoolean},
		{Name: "Copies", IsRequired: true, Type: catalog.AttributeNumber},
		{Name: "Finish", IsRequired: true},
	}
	cfg := catalog.Configuration{
		"material":  {Kind: catalog.KindNull},
		"extras":    catalog.List(),
		"laminated": catalog.Bool(false),
		"copies":    catalog.Number(0),
	}

	got := FindMissingRequired(attrs, cfg)
	want := []string{"Material", "Extras", "Finish"}
	if !slices.Equal(got, want) {
		t.Fatalf("FindMissingRequired = %v, want %v", got, want)
	}
}

func TestFindMissingRequired_AllPresent(t *testing.T) {
	attrs := []catalog.Attribute{{Name: "Color", IsRequired: true}}
	if got := FindMissingRequired(attrs, catalog.Configuration{"color": catalog.Text("red")}); len(got) != 0 {
		t.Fatalf("expected nothing missing, got %v", got)
	}
}
