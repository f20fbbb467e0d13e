package pricing

import (
	"testing"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

func TestFindVariant_FirstMatchWins(t *testing.T) {
	variants := []catalog.Variant{
		{ID: "inactive", Configuration: catalog.Configuration{"color": catalog.Text("red")}, IsActive: false},
		{ID: "red", Configuration: catalog.Configuration{"color": catalog.Text("red")}, IsActive: true},
		{ID: "red-large", Configuration: catalog.Configuration{"color": catalog.Text("red"), "size": catalog.Text("L")}, IsActive: true},
	}
	cfg := catalog.Configuration{"color": catalog.Text("red"), "size": catalog.Text("L")}

	for i := 0; i < 10; i++ {
		v, ok := FindVariant(variants, cfg)
		if !ok || v.ID != "red" {
			t.Fatalf("iteration %d: got %q (found=%v), want red", i, v.ID, ok)
		}
	}
}

func TestFindVariant_FingerprintMustBeSubset(t *testing.T) {
	variants := []catalog.Variant{
		{ID: "red-large", Configuration: catalog.Configuration{"color": catalog.Text("red"), "size": catalog.Text("L")}, IsActive: true},
	}

	if _, ok := FindVariant(variants, catalog.Configuration{"color": catalog.Text("red")}); ok {
		t.Fatalf("expected no match when configuration lacks a fingerprint key")
	}
	if _, ok := FindVariant(variants, catalog.Configuration{"color": catalog.Text("red"), "size": catalog.Text("M")}); ok {
		t.Fatalf("expected no match on differing value")
	}
}

func TestFindVariant_StrictEquality(t *testing.T) {
	variants := []catalog.Variant{
		{ID: "ten", Configuration: catalog.Configuration{"pages": catalog.Number(10)}, IsActive: true},
	}

	if _, ok := FindVariant(variants, catalog.Configuration{"pages": catalog.Text("10")}); ok {
		t.Fatalf("text must not match number")
	}
	if v, ok := FindVariant(variants, catalog.Configuration{"pages": catalog.Number(10)}); !ok || v.ID != "ten" {
		t.Fatalf("expected numeric match")
	}
}

func TestFindVariant_NoneActive(t *testing.T) {
	variants := []catalog.Variant{
		{Configuration: catalog.Configuration{}, IsActive: false},
	}
	if _, ok := FindVariant(variants, nil); ok {
		t.Fatalf("inactive variants must never match")
	}
}
