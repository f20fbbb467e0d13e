package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

func money(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCalculate_FixedIgnoresConfiguration(t *testing.T) {
	p := &catalog.Product{ID: "p1", Name: "Mug", PricingType: catalog.PricingFixed, BasePrice: dec("12.5"), Unit: "piece"}

	for _, cfg := range []catalog.Configuration{
		nil,
		{},
		{"width": catalog.Number(10), "color": catalog.Text("red"), "junk": catalog.Bool(true)},
	} {
		result := Calculate(p, cfg, 1)
		money(t, "unitPrice", result.UnitPrice, "12.50")
		money(t, "totalPrice", result.TotalPrice, "12.50")
		if len(result.Errors) != 0 {
			t.Fatalf("expected no errors, got %v", result.Errors)
		}
	}
}

func TestCalculate_FixedUsesCostPrice(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingFixed, BasePrice: dec("10"), CostPrice: decPtr("6")}

	result := Calculate(p, nil, 4)

	money(t, "unitCost", result.UnitCost, "6")
	money(t, "totalPrice", result.TotalPrice, "40")
	money(t, "totalCost", result.TotalCost, "24")
	money(t, "margin", result.Margin, "16")
	money(t, "marginPercent", result.MarginPercent, "40")
}

func TestCalculate_FormulaWidthTimesHeight(t *testing.T) {
	p := &catalog.Product{
		PricingType:        catalog.PricingCalculated,
		BasePrice:          dec("10"),
		CalculationFormula: "width * height * basePrice",
	}

	result := Calculate(p, catalog.Configuration{"width": catalog.Number(2), "height": catalog.Number(3)}, 1)

	money(t, "unitPrice", result.UnitPrice, "60.00")
	money(t, "totalPrice", result.TotalPrice, "60.00")
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestCalculate_FormulaUnboundVariableFallsBack(t *testing.T) {
	p := &catalog.Product{
		PricingType:        catalog.PricingCalculated,
		BasePrice:          dec("25"),
		CalculationFormula: "depth * basePrice",
	}

	result := Calculate(p, catalog.Configuration{"width": catalog.Number(2)}, 1)

	money(t, "unitPrice", result.UnitPrice, "25")
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Calculation error: ") {
		t.Fatalf("expected one calculation error, got %v", result.Errors)
	}
}

func TestCalculate_FormulaMissingConfiguredVariableFallsBack(t *testing.T) {
	p := &catalog.Product{
		PricingType:        catalog.PricingCalculated,
		BasePrice:          dec("8"),
		CostPrice:          decPtr("3"),
		CalculationFormula: "length * basePrice",
	}

	result := Calculate(p, nil, 2)

	money(t, "unitPrice", result.UnitPrice, "8")
	money(t, "unitCost", result.UnitCost, "3")
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], `"length"`) {
		t.Fatalf("expected error naming length, got %v", result.Errors)
	}
}

func TestCalculate_FormulaDivisionByZeroFallsBack(t *testing.T) {
	p := &catalog.Product{
		PricingType:        catalog.PricingCalculated,
		BasePrice:          dec("5"),
		CalculationFormula: "basePrice / (width - 2)",
	}

	result := Calculate(p, catalog.Configuration{"width": catalog.Number(2)}, 1)

	money(t, "unitPrice", result.UnitPrice, "5")
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
}

func TestCalculate_CalculatedWithoutFormulaFallsBack(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingCalculated, BasePrice: dec("7")}

	result := Calculate(p, nil, 1)

	money(t, "unitPrice", result.UnitPrice, "7")
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
}

func TestCalculate_FormulaUsesDimensionAttribute(t *testing.T) {
	p := &catalog.Product{
		PricingType:        catalog.PricingCalculated,
		BasePrice:          dec("4"),
		CalculationFormula: "width * height * basePrice",
		Attributes:         []catalog.Attribute{{Name: "Size", Type: catalog.AttributeDimension}},
	}

	result := Calculate(p, catalog.Configuration{"size": catalog.Dim(1.5, 2)}, 1)

	money(t, "unitPrice", result.UnitPrice, "12")
}

func TestCalculate_VariantBasedScenario(t *testing.T) {
	p := &catalog.Product{
		PricingType: catalog.PricingVariantBased,
		BasePrice:   dec("100"),
		Variants: []catalog.Variant{
			{ID: "v1", Configuration: catalog.Configuration{"color": catalog.Text("red")}, Price: decPtr("120"), IsActive: true},
			{ID: "v2", Configuration: catalog.Configuration{"color": catalog.Text("blue")}, Price: decPtr("110"), IsActive: true},
		},
	}

	result := Calculate(p, catalog.Configuration{"color": catalog.Text("blue")}, 3)

	money(t, "unitPrice", result.UnitPrice, "110.00")
	money(t, "totalPrice", result.TotalPrice, "330.00")
}

func TestCalculate_VariantBasedNoMatchIsNotAnError(t *testing.T) {
	p := &catalog.Product{
		PricingType: catalog.PricingVariantBased,
		BasePrice:   dec("100"),
		CostPrice:   decPtr("50"),
		Variants: []catalog.Variant{
			{Configuration: catalog.Configuration{"color": catalog.Text("red")}, Price: decPtr("120"), IsActive: true},
		},
	}

	result := Calculate(p, catalog.Configuration{"color": catalog.Text("green")}, 1)

	money(t, "unitPrice", result.UnitPrice, "100")
	money(t, "unitCost", result.UnitCost, "50")
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestCalculate_VariantCostFallsBackToProductCost(t *testing.T) {
	p := &catalog.Product{
		PricingType: catalog.PricingVariantBased,
		BasePrice:   dec("100"),
		CostPrice:   decPtr("40"),
		Variants: []catalog.Variant{
			{Configuration: catalog.Configuration{"color": catalog.Text("red")}, IsActive: true},
		},
	}

	result := Calculate(p, catalog.Configuration{"color": catalog.Text("red")}, 1)

	money(t, "unitPrice", result.UnitPrice, "100")
	money(t, "unitCost", result.UnitCost, "40")
}

func TestCalculate_PerUnitPrefersQuantityOverArea(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingPerUnit, BasePrice: dec("3"), CostPrice: decPtr("1")}

	both := Calculate(p, catalog.Configuration{"quantity": catalog.Number(4), "area": catalog.Number(10)}, 1)
	money(t, "quantity unitPrice", both.UnitPrice, "12")
	money(t, "quantity unitCost", both.UnitCost, "4")

	areaOnly := Calculate(p, catalog.Configuration{"area": catalog.Text("2.5")}, 1)
	money(t, "area unitPrice", areaOnly.UnitPrice, "7.50")

	neither := Calculate(p, nil, 1)
	money(t, "default unitPrice", neither.UnitPrice, "3")
}

func TestCalculate_PerUnitSkipsNonFiniteValues(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingPerUnit, BasePrice: dec("10"), CostPrice: decPtr("4")}

	for _, s := range []string{"NaN", "Inf", "-infinity", "+Inf"} {
		result := Calculate(p, catalog.Configuration{"quantity": catalog.Text(s)}, 2)
		money(t, s+" unitPrice", result.UnitPrice, "10")
		money(t, s+" totalPrice", result.TotalPrice, "20")
		money(t, s+" totalCost", result.TotalCost, "8")
		if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "quantity") {
			t.Fatalf("%s: expected one warning naming quantity, got %v", s, result.Errors)
		}
	}

	withArea := Calculate(p, catalog.Configuration{"quantity": catalog.Text("NaN"), "area": catalog.Number(3)}, 1)
	money(t, "area fallback unitPrice", withArea.UnitPrice, "30")
	if len(withArea.Errors) != 1 {
		t.Fatalf("expected invalid quantity warning, got %v", withArea.Errors)
	}
}

func TestCalculate_ModifiersAreAdded(t *testing.T) {
	p := &catalog.Product{
		PricingType: catalog.PricingFixed,
		BasePrice:   dec("20"),
		CostPrice:   decPtr("10"),
		Attributes: []catalog.Attribute{
			{Name: "Color", Type: catalog.AttributeSelect, Options: []catalog.Option{
				{Value: "red", PriceModifier: dec("5"), CostModifier: dec("2"), IsActive: true},
			}},
			{Name: "Size", Type: catalog.AttributeSelect, Options: []catalog.Option{
				{Value: "L", PriceModifier: dec("10"), CostModifier: dec("4"), IsActive: true},
			}},
		},
	}

	result := Calculate(p, catalog.Configuration{"color": catalog.Text("red"), "size": catalog.Text("L")}, 2)

	money(t, "unitPrice", result.UnitPrice, "35")
	money(t, "unitCost", result.UnitCost, "16")
	money(t, "totalPrice", result.TotalPrice, "70")
	money(t, "margin", result.Margin, "38")
}

func TestCalculate_MissingRequiredStillPrices(t *testing.T) {
	p := &catalog.Product{
		PricingType: catalog.PricingFixed,
		BasePrice:   dec("9.99"),
		Attributes: []catalog.Attribute{
			{Name: "Color", IsRequired: true},
			{Name: "Finish", IsRequired: false},
			{Name: "Size", IsRequired: true},
			{Name: "Engraving", IsRequired: true},
		},
	}

	result := Calculate(p, catalog.Configuration{"engraving": catalog.Text("JD"), "size": catalog.Text("")}, 1)

	money(t, "unitPrice", result.UnitPrice, "9.99")
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one warning, got %v", result.Errors)
	}
	if result.Errors[0] != "Missing required attributes: Color, Size" {
		t.Fatalf("unexpected warning %q", result.Errors[0])
	}
}

func TestCalculate_RoundsUnitAndTotalIndependently(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingFixed, BasePrice: dec("0.333")}

	result := Calculate(p, nil, 3)

	money(t, "unitPrice", result.UnitPrice, "0.33")
	money(t, "totalPrice", result.TotalPrice, "1.00")
}

func TestCalculate_RoundsHalfAwayFromZero(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingFixed, BasePrice: dec("2.345")}

	result := Calculate(p, nil, 1)

	money(t, "unitPrice", result.UnitPrice, "2.35")
}

func TestCalculate_FractionalQuantity(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingFixed, BasePrice: dec("4.20"), Unit: "sqft"}

	result := Calculate(p, nil, 12.5)

	money(t, "totalPrice", result.TotalPrice, "52.50")
	if result.Unit != "sqft" {
		t.Fatalf("unit = %q, want sqft", result.Unit)
	}
}

func TestCalculate_MarginLaw(t *testing.T) {
	p := &catalog.Product{PricingType: catalog.PricingFixed, BasePrice: dec("19.99"), CostPrice: decPtr("7.13")}

	for _, qty := range []float64{0, 1, 3, 7.5} {
		result := Calculate(p, nil, qty)

		if !result.Margin.Equal(result.TotalPrice.Sub(result.TotalCost)) {
			t.Fatalf("qty=%v margin %s != %s - %s", qty, result.Margin, result.TotalPrice, result.TotalCost)
		}
		if result.TotalPrice.IsZero() {
			money(t, "marginPercent at zero price", result.MarginPercent, "0")
			continue
		}
		want := result.Margin.Div(result.TotalPrice).Mul(decimal.NewFromInt(100)).Round(2)
		if !result.MarginPercent.Equal(want) {
			t.Fatalf("qty=%v marginPercent = %s, want %s", qty, result.MarginPercent, want)
		}
		if result.TotalPrice.Exponent() < -2 || result.UnitPrice.Exponent() < -2 {
			t.Fatalf("qty=%v amounts carry more than two places: %s %s", qty, result.UnitPrice, result.TotalPrice)
		}
	}
}

func TestCalculate_EchoesProductAndConfiguration(t *testing.T) {
	p := &catalog.Product{ID: "abc", Name: "Banner", PricingType: catalog.PricingFixed, BasePrice: dec("1"), DefaultTaxRate: dec("19"), Unit: "piece"}
	cfg := catalog.Configuration{"note": catalog.Text("keep me")}

	result := Calculate(p, cfg, 2)

	if result.ProductID != "abc" || result.ProductName != "Banner" || result.Quantity != 2 {
		t.Fatalf("unexpected identity fields: %+v", result)
	}
	money(t, "taxRate", result.TaxRate, "19")
	if v := result.Configuration["note"]; !v.Equal(catalog.Text("keep me")) {
		t.Fatalf("configuration not echoed: %+v", result.Configuration)
	}
}

func TestCalculate_PanicsOnNilProduct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Calculate(nil, nil, 1)
}
