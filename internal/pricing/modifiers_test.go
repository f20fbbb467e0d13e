package pricing

import (
	"encoding/json"
	"testing"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

func colorAndSize() []catalog.Attribute {
	return []catalog.Attribute{
		{Name: "Color", Type: catalog.AttributeSelect, Options: []catalog.Option{
			{Value: "red", PriceModifier: dec("5"), CostModifier: dec("1"), IsActive: true},
			{Value: "gold", PriceModifier: dec("50"), CostModifier: dec("30"), IsActive: false},
		}},
		{Name: "Size", Type: catalog.AttributeSelect, Options: []catalog.Option{
			{Value: "S", PriceModifier: dec("-2"), IsActive: true},
			{Value: "L", PriceModifier: dec("10"), CostModifier: dec("3"), IsActive: true},
		}},
	}
}

func TestAggregateModifiers_OrderIndependent(t *testing.T) {
	attrs := colorAndSize()
	reversed := []catalog.Attribute{attrs[1], attrs[0]}
	cfg := catalog.Configuration{"color": catalog.Text("red"), "size": catalog.Text("L")}

	price, cost := AggregateModifiers(attrs, cfg)
	rPrice, rCost := AggregateModifiers(reversed, cfg)

	money(t, "price", price, "15")
	money(t, "cost", cost, "4")
	if !price.Equal(rPrice) || !cost.Equal(rCost) {
		t.Fatalf("order changed result: %s/%s vs %s/%s", price, cost, rPrice, rCost)
	}
}

func TestAggregateModifiers_NegativeModifier(t *testing.T) {
	price, _ := AggregateModifiers(colorAndSize(), catalog.Configuration{"size": catalog.Text("S")})
	money(t, "price", price, "-2")
}

func TestAggregateModifiers_IgnoresInactiveAndUnmatched(t *testing.T) {
	price, cost := AggregateModifiers(colorAndSize(), catalog.Configuration{
		"color": catalog.Text("gold"),
		"size":  catalog.Text("XL"),
		"other": catalog.Text("red"),
	})

	money(t, "price", price, "0")
	money(t, "cost", cost, "0")
}

func TestAggregateModifiers_NoCoercionAcrossKinds(t *testing.T) {
	attrs := []catalog.Attribute{
		{Name: "Sheets", Type: catalog.AttributeSelect, Options: []catalog.Option{
			{Value: "5", PriceModifier: dec("1"), IsActive: true},
		}},
	}

	price, _ := AggregateModifiers(attrs, catalog.Configuration{"sheets": catalog.Number(5)})
	money(t, "number selection", price, "0")

	price, _ = AggregateModifiers(attrs, catalog.Configuration{"sheets": catalog.Text("5")})
	money(t, "text selection", price, "1")
}

func TestAggregateModifiers_MultiSelectSumsEachSelected(t *testing.T) {
	attrs := []catalog.Attribute{
		{Name: "Extras", Type: catalog.AttributeMultiSelect, Options: []catalog.Option{
			{Value: "gift-wrap", PriceModifier: dec("3"), CostModifier: dec("1"), IsActive: true},
			{Value: "card", PriceModifier: dec("1.5"), IsActive: true},
			{Value: "rush", PriceModifier: dec("20"), IsActive: false},
		}},
	}

	price, cost := AggregateModifiers(attrs, catalog.Configuration{"extras": catalog.List("gift-wrap", "card", "rush")})

	money(t, "price", price, "4.5")
	money(t, "cost", cost, "1")
}

func TestAggregateModifiers_MatchesLowerCasedName(t *testing.T) {
	price, _ := AggregateModifiers(colorAndSize(), catalog.Configuration{"Color": catalog.Text("red")})
	money(t, "mixed-case key", price, "0")
}

func TestAggregateModifiers_NumericListDoesNotMatchTextOption(t *testing.T) {
	attrs := []catalog.Attribute{{Name: "Extras", Type: catalog.AttributeMultiSelect, Options: []catalog.Option{
		{Value: "5", PriceModifier: dec("3"), IsActive: true},
	}}}

	var cfg catalog.Configuration
	if err := json.Unmarshal([]byte(`{"extras":[5]}`), &cfg); err == nil {
		price, _ := AggregateModifiers(attrs, cfg)
		t.Fatalf("numeric list decoded and priced at %s", price)
	}

	price, _ := AggregateModifiers(attrs, catalog.Configuration{"extras": catalog.Number(5)})
	money(t, "number price", price, "0")

	price, _ = AggregateModifiers(attrs, catalog.Configuration{"extras": catalog.List("5")})
	money(t, "text price", price, "3")
}
