package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

// MoneyPlaces is the number of decimal places money amounts are rounded to.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Result is the outcome of pricing one product configuration.
// Errors carries non-fatal warnings; the amounts are always a usable best-effort price.
type Result struct {
	ProductID     string                `json:"productId"`
	ProductName   string                `json:"productName"`
	Configuration catalog.Configuration `json:"configuration"`
	Quantity      float64               `json:"quantity"`
	UnitPrice     decimal.Decimal       `json:"unitPrice"`
	UnitCost      decimal.Decimal       `json:"unitCost"`
	TotalPrice    decimal.Decimal       `json:"totalPrice"`
	TotalCost     decimal.Decimal       `json:"totalCost"`
	Margin        decimal.Decimal       `json:"margin"`
	MarginPercent decimal.Decimal       `json:"marginPercent"`
	TaxRate       decimal.Decimal       `json:"taxRate"`
	Unit          string                `json:"unit"`
	Errors        []string              `json:"errors"`
}

// Calculate prices a product for the given configuration and quantity.
//
// Unit amounts and totals are rounded half away from zero to two places. Totals are
// rounded from the unrounded unit amounts, so TotalPrice is not always UnitPrice*quantity.
// Calculate panics on a nil product.
func Calculate(p *catalog.Product, cfg catalog.Configuration, quantity float64) Result {
	if p == nil {
		panic("pricing: Calculate called with nil product")
	}

	errs := make([]string, 0)

	base := ResolveBase(p, cfg)
	if base.Warning != "" {
		errs = append(errs, base.Warning)
	}

	priceDelta, costDelta := AggregateModifiers(p.Attributes, cfg)
	unitPrice := base.Price.Add(priceDelta)
	unitCost := base.Cost.Add(costDelta)

	if missing := FindMissingRequired(p.Attributes, cfg); len(missing) > 0 {
		errs = append(errs, missingRequiredWarning(missing))
	}

	qty := decimal.NewFromFloat(quantity)
	totalPrice := unitPrice.Mul(qty).Round(MoneyPlaces)
	totalCost := unitCost.Mul(qty).Round(MoneyPlaces)
	margin := totalPrice.Sub(totalCost)

	return Result{
		ProductID:     p.ID,
		ProductName:   p.Name,
		Configuration: cfg.Clone(),
		Quantity:      quantity,
		UnitPrice:     unitPrice.Round(MoneyPlaces),
		UnitCost:      unitCost.Round(MoneyPlaces),
		TotalPrice:    totalPrice,
		TotalCost:     totalCost,
		Margin:        margin,
		MarginPercent: MarginPercent(margin, totalPrice),
		TaxRate:       p.DefaultTaxRate,
		Unit:          p.Unit,
		Errors:        errs,
	}
}

// MarginPercent returns margin as a percentage of price, or zero when price is not positive.
func MarginPercent(margin, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return margin.Div(price).Mul(hundred).Round(MoneyPlaces)
}
