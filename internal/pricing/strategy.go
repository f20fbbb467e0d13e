package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

// Base is the unit price and cost a pricing strategy derives before option modifiers.
type Base struct {
	Price decimal.Decimal
	Cost  decimal.Decimal
	// Warning is set when the strategy had to fall back to the product's base price.
	Warning string
}

// ResolveBase dispatches to the product's pricing strategy. It never fails: a strategy
// that cannot produce a price falls back to the product's base price and cost and
// reports why in Warning. Unknown pricing types are priced as fixed.
func ResolveBase(p *catalog.Product, cfg catalog.Configuration) Base {
	switch p.PricingType {
	case catalog.PricingCalculated:
		return resolveCalculated(p, cfg)
	case catalog.PricingVariantBased:
		return resolveVariant(p, cfg)
	case catalog.PricingPerUnit:
		return resolvePerUnit(p, cfg)
	default:
		return fixedBase(p)
	}
}

func fixedBase(p *catalog.Product) Base {
	return Base{Price: p.BasePrice, Cost: p.Cost()}
}

func resolveCalculated(p *catalog.Product, cfg catalog.Configuration) Base {
	if strings.TrimSpace(p.CalculationFormula) == "" {
		b := fixedBase(p)
		b.Warning = "Calculation error: product has no calculation formula"
		return b
	}

	result, err := Evaluate(p.CalculationFormula, FormulaVariables(p, cfg))
	if err != nil {
		b := fixedBase(p)
		b.Warning = "Calculation error: " + err.Error()
		return b
	}

	return Base{Price: decimal.NewFromFloat(result), Cost: p.Cost()}
}

// FormulaVariables binds the formula vocabulary from a configuration. Names with no
// numeric value in cfg stay unbound so that formulas referencing them fail.
func FormulaVariables(p *catalog.Product, cfg catalog.Configuration) map[string]float64 {
	vars := map[string]float64{
		VarBasePrice: p.BasePrice.InexactFloat64(),
	}
	for _, name := range []string{VarWidth, VarHeight, VarLength, VarArea, VarQuantity} {
		if v, ok := cfg[name]; ok {
			if f, ok := v.Float(); ok {
				vars[name] = f
			}
		}
	}

	for _, attr := range p.Attributes {
		if attr.Type != catalog.AttributeDimension {
			continue
		}
		v, ok := cfg.Lookup(attr)
		if !ok || v.Kind != catalog.KindDimension {
			continue
		}
		if _, bound := vars[VarWidth]; !bound {
			vars[VarWidth] = v.Dimension.Width
		}
		if _, bound := vars[VarHeight]; !bound {
			vars[VarHeight] = v.Dimension.Height
		}
	}

	return vars
}

func resolveVariant(p *catalog.Product, cfg catalog.Configuration) Base {
	variant, ok := FindVariant(p.Variants, cfg)
	if !ok {
		return fixedBase(p)
	}

	b := fixedBase(p)
	if variant.Price != nil {
		b.Price = *variant.Price
	}
	if variant.CostPrice != nil {
		b.Cost = *variant.CostPrice
	}
	return b
}

// resolvePerUnit multiplies the base price by the first finite numeric value of
// quantity or area. A filled-in value that is not a finite number is skipped and
// reported.
func resolvePerUnit(p *catalog.Product, cfg catalog.Configuration) Base {
	multiplier := decimal.NewFromInt(1)
	var invalid []string
	for _, key := range []string{VarQuantity, VarArea} {
		v, ok := cfg[key]
		if !ok || v.IsEmpty() {
			continue
		}
		if f, ok := v.Float(); ok {
			multiplier = decimal.NewFromFloat(f)
			break
		}
		invalid = append(invalid, fmt.Sprintf("%s %q", key, v.String()))
	}

	b := Base{
		Price: p.BasePrice.Mul(multiplier),
		Cost:  p.Cost().Mul(multiplier),
	}
	if len(invalid) > 0 {
		b.Warning = "Invalid per-unit value: " + strings.Join(invalid, ", ")
	}
	return b
}
