package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

// AggregateModifiers sums the price and cost modifiers of every active option selected in cfg.
// Attributes compose additively; an attribute with no selection or no matching option adds zero.
func AggregateModifiers(attributes []catalog.Attribute, cfg catalog.Configuration) (priceDelta, costDelta decimal.Decimal) {
	priceDelta, costDelta = decimal.Zero, decimal.Zero

	for _, attr := range attributes {
		selected, ok := cfg.Lookup(attr)
		if !ok || len(attr.Options) == 0 {
			continue
		}

		for _, opt := range attr.Options {
			if !opt.IsActive || !selected.MatchesOption(opt.Value) {
				continue
			}
			priceDelta = priceDelta.Add(opt.PriceModifier)
			costDelta = costDelta.Add(opt.CostModifier)
			if selected.Kind != catalog.KindList {
				break
			}
		}
	}

	return priceDelta, costDelta
}
