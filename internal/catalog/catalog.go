package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductType classifies how a product is presented to the buyer.
type ProductType string

const (
	ProductSimple       ProductType = "simple"
	ProductConfigurable ProductType = "configurable"
	ProductCalculated   ProductType = "calculated"
)

// PricingType selects the strategy used to derive the base unit price.
type PricingType string

const (
	PricingFixed        PricingType = "fixed"
	PricingPerUnit      PricingType = "per_unit"
	PricingCalculated   PricingType = "calculated"
	PricingVariantBased PricingType = "variant_based"
)

// AttributeType is the input kind of a product attribute.
type AttributeType string

const (
	AttributeText        AttributeType = "text"
	AttributeNumber      AttributeType = "number"
	AttributeSelect      AttributeType = "select"
	AttributeMultiSelect AttributeType = "multiselect"
	AttributeDimension   AttributeType = "dimension"
	AttributeBoolean     AttributeType = "boolean"
)

// Product is a catalog entry together with its attributes and variants.
type Product struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	SKU                string           `json:"sku,omitempty"`
	Category           string           `json:"category,omitempty"`
	Description        string           `json:"description,omitempty"`
	ProductType        ProductType      `json:"productType"`
	PricingType        PricingType      `json:"pricingType"`
	BasePrice          decimal.Decimal  `json:"basePrice"`
	CostPrice          *decimal.Decimal `json:"costPrice,omitempty"`
	CalculationFormula string           `json:"calculationFormula,omitempty"`
	Unit               string           `json:"unit"`
	DefaultTaxRate     decimal.Decimal  `json:"defaultTaxRate"`
	Attributes         []Attribute      `json:"attributes"`
	Variants           []Variant        `json:"variants"`
}

// Attribute is a configurable property of a product.
type Attribute struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           AttributeType    `json:"type"`
	IsRequired     bool             `json:"isRequired"`
	IsConfigurable bool             `json:"isConfigurable"`
	MinValue       *decimal.Decimal `json:"minValue,omitempty"`
	MaxValue       *decimal.Decimal `json:"maxValue,omitempty"`
	DefaultValue   string           `json:"defaultValue,omitempty"`
	Unit           string           `json:"unit,omitempty"`
	Options        []Option         `json:"options"`
}

// Key is the configuration key the attribute is looked up by.
func (a Attribute) Key() string {
	return strings.ToLower(a.Name)
}

// Option is one selectable value of a select or multiselect attribute.
type Option struct {
	ID            string          `json:"id"`
	Value         string          `json:"value"`
	DisplayName   string          `json:"displayName"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
	CostModifier  decimal.Decimal `json:"costModifier"`
	IsActive      bool            `json:"isActive"`
	SortOrder     int             `json:"sortOrder"`
}

// Variant is a pre-priced combination of attribute selections.
type Variant struct {
	ID            string           `json:"id"`
	SKU           string           `json:"sku,omitempty"`
	Name          string           `json:"name,omitempty"`
	Configuration Configuration    `json:"configuration"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	CostPrice     *decimal.Decimal `json:"costPrice,omitempty"`
	IsActive      bool             `json:"isActive"`
}

// Cost returns the product cost price, or zero when none is recorded.
func (p *Product) Cost() decimal.Decimal {
	if p.CostPrice == nil {
		return decimal.Zero
	}
	return *p.CostPrice
}

var (
	ErrInvalidProduct = errors.New("invalid product")

	hundred = decimal.NewFromInt(100)
)

// Validate checks the invariants a product must hold before it is written to the catalog.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("%w: basePrice must be >= 0", ErrInvalidProduct)
	}
	if p.DefaultTaxRate.IsNegative() || p.DefaultTaxRate.GreaterThan(hundred) {
		return fmt.Errorf("%w: defaultTaxRate must be between 0 and 100", ErrInvalidProduct)
	}

	switch p.ProductType {
	case ProductSimple, ProductConfigurable, ProductCalculated:
	default:
		return fmt.Errorf("%w: unknown productType %q", ErrInvalidProduct, p.ProductType)
	}

	switch p.PricingType {
	case PricingFixed, PricingPerUnit, PricingVariantBased:
	case PricingCalculated:
		if strings.TrimSpace(p.CalculationFormula) == "" {
			return fmt.Errorf("%w: calculationFormula is required for calculated pricing", ErrInvalidProduct)
		}
	default:
		return fmt.Errorf("%w: unknown pricingType %q", ErrInvalidProduct, p.PricingType)
	}

	seen := make(map[string]bool, len(p.Attributes))
	for _, attr := range p.Attributes {
		if strings.TrimSpace(attr.Name) == "" {
			return fmt.Errorf("%w: attribute name is required", ErrInvalidProduct)
		}
		if seen[attr.Key()] {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidProduct, attr.Name)
		}
		seen[attr.Key()] = true

		switch attr.Type {
		case AttributeText, AttributeNumber, AttributeSelect, AttributeMultiSelect, AttributeDimension, AttributeBoolean:
		default:
			return fmt.Errorf("%w: attribute %q has unknown type %q", ErrInvalidProduct, attr.Name, attr.Type)
		}
		if attr.MinValue != nil && attr.MaxValue != nil && attr.MinValue.GreaterThan(*attr.MaxValue) {
			return fmt.Errorf("%w: attribute %q has minValue greater than maxValue", ErrInvalidProduct, attr.Name)
		}
	}

	return nil
}
