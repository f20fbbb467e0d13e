package seed

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/quoteengine/internal/catalog"
	"github.com/Simplici0/quoteengine/internal/catalog/store"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sqlx.DB, cfg Config) (Stats, error) {
	stats := Stats{}

	if err := seedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		return Stats{}, err
	}

	products := store.New(db)
	for _, p := range demoCatalog() {
		if err := ensureProduct(ctx, db, products, p, &stats); err != nil {
			return Stats{}, err
		}
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO users (email, password_hash, role) VALUES (?, ?, 'admin')`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureProduct(ctx context.Context, db *sqlx.DB, products *store.Store, p *catalog.Product, stats *Stats) error {
	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE sku = ? LIMIT 1)`, p.SKU); err != nil {
		return fmt.Errorf("check product %s existence: %w", p.SKU, err)
	}
	if exists {
		return nil
	}

	if err := products.Create(ctx, p); err != nil {
		return fmt.Errorf("insert demo product %s: %w", p.SKU, err)
	}
	stats.Inserts++
	return nil
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func moneyPtr(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

// demoCatalog covers one product per pricing strategy.
func demoCatalog() []*catalog.Product {
	return []*catalog.Product{
		{
			Name:           "Tarjetas de presentación",
			SKU:            "DEMO-CARDS",
			Category:       "impresos",
			ProductType:    catalog.ProductConfigurable,
			PricingType:    catalog.PricingFixed,
			BasePrice:      money("45000"),
			CostPrice:      moneyPtr("18000"),
			Unit:           "paquete",
			DefaultTaxRate: money("19"),
			Attributes: []catalog.Attribute{
				{Name: "Papel", Type: catalog.AttributeSelect, IsRequired: true, IsConfigurable: true, Options: []catalog.Option{
					{Value: "propalcote", DisplayName: "Propalcote 300g", IsActive: true, SortOrder: 1},
					{Value: "kraft", DisplayName: "Kraft", PriceModifier: money("8000"), CostModifier: money("3500"), IsActive: true, SortOrder: 2},
				}},
				{Name: "Acabado", Type: catalog.AttributeMultiSelect, IsConfigurable: true, Options: []catalog.Option{
					{Value: "laminado", DisplayName: "Laminado mate", PriceModifier: money("12000"), CostModifier: money("5000"), IsActive: true, SortOrder: 1},
					{Value: "esquinas", DisplayName: "Esquinas redondeadas", PriceModifier: money("6000"), CostModifier: money("1500"), IsActive: true, SortOrder: 2},
				}},
			},
		},
		{
			Name:               "Pendón en lona",
			SKU:                "DEMO-BANNER",
			Category:           "gran formato",
			ProductType:        catalog.ProductCalculated,
			PricingType:        catalog.PricingCalculated,
			BasePrice:          money("38000"),
			CostPrice:          moneyPtr("15000"),
			CalculationFormula: "width * height * basePrice",
			Unit:               "m2",
			DefaultTaxRate:     money("19"),
			Attributes: []catalog.Attribute{
				{Name: "Width", Type: catalog.AttributeNumber, IsRequired: true, IsConfigurable: true, MinValue: moneyPtr("0.5"), MaxValue: moneyPtr("5"), Unit: "m"},
				{Name: "Height", Type: catalog.AttributeNumber, IsRequired: true, IsConfigurable: true, MinValue: moneyPtr("0.5"), MaxValue: moneyPtr("3"), Unit: "m"},
			},
		},
		{
			Name:           "Camiseta estampada",
			SKU:            "DEMO-SHIRT",
			Category:       "textil",
			ProductType:    catalog.ProductConfigurable,
			PricingType:    catalog.PricingVariantBased,
			BasePrice:      money("35000"),
			CostPrice:      moneyPtr("16000"),
			Unit:           "unidad",
			DefaultTaxRate: money("19"),
			Attributes: []catalog.Attribute{
				{Name: "Color", Type: catalog.AttributeSelect, IsRequired: true, IsConfigurable: true, Options: []catalog.Option{
					{Value: "blanco", DisplayName: "Blanco", IsActive: true, SortOrder: 1},
					{Value: "negro", DisplayName: "Negro", IsActive: true, SortOrder: 2},
				}},
			},
			Variants: []catalog.Variant{
				{SKU: "DEMO-SHIRT-NEGRO", Name: "Negra", Configuration: catalog.Configuration{"color": catalog.Text("negro")}, Price: moneyPtr("39000"), CostPrice: moneyPtr("18500"), IsActive: true},
			},
		},
		{
			Name:           "Vinilo adhesivo",
			SKU:            "DEMO-VINYL",
			Category:       "gran formato",
			ProductType:    catalog.ProductSimple,
			PricingType:    catalog.PricingPerUnit,
			BasePrice:      money("4200"),
			CostPrice:      moneyPtr("1900"),
			Unit:           "sqft",
			DefaultTaxRate: money("19"),
		},
	}
}
