package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

var (
	// ErrNotFound is returned when no product has the requested id.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateSKU is returned when another product already uses the sku.
	ErrDuplicateSKU = errors.New("sku already exists")
)

// Store persists catalog products in SQLite.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	Query    string
	Category string
}

type productRow struct {
	ID                 string              `db:"id"`
	Name               string              `db:"name"`
	SKU                string              `db:"sku"`
	Category           string              `db:"category"`
	Description        string              `db:"description"`
	ProductType        string              `db:"product_type"`
	PricingType        string              `db:"pricing_type"`
	BasePrice          decimal.Decimal     `db:"base_price"`
	CostPrice          decimal.NullDecimal `db:"cost_price"`
	CalculationFormula string              `db:"calculation_formula"`
	Unit               string              `db:"unit"`
	DefaultTaxRate     decimal.Decimal     `db:"default_tax_rate"`
}

type attributeRow struct {
	ID             string              `db:"id"`
	ProductID      string              `db:"product_id"`
	Position       int                 `db:"position"`
	Name           string              `db:"name"`
	Type           string              `db:"type"`
	IsRequired     bool                `db:"is_required"`
	IsConfigurable bool                `db:"is_configurable"`
	MinValue       decimal.NullDecimal `db:"min_value"`
	MaxValue       decimal.NullDecimal `db:"max_value"`
	DefaultValue   string              `db:"default_value"`
	Unit           string              `db:"unit"`
}

type optionRow struct {
	ID            string          `db:"id"`
	AttributeID   string          `db:"attribute_id"`
	Value         string          `db:"value"`
	DisplayName   string          `db:"display_name"`
	PriceModifier decimal.Decimal `db:"price_modifier"`
	CostModifier  decimal.Decimal `db:"cost_modifier"`
	IsActive      bool            `db:"is_active"`
	SortOrder     int             `db:"sort_order"`
}

type variantRow struct {
	ID                string              `db:"id"`
	ProductID         string              `db:"product_id"`
	Position          int                 `db:"position"`
	SKU               string              `db:"sku"`
	Name              string              `db:"name"`
	ConfigurationJSON string              `db:"configuration_json"`
	Price             decimal.NullDecimal `db:"price"`
	CostPrice         decimal.NullDecimal `db:"cost_price"`
	IsActive          bool                `db:"is_active"`
}

const productColumns = `
	id, name, COALESCE(sku, '') AS sku, COALESCE(category, '') AS category,
	COALESCE(description, '') AS description, product_type, pricing_type,
	base_price, cost_price, COALESCE(calculation_formula, '') AS calculation_formula,
	unit, default_tax_rate`

// Get loads a product together with its attributes, options and variants.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	p := row.toProduct()

	var attrs []attributeRow
	if err := s.db.SelectContext(ctx, &attrs, `
		SELECT id, product_id, position, name, type, is_required, is_configurable,
			min_value, max_value, COALESCE(default_value, '') AS default_value, COALESCE(unit, '') AS unit
		FROM product_attributes
		WHERE product_id = ?
		ORDER BY position
	`, id); err != nil {
		return nil, fmt.Errorf("query product attributes: %w", err)
	}

	var opts []optionRow
	if err := s.db.SelectContext(ctx, &opts, `
		SELECT o.id, o.attribute_id, o.value, o.display_name, o.price_modifier, o.cost_modifier, o.is_active, o.sort_order
		FROM attribute_options o
		JOIN product_attributes a ON a.id = o.attribute_id
		WHERE a.product_id = ?
		ORDER BY o.sort_order, o.rowid
	`, id); err != nil {
		return nil, fmt.Errorf("query attribute options: %w", err)
	}

	optionsByAttr := make(map[string][]catalog.Option, len(attrs))
	for _, o := range opts {
		optionsByAttr[o.AttributeID] = append(optionsByAttr[o.AttributeID], catalog.Option{
			ID:            o.ID,
			Value:         o.Value,
			DisplayName:   o.DisplayName,
			PriceModifier: o.PriceModifier,
			CostModifier:  o.CostModifier,
			IsActive:      o.IsActive,
			SortOrder:     o.SortOrder,
		})
	}

	p.Attributes = make([]catalog.Attribute, 0, len(attrs))
	for _, a := range attrs {
		p.Attributes = append(p.Attributes, catalog.Attribute{
			ID:             a.ID,
			Name:           a.Name,
			Type:           catalog.AttributeType(a.Type),
			IsRequired:     a.IsRequired,
			IsConfigurable: a.IsConfigurable,
			MinValue:       nullToPtr(a.MinValue),
			MaxValue:       nullToPtr(a.MaxValue),
			DefaultValue:   a.DefaultValue,
			Unit:           a.Unit,
			Options:        optionsByAttr[a.ID],
		})
	}

	var variants []variantRow
	if err := s.db.SelectContext(ctx, &variants, `
		SELECT id, product_id, position, COALESCE(sku, '') AS sku, COALESCE(name, '') AS name,
			configuration_json, price, cost_price, is_active
		FROM product_variants
		WHERE product_id = ?
		ORDER BY position
	`, id); err != nil {
		return nil, fmt.Errorf("query product variants: %w", err)
	}

	p.Variants = make([]catalog.Variant, 0, len(variants))
	for _, v := range variants {
		var cfg catalog.Configuration
		if err := json.Unmarshal([]byte(v.ConfigurationJSON), &cfg); err != nil {
			return nil, fmt.Errorf("decode variant %s configuration: %w", v.ID, err)
		}
		p.Variants = append(p.Variants, catalog.Variant{
			ID:            v.ID,
			SKU:           v.SKU,
			Name:          v.Name,
			Configuration: cfg,
			Price:         nullToPtr(v.Price),
			CostPrice:     nullToPtr(v.CostPrice),
			IsActive:      v.IsActive,
		})
	}

	return p, nil
}

// List returns product headers ordered by name. Attributes and variants are not loaded.
func (s *Store) List(ctx context.Context, f ListFilter) ([]catalog.Product, error) {
	search := "%" + strings.TrimSpace(f.Query) + "%"

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT `+productColumns+`
		FROM products
		WHERE (? = '' OR name LIKE ? OR COALESCE(sku, '') LIKE ?)
			AND (? = '' OR category = ?)
		ORDER BY name, id
	`, strings.TrimSpace(f.Query), search, search, f.Category, f.Category); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products := make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, *row.toProduct())
	}
	return products, nil
}

// Create validates and inserts p, assigning ids to the product and its children.
func (s *Store) Create(ctx context.Context, p *catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	assignIDs(p, true)

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO products (
				id, name, sku, category, description, product_type, pricing_type,
				base_price, cost_price, calculation_formula, unit, default_tax_rate
			) VALUES (
				:id, :name, NULLIF(:sku, ''), NULLIF(:category, ''), NULLIF(:description, ''), :product_type, :pricing_type,
				:base_price, :cost_price, NULLIF(:calculation_formula, ''), :unit, :default_tax_rate
			)
		`, toProductRow(p)); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSKU
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return insertChildren(ctx, tx, p)
	})
}

// Update replaces the stored product with p, including all attributes and variants.
func (s *Store) Update(ctx context.Context, p *catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	assignIDs(p, false)

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, `
			UPDATE products
			SET
				name = :name,
				sku = NULLIF(:sku, ''),
				category = NULLIF(:category, ''),
				description = NULLIF(:description, ''),
				product_type = :product_type,
				pricing_type = :pricing_type,
				base_price = :base_price,
				cost_price = :cost_price,
				calculation_formula = NULLIF(:calculation_formula, ''),
				unit = :unit,
				default_tax_rate = :default_tax_rate,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = :id
		`, toProductRow(p))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSKU
			}
			return fmt.Errorf("update product: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_attributes WHERE product_id = ?`, p.ID); err != nil {
			return fmt.Errorf("delete product attributes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = ?`, p.ID); err != nil {
			return fmt.Errorf("delete product variants: %w", err)
		}
		return insertChildren(ctx, tx, p)
	})
}

// Delete removes a product and, by cascade, its attributes and variants.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, p *catalog.Product) error {
	for i, attr := range p.Attributes {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO product_attributes (
				id, product_id, position, name, type, is_required, is_configurable,
				min_value, max_value, default_value, unit
			) VALUES (
				:id, :product_id, :position, :name, :type, :is_required, :is_configurable,
				:min_value, :max_value, NULLIF(:default_value, ''), NULLIF(:unit, '')
			)
		`, attributeRow{
			ID:             attr.ID,
			ProductID:      p.ID,
			Position:       i,
			Name:           attr.Name,
			Type:           string(attr.Type),
			IsRequired:     attr.IsRequired,
			IsConfigurable: attr.IsConfigurable,
			MinValue:       ptrToNull(attr.MinValue),
			MaxValue:       ptrToNull(attr.MaxValue),
			DefaultValue:   attr.DefaultValue,
			Unit:           attr.Unit,
		}); err != nil {
			return fmt.Errorf("insert attribute %q: %w", attr.Name, err)
		}

		for _, opt := range attr.Options {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO attribute_options (
					id, attribute_id, value, display_name, price_modifier, cost_modifier, is_active, sort_order
				) VALUES (
					:id, :attribute_id, :value, :display_name, :price_modifier, :cost_modifier, :is_active, :sort_order
				)
			`, optionRow{
				ID:            opt.ID,
				AttributeID:   attr.ID,
				Value:         opt.Value,
				DisplayName:   opt.DisplayName,
				PriceModifier: opt.PriceModifier,
				CostModifier:  opt.CostModifier,
				IsActive:      opt.IsActive,
				SortOrder:     opt.SortOrder,
			}); err != nil {
				return fmt.Errorf("insert option %q of attribute %q: %w", opt.Value, attr.Name, err)
			}
		}
	}

	for i, v := range p.Variants {
		cfg := v.Configuration
		if cfg == nil {
			cfg = catalog.Configuration{}
		}
		cfgJSON, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode variant configuration: %w", err)
		}

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO product_variants (
				id, product_id, position, sku, name, configuration_json, price, cost_price, is_active
			) VALUES (
				:id, :product_id, :position, NULLIF(:sku, ''), NULLIF(:name, ''), :configuration_json, :price, :cost_price, :is_active
			)
		`, variantRow{
			ID:                v.ID,
			ProductID:         p.ID,
			Position:          i,
			SKU:               v.SKU,
			Name:              v.Name,
			ConfigurationJSON: string(cfgJSON),
			Price:             ptrToNull(v.Price),
			CostPrice:         ptrToNull(v.CostPrice),
			IsActive:          v.IsActive,
		}); err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}

	return nil
}

// assignIDs fills in missing ids. Child ids are always regenerated because
// children are rewritten on every save.
func assignIDs(p *catalog.Product, newProduct bool) {
	if newProduct || p.ID == "" {
		p.ID = uuid.New().String()
	}
	for i := range p.Attributes {
		p.Attributes[i].ID = uuid.New().String()
		for j := range p.Attributes[i].Options {
			p.Attributes[i].Options[j].ID = uuid.New().String()
		}
	}
	for i := range p.Variants {
		p.Variants[i].ID = uuid.New().String()
	}
}

func (r productRow) toProduct() *catalog.Product {
	return &catalog.Product{
		ID:                 r.ID,
		Name:               r.Name,
		SKU:                r.SKU,
		Category:           r.Category,
		Description:        r.Description,
		ProductType:        catalog.ProductType(r.ProductType),
		PricingType:        catalog.PricingType(r.PricingType),
		BasePrice:          r.BasePrice,
		CostPrice:          nullToPtr(r.CostPrice),
		CalculationFormula: r.CalculationFormula,
		Unit:               r.Unit,
		DefaultTaxRate:     r.DefaultTaxRate,
	}
}

func toProductRow(p *catalog.Product) productRow {
	unit := p.Unit
	if unit == "" {
		unit = "piece"
	}
	return productRow{
		ID:                 p.ID,
		Name:               strings.TrimSpace(p.Name),
		SKU:                p.SKU,
		Category:           p.Category,
		Description:        p.Description,
		ProductType:        string(p.ProductType),
		PricingType:        string(p.PricingType),
		BasePrice:          p.BasePrice,
		CostPrice:          ptrToNull(p.CostPrice),
		CalculationFormula: p.CalculationFormula,
		Unit:               unit,
		DefaultTaxRate:     p.DefaultTaxRate,
	}
}

func nullToPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func ptrToNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
