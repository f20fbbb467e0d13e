package quote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/quoteengine/internal/catalog"
	"github.com/Simplici0/quoteengine/internal/pricing"
)

var (
	ErrNotFound  = errors.New("quote not found")
	ErrNoItems   = errors.New("quote has no items")
	ErrBadItem   = errors.New("invalid quote item")
	hundred      = decimal.NewFromInt(100)
	moneyPlaces  = int32(pricing.MoneyPlaces)
	totalsFields = []string{"total", "grand_total", "final_total"}
)

// ProductGetter loads a catalog product by id.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// Service creates and reads quotations. Line items are priced once, at creation,
// and stored as snapshots; reading a quote never recalculates.
type Service struct {
	db       *sqlx.DB
	products ProductGetter
	now      func() time.Time
}

func NewService(db *sqlx.DB, products ProductGetter) *Service {
	return &Service{db: db, products: products, now: time.Now}
}

// ItemInput requests one priced line. A nil Quantity means one.
type ItemInput struct {
	ProductID     string                `json:"productId"`
	Configuration catalog.Configuration `json:"configuration"`
	Quantity      *float64              `json:"quantity"`
}

// CreateInput is the body of a new quote.
type CreateInput struct {
	Title string      `json:"title"`
	Notes string      `json:"notes"`
	Items []ItemInput `json:"items"`
}

// Item is a priced quotation line.
type Item struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	Quantity        float64         `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	CalculatedPrice decimal.Decimal `json:"calculatedPrice"`
	Result          pricing.Result  `json:"result"`
}

// Totals rolls up the line items of a quote.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Cost     decimal.Decimal `json:"cost"`
	Margin   decimal.Decimal `json:"margin"`
}

// Quote is a stored quotation.
type Quote struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	Items     []Item    `json:"items"`
	Totals    Totals    `json:"totals"`
	Warnings  []string  `json:"warnings"`
}

// ListItem is a quote summary.
type ListItem struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Title     string          `json:"title"`
	Total     decimal.Decimal `json:"total"`
}

// Create prices every item and stores the quote. An unknown product aborts the
// whole quote; pricing warnings do not.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Quote, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	q := &Quote{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC().Truncate(time.Second),
		Title:     strings.TrimSpace(in.Title),
		Notes:     strings.TrimSpace(in.Notes),
		Items:     make([]Item, 0, len(in.Items)),
		Warnings:  make([]string, 0),
	}

	for i, it := range in.Items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: item %d has no productId", ErrBadItem, i+1)
		}
		qty := 1.0
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		if qty < 0 {
			return nil, fmt.Errorf("%w: item %d has negative quantity", ErrBadItem, i+1)
		}

		p, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product for item %d: %w", i+1, err)
		}

		result := pricing.Calculate(p, it.Configuration, qty)
		for _, w := range result.Errors {
			q.Warnings = append(q.Warnings, fmt.Sprintf("%s: %s", p.Name, w))
		}

		q.Items = append(q.Items, Item{
			ID:              uuid.New().String(),
			ProductID:       p.ID,
			ProductName:     p.Name,
			Quantity:        qty,
			UnitPrice:       result.UnitPrice,
			TaxRate:         result.TaxRate,
			CalculatedPrice: result.TotalPrice,
			Result:          result,
		})
	}
	q.Totals = computeTotals(q.Items)

	if err := s.insert(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func computeTotals(items []Item) Totals {
	t := Totals{Subtotal: decimal.Zero, Tax: decimal.Zero, Cost: decimal.Zero}
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(it.CalculatedPrice)
		t.Cost = t.Cost.Add(it.Result.TotalCost)
		t.Tax = t.Tax.Add(it.CalculatedPrice.Mul(it.TaxRate).Div(hundred).Round(moneyPlaces))
	}
	t.Total = t.Subtotal.Add(t.Tax)
	t.Margin = t.Subtotal.Sub(t.Cost)
	return t
}

func (s *Service) insert(ctx context.Context, q *Quote) error {
	totalsJSON, err := json.Marshal(q.Totals)
	if err != nil {
		return fmt.Errorf("encode quote totals: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quote transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO quotes (id, created_at, title, notes, totals_json)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)
	`, q.ID, q.CreatedAt, q.Title, q.Notes, string(totalsJSON)); err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}

	for i, it := range q.Items {
		resultJSON, err := json.Marshal(it.Result)
		if err != nil {
			return fmt.Errorf("encode quote item result: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quote_items (
				id, quote_id, position, product_id, product_name, quantity,
				unit_price, tax_rate, calculated_price, result_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, it.ID, q.ID, i, it.ProductID, it.ProductName, it.Quantity,
			it.UnitPrice, it.TaxRate, it.CalculatedPrice, string(resultJSON)); err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quote transaction: %w", err)
	}
	return nil
}

// List returns quotes newest first, optionally filtered by title or notes.
func (s *Service) List(ctx context.Context, query string) ([]ListItem, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, created_at, COALESCE(title, ''), totals_json
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY created_at DESC, rowid DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.Total = extractTotalFromJSON(totalsJSON)
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

// extractTotalFromJSON reads the grand total from a stored totals snapshot,
// accepting the key names older snapshots used.
func extractTotalFromJSON(totalsJSON string) decimal.Decimal {
	var values map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return decimal.Zero
	}

	for _, key := range totalsFields {
		if total, ok := values[key]; ok {
			return total
		}
	}
	return decimal.Zero
}

// Get reads a stored quote snapshot.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	var head struct {
		ID         string    `db:"id"`
		CreatedAt  time.Time `db:"created_at"`
		Title      string    `db:"title"`
		Notes      string    `db:"notes"`
		TotalsJSON string    `db:"totals_json"`
	}
	err := s.db.GetContext(ctx, &head, `
		SELECT id, created_at, COALESCE(title, '') AS title, COALESCE(notes, '') AS notes, totals_json
		FROM quotes
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query quote: %w", err)
	}

	q := &Quote{ID: head.ID, CreatedAt: head.CreatedAt, Title: head.Title, Notes: head.Notes, Warnings: make([]string, 0)}
	if err := json.Unmarshal([]byte(head.TotalsJSON), &q.Totals); err != nil {
		return nil, fmt.Errorf("decode quote totals: %w", err)
	}

	var rows []struct {
		ID              string          `db:"id"`
		ProductID       string          `db:"product_id"`
		ProductName     string          `db:"product_name"`
		Quantity        float64         `db:"quantity"`
		UnitPrice       decimal.Decimal `db:"unit_price"`
		TaxRate         decimal.Decimal `db:"tax_rate"`
		CalculatedPrice decimal.Decimal `db:"calculated_price"`
		ResultJSON      string          `db:"result_json"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, product_id, product_name, quantity, unit_price, tax_rate, calculated_price, result_json
		FROM quote_items
		WHERE quote_id = ?
		ORDER BY position
	`, id); err != nil {
		return nil, fmt.Errorf("query quote items: %w", err)
	}

	q.Items = make([]Item, 0, len(rows))
	for _, r := range rows {
		it := Item{
			ID:              r.ID,
			ProductID:       r.ProductID,
			ProductName:     r.ProductName,
			Quantity:        r.Quantity,
			UnitPrice:       r.UnitPrice,
			TaxRate:         r.TaxRate,
			CalculatedPrice: r.CalculatedPrice,
		}
		if err := json.Unmarshal([]byte(r.ResultJSON), &it.Result); err != nil {
			return nil, fmt.Errorf("decode quote item result: %w", err)
		}
		for _, w := range it.Result.Errors {
			q.Warnings = append(q.Warnings, fmt.Sprintf("%s: %s", it.ProductName, w))
		}
		q.Items = append(q.Items, it)
	}

	return q, nil
}
