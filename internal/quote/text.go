package quote

import (
	"fmt"
	"sort"
	"strings"
)

// Text renders a quote as plain text for pasting into e-mail or chat.
func Text(q *Quote) string {
	var b strings.Builder

	title := q.Title
	if title == "" {
		title = "Cotización " + q.ID
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Fecha: %s\n\n", q.CreatedAt.Format("2006-01-02"))

	b.WriteString("Items:\n")
	for i, it := range q.Items {
		fmt.Fprintf(&b, "%d. %s x %s %s @ %s = %s (IVA %s%%)\n",
			i+1, it.ProductName, formatQty(it.Quantity), it.Result.Unit,
			it.UnitPrice.StringFixed(2), it.CalculatedPrice.StringFixed(2), it.TaxRate.String())
		for _, line := range configurationLines(it) {
			fmt.Fprintf(&b, "   - %s\n", line)
		}
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", q.Totals.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Impuestos: %s\n", q.Totals.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n", q.Totals.Total.StringFixed(2))

	if len(q.Warnings) > 0 {
		b.WriteString("\nAdvertencias:\n")
		for _, w := range q.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if q.Notes != "" {
		fmt.Fprintf(&b, "\nNotas: %s\n", q.Notes)
	}

	return b.String()
}

func configurationLines(it Item) []string {
	keys := make([]string, 0, len(it.Result.Configuration))
	for k := range it.Result.Configuration {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+it.Result.Configuration[k].String())
	}
	return lines
}

func formatQty(q float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", q), "0"), ".")
}
