package notification

import (
	"strings"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Casers and printers keep per-call state, so each helper builds its own.

// tierLabel turns a tier code such as "rising_star" into "Rising Star" for
// programs that never set display names
func tierLabel(code string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(code, "_", " "))
}

// formatMoney renders an amount in dollars with thousands separators
func formatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return message.NewPrinter(language.English).Sprintf("$%.2f", f)
}

func formatValue(v decimal.Decimal, metric loyalty.VIPMetric) string {
	if metric == loyalty.VIPMetricUnits {
		return message.NewPrinter(language.English).Sprintf("%d units", v.Truncate(0).IntPart())
	}
	return formatMoney(v)
}
