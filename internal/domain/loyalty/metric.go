package loyalty

import "github.com/shopspring/decimal"

// VIPMetric is the performance measure a program ranks its creators by
type VIPMetric string

const (
	// VIPMetricSales ranks by monetary sales volume
	VIPMetricSales VIPMetric = "sales"
	// VIPMetricUnits ranks by number of units sold
	VIPMetricUnits VIPMetric = "units"
)

// IsValid checks if the metric is a known VIPMetric
func (m VIPMetric) IsValid() bool {
	switch m {
	case VIPMetricSales, VIPMetricUnits:
		return true
	}
	return false
}

// String returns the string representation of VIPMetric
func (m VIPMetric) String() string {
	return string(m)
}

// Counters is a pair of sales and unit totals.
type Counters struct {
	Sales decimal.Decimal `json:"sales"`
	Units int64           `json:"units"`
}

// Value returns the counter selected by metric as a decimal.
func (c Counters) Value(metric VIPMetric) decimal.Decimal {
	if metric == VIPMetricUnits {
		return decimal.NewFromInt(c.Units)
	}
	return c.Sales
}

// Add returns the sum of both counter pairs.
func (c Counters) Add(other Counters) Counters {
	return Counters{
		Sales: c.Sales.Add(other.Sales),
		Units: c.Units + other.Units,
	}
}

// IsZero reports whether both counters are zero.
func (c Counters) IsZero() bool {
	return c.Sales.IsZero() && c.Units == 0
}
