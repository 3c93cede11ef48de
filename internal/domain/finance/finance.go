// Package finance reduces chargeable entities to sales/cost/profit summaries.
package finance

import "github.com/shopspring/decimal"

// Summary is a (sales, cost, profit) triple.
type Summary struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// Zero is the identity of Add.
func Zero() Summary {
	return Summary{
		TotalSales:  decimal.Zero,
		TotalCost:   decimal.Zero,
		TotalProfit: decimal.Zero,
	}
}

// NewSummary derives profit as sales - cost.
func NewSummary(sales, cost decimal.Decimal) Summary {
	return Summary{
		TotalSales:  sales,
		TotalCost:   cost,
		TotalProfit: sales.Sub(cost),
	}
}

// Add combines two summaries component-wise.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		TotalSales:  s.TotalSales.Add(other.TotalSales),
		TotalCost:   s.TotalCost.Add(other.TotalCost),
		TotalProfit: s.TotalProfit.Add(other.TotalProfit),
	}
}

// Equal compares numerically, so 2 and 2.00 are equal.
func (s Summary) Equal(other Summary) bool {
	return s.TotalSales.Equal(other.TotalSales) &&
		s.TotalCost.Equal(other.TotalCost) &&
		s.TotalProfit.Equal(other.TotalProfit)
}

// Round rounds every component to places decimal digits.
func (s Summary) Round(places int32) Summary {
	return Summary{
		TotalSales:  s.TotalSales.Round(places),
		TotalCost:   s.TotalCost.Round(places),
		TotalProfit: s.TotalProfit.Round(places),
	}
}

// Extract returns the billed amount and the internal cost of one item.
type Extract[T any] func(item T) (sales, cost decimal.Decimal)

// Calculator reduces items of one charge type.
type Calculator[T any] struct {
	extract Extract[T]
}

func NewCalculator[T any](extract Extract[T]) Calculator[T] {
	return Calculator[T]{extract: extract}
}

func (c Calculator[T]) Summarize(item T) Summary {
	return NewSummary(c.extract(item))
}

// SummarizeAll is the component-wise sum of Summarize over items.
func (c Calculator[T]) SummarizeAll(items []T) Summary {
	total := Zero()
	for _, item := range items {
		total = total.Add(c.Summarize(item))
	}
	return total
}

// Sum adds any number of summaries.
func Sum(summaries ...Summary) Summary {
	total := Zero()
	for _, s := range summaries {
		total = total.Add(s)
	}
	return total
}

// ConsultationFee bills the fee with no attributed cost.
var ConsultationFee = NewCalculator(func(fee decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return fee, decimal.Zero
})
