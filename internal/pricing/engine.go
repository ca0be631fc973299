package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Line describes a priced cart line used for totals.
type Line struct {
	Qty       int
	UnitPrice Money
}

// Subtotal returns the line amount. Non-positive quantities price at zero.
func (l Line) Subtotal() Money {
	if l.Qty <= 0 {
		return 0
	}
	return Money(l.Qty) * l.UnitPrice
}

// Summary aggregates computed pricing components.
type Summary struct {
	Units    int
	Subtotal Money
	Savings  Money
	Total    Money
}

// Compute sums the lines. regular carries the undiscounted unit price of each
// line (same order as lines) and is used to report savings; pass nil to skip.
func Compute(lines []Line, regular []Money) Summary {
	var sum Summary
	for i, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		sum.Units += l.Qty
		sum.Total += l.Subtotal()
		if i < len(regular) {
			full := Line{Qty: l.Qty, UnitPrice: regular[i]}.Subtotal()
			sum.Subtotal += full
			if diff := full - l.Subtotal(); diff > 0 {
				sum.Savings += diff
			}
		} else {
			sum.Subtotal += l.Subtotal()
		}
	}
	return sum
}
