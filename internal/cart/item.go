package cart

import (
	"github.com/noah-isme/discount-store/internal/catalog"
	"github.com/noah-isme/discount-store/internal/discount"
	"github.com/noah-isme/discount-store/internal/pricing"
)

// Item is one cart line. Items are values: every pipeline step builds new ones.
type Item struct {
	Product  catalog.Product   `json:"product"`
	Quantity int               `json:"quantity"`
	Discount *discount.Applied `json:"appliedDiscount,omitempty"`
}

// NewItem returns an undiscounted line.
func NewItem(p catalog.Product, qty int) Item {
	return Item{Product: p, Quantity: qty}
}

// Discounted reports whether the line carries a discount marker.
func (it Item) Discounted() bool {
	return it.Discount != nil
}

// UnitPrice returns the price billed per unit of this line.
func (it Item) UnitPrice() pricing.Money {
	if it.Discount != nil {
		return it.Discount.DiscountedUnitPrice
	}
	return it.Product.Price
}

// Subtotal returns unit price times quantity.
func (it Item) Subtotal() pricing.Money {
	return pricing.Line{Qty: it.Quantity, UnitPrice: it.UnitPrice()}.Subtotal()
}

func (it Item) clone() Item {
	if it.Discount != nil {
		marker := *it.Discount
		it.Discount = &marker
	}
	return it
}

func (it Item) withQuantity(qty int) Item {
	out := it.clone()
	out.Quantity = qty
	return out
}

func (it Item) withDiscount(marker *discount.Applied) Item {
	out := it.clone()
	out.Discount = nil
	if marker != nil {
		m := *marker
		out.Discount = &m
	}
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.clone())
	}
	return out
}

// Cart is the snapshot held by the caller's session.
type Cart struct {
	Items []Item `json:"items"`
}

// Empty returns a cart with no lines.
func Empty() *Cart {
	return &Cart{Items: []Item{}}
}

// Total sums the line subtotals. A nil cart totals zero.
func Total(c *Cart) pricing.Money {
	if c == nil {
		return 0
	}
	var total pricing.Money
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	return total
}

// Total sums the line subtotals.
func (c *Cart) Total() pricing.Money {
	return Total(c)
}

// Summary reports units, undiscounted subtotal, savings and total.
func (c *Cart) Summary() pricing.Summary {
	if c == nil {
		return pricing.Summary{}
	}
	lines := make([]pricing.Line, 0, len(c.Items))
	regular := make([]pricing.Money, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{Qty: it.Quantity, UnitPrice: it.UnitPrice()})
		regular = append(regular, it.Product.Price)
	}
	return pricing.Compute(lines, regular)
}

// Quantity returns the number of units of productID across all lines.
func (c *Cart) Quantity(productID int64) int {
	if c == nil {
		return 0
	}
	var qty int
	for _, it := range c.Items {
		if it.Product.ID == productID && it.Quantity > 0 {
			qty += it.Quantity
		}
	}
	return qty
}

// Contains reports whether any line references productID.
func (c *Cart) Contains(productID int64) bool {
	return c.Quantity(productID) > 0
}
