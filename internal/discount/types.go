package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/discount-store/internal/pricing"
)

// ErrUnknownType is returned when a rule type cannot be parsed.
var ErrUnknownType = errors.New("unknown discount type")

// Type enumerates the multi-buy promotions. Values match the persisted codes.
type Type int

const (
	// TwoForX bills every complete pair of units at the discounted unit price.
	TwoForX Type = 1
	// ThreeForX bills every complete triple of units at the discounted unit price.
	ThreeForX Type = 2
)

// Types lists every known rule type in registration order.
func Types() []Type {
	return []Type{TwoForX, ThreeForX}
}

// String returns the identifier used in JSON payloads.
func (t Type) String() string {
	switch t {
	case TwoForX:
		return "TwoForX"
	case ThreeForX:
		return "ThreeForX"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// DisplayName is the human readable promotion name.
func (t Type) DisplayName() string {
	switch t {
	case TwoForX:
		return "Two for X"
	case ThreeForX:
		return "Three for X"
	default:
		return t.String()
	}
}

// Valid reports whether t is a known rule type.
func (t Type) Valid() bool {
	return t == TwoForX || t == ThreeForX
}

// ParseType accepts the JSON identifier, case-insensitively.
func ParseType(value string) (Type, error) {
	for _, t := range Types() {
		if strings.EqualFold(strings.TrimSpace(value), t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, value)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Definition is one configured promotion for a product.
type Definition struct {
	ID                  int64         `json:"id"`
	Type                Type          `json:"type"`
	ProductID           int64         `json:"productId"`
	DiscountedUnitPrice pricing.Money `json:"discountedUnitPrice"`
}

// Applied is the value snapshot of a definition attached to a cart line.
type Applied struct {
	Type                Type          `json:"type"`
	DiscountedUnitPrice pricing.Money `json:"discountedUnitPrice"`
}

// Marker snapshots the definition for a cart line.
func (d Definition) Marker() *Applied {
	return &Applied{Type: d.Type, DiscountedUnitPrice: d.DiscountedUnitPrice}
}

// Source returns the definitions of one rule type ordered by ascending ID.
type Source interface {
	DefinitionsByType(ctx context.Context, t Type) ([]Definition, error)
}

// FirstForProduct returns the first definition targeting productID.
func FirstForProduct(defs []Definition, productID int64) (Definition, bool) {
	for _, d := range defs {
		if d.ProductID == productID {
			return d, true
		}
	}
	return Definition{}, false
}
