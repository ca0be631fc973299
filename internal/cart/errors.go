package cart

import "errors"

var (
	// ErrInvalidInput is returned when the caller passes an absent cart or a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProductNotFound indicates the product does not exist in the catalog.
	ErrProductNotFound = errors.New("product does not exist")
	// ErrNotInCart is returned when removing a product that has no line in the cart.
	ErrNotInCart = errors.New("product is not in the cart")
	// ErrConflictingDiscount flags two discounted lines of one product with different markers.
	ErrConflictingDiscount = errors.New("conflicting discount markers")
)
