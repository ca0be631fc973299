package cache

import "strconv"

// KeyProduct returns the cache key for a single product.
func KeyProduct(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// KeyProductList returns the cache key for the full product listing.
func KeyProductList() string {
	return "products:all"
}

// KeyDiscounts returns the cache key for the definitions of one rule type.
func KeyDiscounts(ruleType int) string {
	return "discounts:type:" + strconv.Itoa(ruleType)
}
