package domain

import "errors"

// ErrUnknownCoupon indicates the supplied coupon code is not in the table.
var ErrUnknownCoupon = errors.New("pricing: unknown coupon code")

// ShippingMethod selects one of the flat shipping fees offered at checkout.
type ShippingMethod string

const (
	// ShippingStandard is the default flat-fee option.
	ShippingStandard ShippingMethod = "standard"
	// ShippingExpress is the premium flat-fee option.
	ShippingExpress ShippingMethod = "express"
	// ShippingPickup carries no fee.
	ShippingPickup ShippingMethod = "pickup"
)

// Flat shipping fees in minor units.
const (
	standardShippingFee int64 = 599
	expressShippingFee  int64 = 1599
)

// ShippingFee returns the flat fee for the method, defaulting to standard for
// unrecognised values.
func ShippingFee(method ShippingMethod) int64 {
	switch method {
	case ShippingExpress:
		return expressShippingFee
	case ShippingPickup:
		return 0
	default:
		return standardShippingFee
	}
}

// TaxBasisPoints is the sales tax rate applied at checkout, in basis points.
const TaxBasisPoints int64 = 800

// Tax computes the checkout tax on a subtotal.
func Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return subtotal * TaxBasisPoints / 10000
}

// coupons is the static discount table: exact string match, no expiry, no
// stacking. Amounts are either a percentage of the subtotal in basis points or
// a fixed amount in minor units.
var coupons = map[string]struct {
	basisPoints int64
	fixed       int64
}{
	"DISCOUNT10": {basisPoints: 1000},
	"WELCOME5":   {fixed: 500},
}

// CouponDiscount resolves the discount for a coupon code against a subtotal.
// Unknown codes yield zero with ErrUnknownCoupon; an empty code is zero and
// not an error.
func CouponDiscount(code string, subtotal int64) (int64, error) {
	if code == "" {
		return 0, nil
	}
	entry, ok := coupons[code]
	if !ok {
		return 0, ErrUnknownCoupon
	}
	if entry.fixed > 0 {
		return entry.fixed, nil
	}
	if subtotal <= 0 {
		return 0, nil
	}
	return subtotal * entry.basisPoints / 10000, nil
}

// Totals combines the caller-supplied pricing components. The grand total is
// clamped to be non-negative; the aggregator only sums what it is given.
func Totals(subtotal, shipping, tax, discount int64) OrderTotals {
	total := subtotal + shipping + tax - discount
	if total < 0 {
		total = 0
	}
	return OrderTotals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}
