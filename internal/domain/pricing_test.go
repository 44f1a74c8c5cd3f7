package domain

import (
	"errors"
	"testing"
)

func TestShippingFee(t *testing.T) {
	cases := []struct {
		method ShippingMethod
		want   int64
	}{
		{ShippingStandard, 599},
		{ShippingExpress, 1599},
		{ShippingPickup, 0},
		{ShippingMethod("carrier-pigeon"), 599},
		{ShippingMethod(""), 599},
	}
	for _, tc := range cases {
		if got := ShippingFee(tc.method); got != tc.want {
			t.Errorf("ShippingFee(%q) = %d, want %d", tc.method, got, tc.want)
		}
	}
}

func TestTax(t *testing.T) {
	if got := Tax(4500); got != 360 {
		t.Errorf("Tax(4500) = %d, want 360", got)
	}
	if got := Tax(0); got != 0 {
		t.Errorf("Tax(0) = %d, want 0", got)
	}
	if got := Tax(-100); got != 0 {
		t.Errorf("Tax(-100) = %d, want 0", got)
	}
}

func TestCouponDiscount(t *testing.T) {
	discount, err := CouponDiscount("DISCOUNT10", 4500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != 450 {
		t.Fatalf("DISCOUNT10 on 4500 = %d, want 450", discount)
	}

	discount, err = CouponDiscount("WELCOME5", 4500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != 500 {
		t.Fatalf("WELCOME5 = %d, want 500", discount)
	}

	discount, err = CouponDiscount("", 4500)
	if err != nil || discount != 0 {
		t.Fatalf("empty code = (%d, %v), want (0, nil)", discount, err)
	}

	discount, err = CouponDiscount("BOGUS", 4500)
	if !errors.Is(err, ErrUnknownCoupon) {
		t.Fatalf("expected ErrUnknownCoupon, got %v", err)
	}
	if discount != 0 {
		t.Fatalf("unknown code discount = %d, want 0", discount)
	}
}

func TestTotalsClampsNonNegative(t *testing.T) {
	// Subtotal 45.00 with shipping 10, tax 7, discount 60 bottoms out at 2.00.
	totals := Totals(4500, 1000, 700, 6000)
	if totals.Total != 200 {
		t.Fatalf("total = %d, want 200", totals.Total)
	}

	totals = Totals(100, 0, 0, 5000)
	if totals.Total != 0 {
		t.Fatalf("total = %d, want 0 when discount exceeds the rest", totals.Total)
	}
	if totals.Discount != 5000 {
		t.Fatalf("discount component = %d, want preserved 5000", totals.Discount)
	}
}

func TestCartDerivedQueries(t *testing.T) {
	cart := Cart{Lines: []CartLine{
		{ProductID: "a", Price: 1000, Quantity: 2},
		{ProductID: "b", Price: 2500, Quantity: 1},
	}}
	if got := cart.Subtotal(); got != 4500 {
		t.Fatalf("subtotal = %d, want 4500", got)
	}
	if got := cart.ItemCount(); got != 3 {
		t.Fatalf("item count = %d, want 3", got)
	}

	empty := Cart{}
	if empty.Subtotal() != 0 || empty.ItemCount() != 0 {
		t.Fatal("empty cart should have zero subtotal and item count")
	}
}
