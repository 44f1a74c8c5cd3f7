package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/events"
	"github.com/artel-market/api/internal/repositories"
)

var (
	errCheckoutCartsRequired  = errors.New("checkout service: cart repository is required")
	errCheckoutOrdersRequired = errors.New("checkout service: order repository is required")
	errCheckoutClockRequired  = errors.New("checkout service: clock is required")
)

// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutEmptyCart indicates checkout was attempted on an empty cart.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutUnavailable indicates the checkout backend cannot serve the request.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

// CheckoutServiceDeps wires the repositories and helpers for order placement.
type CheckoutServiceDeps struct {
	Carts       repositories.CartRepository
	Orders      repositories.OrderRepository
	Events      EventSink
	Clock       func() time.Time
	IDGenerator func() string
	Random      func() int
	Logger      func(context.Context, string, map[string]any)
}

type checkoutService struct {
	carts  repositories.CartRepository
	orders repositories.OrderRepository
	events EventSink
	now    func() time.Time
	newID  func() string
	random func() int
	logger func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errCheckoutCartsRequired
	}
	if deps.Orders == nil {
		return nil, errCheckoutOrdersRequired
	}
	if deps.Clock == nil {
		return nil, errCheckoutClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	random := deps.Random
	if random == nil {
		random = func() int { return rand.IntN(1000) }
	}
	sink := deps.Events
	if sink == nil {
		sink = func(context.Context, events.Event) {}
	}

	return &checkoutService{
		carts:  deps.Carts,
		orders: deps.Orders,
		events: sink,
		now:    func() time.Time { return deps.Clock().UTC() },
		newID:  idGen,
		random: random,
		logger: logger,
	}, nil
}

// PlaceOrder snapshots the current cart into a write-once order, prices it,
// persists it, and clears the cart. The cart is only cleared after the order
// insert has committed.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	if s == nil || s.carts == nil || s.orders == nil {
		return domain.Order{}, ErrCheckoutUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.Order{}, ErrCheckoutInvalidInput
	}
	billing, err := normaliseBilling(cmd.Billing)
	if err != nil {
		return domain.Order{}, err
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Order{}, ErrCheckoutEmptyCart
		}
		return domain.Order{}, s.translateRepoError(err)
	}
	if len(cart.Lines) == 0 || cart.ItemCount() == 0 {
		return domain.Order{}, ErrCheckoutEmptyCart
	}

	subtotal := cart.Subtotal()
	shipping := domain.ShippingFee(cmd.ShippingMethod)
	tax := domain.Tax(subtotal)

	couponCode := strings.ToUpper(strings.TrimSpace(cmd.CouponCode))
	discount, err := domain.CouponDiscount(couponCode, subtotal)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: unknown coupon code", ErrCheckoutInvalidInput)
	}

	now := s.now()
	order := domain.Order{
		ID:            strings.TrimSpace(s.newID()),
		OrderNumber:   domain.OrderNumber(now.UnixMilli(), s.random()),
		UserID:        uid,
		Lines:         orderLinesFromCart(cart),
		Totals:        domain.Totals(subtotal, shipping, tax, discount),
		Status:        domain.OrderStatusProcessing,
		Billing:       billing,
		PaymentMethod: strings.TrimSpace(cmd.PaymentMethod),
		CouponCode:    couponCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if order.ID == "" {
		return domain.Order{}, fmt.Errorf("checkout service: id generation failed")
	}

	placed, err := s.orders.Insert(ctx, order)
	if err != nil {
		s.logger(ctx, "checkout.insert_failed", map[string]any{
			"userId":  uid,
			"orderId": order.ID,
			"error":   err.Error(),
		})
		return domain.Order{}, s.translateRepoError(err)
	}

	if err := s.carts.Delete(ctx, uid); err != nil && !isRepoNotFound(err) {
		// The order stands; the stale cart is logged rather than failing checkout.
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"userId":  uid,
			"orderId": placed.ID,
			"error":   err.Error(),
		})
	} else {
		s.events(ctx, events.Event{
			Type:       events.TypeCartUpdated,
			UserID:     uid,
			OccurredAt: now,
			Payload:    map[string]any{"itemCount": 0, "subtotal": int64(0)},
		})
	}

	s.events(ctx, events.Event{
		Type:       events.TypeOrderPlaced,
		UserID:     uid,
		EntityID:   placed.ID,
		OccurredAt: now,
		Payload: map[string]any{
			"orderNumber": placed.OrderNumber,
			"total":       placed.Totals.Total,
			"lineCount":   len(placed.Lines),
		},
	})
	return placed, nil
}

func (s *checkoutService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCheckoutEmptyCart
		}
		return ErrCheckoutUnavailable
	}
	return ErrCheckoutUnavailable
}

func normaliseBilling(billing domain.BillingInfo) (domain.BillingInfo, error) {
	normalised := domain.BillingInfo{
		FirstName:  strings.TrimSpace(billing.FirstName),
		LastName:   strings.TrimSpace(billing.LastName),
		Email:      strings.TrimSpace(billing.Email),
		Address:    strings.TrimSpace(billing.Address),
		City:       strings.TrimSpace(billing.City),
		PostalCode: strings.TrimSpace(billing.PostalCode),
		Country:    strings.TrimSpace(billing.Country),
	}

	missing := []string{}
	if normalised.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if normalised.LastName == "" {
		missing = append(missing, "lastName")
	}
	if normalised.Email == "" {
		missing = append(missing, "email")
	}
	if normalised.Address == "" {
		missing = append(missing, "address")
	}
	if normalised.City == "" {
		missing = append(missing, "city")
	}
	if normalised.PostalCode == "" {
		missing = append(missing, "postalCode")
	}
	if normalised.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return domain.BillingInfo{}, fmt.Errorf("%w: missing billing fields %s", ErrCheckoutInvalidInput, strings.Join(missing, ", "))
	}
	if !strings.Contains(normalised.Email, "@") {
		return domain.BillingInfo{}, fmt.Errorf("%w: invalid billing email", ErrCheckoutInvalidInput)
	}
	return normalised, nil
}

func orderLinesFromCart(cart domain.Cart) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			continue
		}
		lines = append(lines, domain.OrderLine{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Price:      line.Price,
			Image:      line.Image,
			Quantity:   line.Quantity,
			Total:      line.Price * int64(line.Quantity),
			Attributes: line.Attributes,
		})
	}
	return lines
}
