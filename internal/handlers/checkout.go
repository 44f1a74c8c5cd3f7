package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/auth"
	"github.com/artel-market/api/internal/platform/httpx"
	"github.com/artel-market/api/internal/services"
)

const maxCheckoutBodySize = 32 * 1024

// CheckoutHandlers exposes the authenticated order placement endpoint.
type CheckoutHandlers struct {
	authn        *auth.Authenticator
	checkout     services.CheckoutService
	allowCoupons bool
}

// CheckoutOption customises checkout handler construction.
type CheckoutOption func(*CheckoutHandlers)

// WithCouponsEnabled toggles acceptance of coupon codes at checkout.
func WithCouponsEnabled(enabled bool) CheckoutOption {
	return func(h *CheckoutHandlers) {
		h.allowCoupons = enabled
	}
}

// NewCheckoutHandlers constructs handlers enforcing Firebase authentication before placing orders.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService, opts ...CheckoutOption) *CheckoutHandlers {
	h := &CheckoutHandlers{
		authn:        authn,
		checkout:     checkout,
		allowCoupons: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.placeOrder)
}

type placeOrderRequest struct {
	Billing struct {
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Email      string `json:"email"`
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
		Country    string `json:"country"`
	} `json:"billing"`
	ShippingMethod string `json:"shippingMethod"`
	PaymentMethod  string `json:"paymentMethod"`
	CouponCode     string `json:"couponCode"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	if !h.allowCoupons && strings.TrimSpace(req.CouponCode) != "" {
		httpx.WriteError(ctx, w, httpx.NewError("coupons_disabled", "coupon codes are not accepted", http.StatusBadRequest))
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, services.PlaceOrderCommand{
		UserID: identity.UID,
		Billing: domain.BillingInfo{
			FirstName:  req.Billing.FirstName,
			LastName:   req.Billing.LastName,
			Email:      req.Billing.Email,
			Address:    req.Billing.Address,
			City:       req.Billing.City,
			PostalCode: req.Billing.PostalCode,
			Country:    req.Billing.Country,
		},
		ShippingMethod: domain.ShippingMethod(strings.ToLower(strings.TrimSpace(req.ShippingMethod))),
		PaymentMethod:  req.PaymentMethod,
		CouponCode:     req.CouponCode,
	})
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"order": buildOrderPayload(order)})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to place order", http.StatusInternalServerError))
	}
}
