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

const maxCartBodySize = 16 * 1024

// CartHandlers exposes authenticated cart and saved-for-later endpoints.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs handlers enforcing Firebase authentication before invoking the cart service.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{
		authn: authn,
		carts: carts,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{lineID}", h.updateQuantity)
	r.Delete("/items/{lineID}", h.removeItem)
	r.Post("/items/{lineID}/save", h.saveForLater)
	r.Get("/saved", h.listSavedItems)
	r.Post("/saved/{itemID}/move", h.moveToCart)
	r.Delete("/saved/{itemID}", h.removeSavedItem)
}

type cartResponse struct {
	Cart          cartPayload `json:"cart"`
	StockAdjusted bool        `json:"stockAdjusted,omitempty"`
}

type addItemRequest struct {
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	Attributes *struct {
		Size     string `json:"size"`
		Color    string `json:"color"`
		Material string `json:"material"`
		Seller   string `json:"seller"`
	} `json:"attributes"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, uid)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	cmd := services.AddItemCommand{
		UserID:    uid,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if req.Attributes != nil {
		cmd.Attributes = &domain.LineAttributes{
			Size:     req.Attributes.Size,
			Color:    req.Attributes.Color,
			Material: req.Attributes.Material,
			Seller:   req.Attributes.Seller,
		}
	}

	cart, err := h.carts.AddItem(ctx, cmd)
	adjusted := errors.Is(err, services.ErrCartStockExceeded)
	if err != nil && !adjusted {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart), StockAdjusted: adjusted})
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}

	var req updateQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity is required", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, services.UpdateQuantityCommand{
		UserID:   uid,
		LineID:   chi.URLParam(r, "lineID"),
		Quantity: *req.Quantity,
	})
	adjusted := errors.Is(err, services.ErrCartStockExceeded)
	if err != nil && !adjusted {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart), StockAdjusted: adjusted})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(ctx, uid, chi.URLParam(r, "lineID"))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, uid); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) saveForLater(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.SaveForLater(ctx, uid, chi.URLParam(r, "lineID"))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) listSavedItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	items, err := h.carts.ListSavedItems(ctx, uid)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": buildSavedItemPayloads(items)})
}

func (h *CartHandlers) moveToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.MoveToCart(ctx, uid, chi.URLParam(r, "itemID"))
	adjusted := errors.Is(err, services.ErrCartStockExceeded)
	if err != nil && !adjusted {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart), StockAdjusted: adjusted})
}

func (h *CartHandlers) removeSavedItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.RemoveSavedItem(ctx, uid, chi.URLParam(r, "itemID")); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) requireUser(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return identity.UID, true
}

func (h *CartHandlers) writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to serve cart request", http.StatusInternalServerError))
	}
}
