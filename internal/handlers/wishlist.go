package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artel-market/api/internal/platform/auth"
	"github.com/artel-market/api/internal/platform/httpx"
	"github.com/artel-market/api/internal/services"
)

// WishlistHandlers exposes the authenticated wishlist endpoints.
type WishlistHandlers struct {
	authn     *auth.Authenticator
	wishlists services.WishlistService
}

// NewWishlistHandlers constructs handlers enforcing Firebase authentication before touching wishlists.
func NewWishlistHandlers(authn *auth.Authenticator, wishlists services.WishlistService) *WishlistHandlers {
	return &WishlistHandlers{
		authn:     authn,
		wishlists: wishlists,
	}
}

// Routes wires the /wishlist endpoints onto the provided router.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.listWishlist)
	r.Put("/{productID}", h.addToWishlist)
	r.Delete("/{productID}", h.removeFromWishlist)
}

func (h *WishlistHandlers) listWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	items, err := h.wishlists.ListWishlist(ctx, uid)
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": buildWishlistPayloads(items)})
}

func (h *WishlistHandlers) addToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	item, err := h.wishlists.AddToWishlist(ctx, uid, chi.URLParam(r, "productID"))
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"item": buildWishlistItemPayload(item)})
}

func (h *WishlistHandlers) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	if err := h.wishlists.RemoveFromWishlist(ctx, uid, chi.URLParam(r, "productID")); err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandlers) requireUser(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.wishlists == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return identity.UID, true
}

func writeWishlistError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrWishlistInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWishlistNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrWishlistUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_error", "failed to serve wishlist request", http.StatusInternalServerError))
	}
}
