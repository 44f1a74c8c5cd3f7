package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/auth"
	"github.com/artel-market/api/internal/platform/httpx"
	"github.com/artel-market/api/internal/services"
)

const maxAdminBodySize = 64 * 1024

// AdminHandlers exposes the admin-only catalog and order management endpoints.
type AdminHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
	orders  services.OrderService
}

// NewAdminHandlers constructs handlers restricted to the admin role.
func NewAdminHandlers(authn *auth.Authenticator, catalog services.CatalogService, orders services.OrderService) *AdminHandlers {
	return &AdminHandlers{
		authn:   authn,
		catalog: catalog,
		orders:  orders,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
	r.Post("/products/{productID}/image-upload", h.imageUploadURL)
	r.Patch("/orders/{orderID}/status", h.updateOrderStatus)
}

type productRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Featured    bool   `json:"featured"`
}

func (r productRequest) command() services.ProductCommand {
	return services.ProductCommand{
		Name:        r.Name,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
		Description: r.Description,
		Image:       r.Image,
		Featured:    r.Featured,
	}
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	req, ok := h.decodeProductRequest(ctx, w, r)
	if !ok {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req.command())
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	req, ok := h.decodeProductRequest(ctx, w, r)
	if !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "productID"), req.command())
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type imageUploadRequest struct {
	ContentType string `json:"contentType"`
}

func (h *AdminHandlers) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	var req imageUploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	upload, err := h.catalog.ImageUploadURL(ctx, chi.URLParam(r, "productID"), req.ContentType)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"upload": map[string]any{
			"url":       upload.URL,
			"method":    upload.Method,
			"objectKey": upload.ObjectKey,
			"headers":   upload.Headers,
		},
	})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	var req updateOrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "orderID"), domain.OrderStatus(req.Status))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

func (h *AdminHandlers) decodeProductRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return req, false
	}
	return req, true
}

func (h *AdminHandlers) writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}
