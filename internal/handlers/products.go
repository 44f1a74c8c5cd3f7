package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artel-market/api/internal/platform/httpx"
	"github.com/artel-market/api/internal/services"
)

// ProductHandlers exposes the public storefront product endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers constructs handlers serving unauthenticated catalog reads.
func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/search", h.searchProducts)
	r.Get("/{productID}", h.getProduct)
	r.Get("/{productID}/related", h.relatedProducts)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	filter := services.ProductFilter{
		Category:     strings.TrimSpace(r.URL.Query().Get("category")),
		FeaturedOnly: parseBoolParam(r.URL.Query().Get("featured")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}

func (h *ProductHandlers) searchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	query := r.URL.Query().Get("q")
	products, err := h.catalog.SearchProducts(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"query":    strings.TrimSpace(query),
		"products": buildProductPayloads(products),
	})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *ProductHandlers) relatedProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	products, err := h.catalog.RelatedProducts(ctx, chi.URLParam(r, "productID"), limit)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductPayloads(products)})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		writeCatalogUnavailable(ctx, w)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to serve catalog request", http.StatusInternalServerError))
	}
}

func writeCatalogUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
}

func parseBoolParam(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
