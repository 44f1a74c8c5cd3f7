package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/services"
)

func TestAdminHandlersCreateProduct(t *testing.T) {
	service := &stubCatalogService{
		createFunc: func(ctx context.Context, cmd services.ProductCommand) (domain.Product, error) {
			if cmd.Name != "Clay Vase" || cmd.Price != 2500 || cmd.Stock != 12 {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return domain.Product{ID: "prod-new", Name: cmd.Name, Price: cmd.Price, Stock: cmd.Stock}, nil
		},
	}

	handler := NewAdminHandlers(nil, service, &stubOrderService{})
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	body := strings.NewReader(`{"name":"Clay Vase","price":2500,"stock":12,"category":"pottery"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Product productPayload `json:"product"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Product.ID != "prod-new" {
		t.Fatalf("unexpected product: %+v", resp.Product)
	}
}

func TestAdminHandlersCreateProductInvalid(t *testing.T) {
	service := &stubCatalogService{
		createFunc: func(ctx context.Context, cmd services.ProductCommand) (domain.Product, error) {
			return domain.Product{}, services.ErrCatalogInvalidInput
		},
	}

	handler := NewAdminHandlers(nil, service, &stubOrderService{})
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"name":"","price":-5}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminHandlersDeleteProduct(t *testing.T) {
	deleted := ""
	service := &stubCatalogService{
		deleteFunc: func(ctx context.Context, productID string) error {
			deleted = productID
			return nil
		},
	}

	handler := NewAdminHandlers(nil, service, &stubOrderService{})
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	req := httptest.NewRequest(http.MethodDelete, "/admin/products/prod-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if deleted != "prod-1" {
		t.Fatalf("expected delete for prod-1, got %q", deleted)
	}
}

func TestAdminHandlersImageUploadURL(t *testing.T) {
	service := &stubCatalogService{
		uploadFunc: func(ctx context.Context, productID string, contentType string) (services.ImageUpload, error) {
			if productID != "prod-1" || contentType != "image/webp" {
				t.Fatalf("unexpected args %q %q", productID, contentType)
			}
			return services.ImageUpload{
				URL:       "https://storage.example.com/products/prod-1/abc",
				Method:    "PUT",
				ObjectKey: "products/prod-1/abc",
				Headers:   map[string]string{"Content-Type": "image/webp"},
			}, nil
		},
	}

	handler := NewAdminHandlers(nil, service, &stubOrderService{})
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	body := strings.NewReader(`{"contentType":"image/webp"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/products/prod-1/image-upload", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Upload struct {
			URL       string `json:"url"`
			Method    string `json:"method"`
			ObjectKey string `json:"objectKey"`
		} `json:"upload"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Upload.Method != "PUT" || resp.Upload.ObjectKey != "products/prod-1/abc" {
		t.Fatalf("unexpected upload: %+v", resp.Upload)
	}
}

func TestAdminHandlersUpdateOrderStatus(t *testing.T) {
	service := &stubOrderService{
		updateStatusFunc: func(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
			if orderID != "order-1" || status != domain.OrderStatus("shipped") {
				t.Fatalf("unexpected args %q %q", orderID, status)
			}
			return domain.Order{ID: orderID, Status: domain.OrderStatusShipped}, nil
		},
	}

	handler := NewAdminHandlers(nil, &stubCatalogService{}, service)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	body := strings.NewReader(`{"status":"shipped"}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/order-1/status", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Order orderPayload `json:"order"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.Status != "shipped" {
		t.Fatalf("unexpected status %q", resp.Order.Status)
	}
}
