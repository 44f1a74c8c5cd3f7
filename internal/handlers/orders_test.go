package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/auth"
	"github.com/artel-market/api/internal/services"
)

func TestOrderHandlersListOrders(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		listFunc: func(ctx context.Context, userID string) ([]domain.Order, error) {
			if userID != "user-7" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return []domain.Order{
				{ID: "order-2", OrderNumber: "ORD-222222222", CreatedAt: now},
				{ID: "order-1", OrderNumber: "ORD-111111111", CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}

	handler := NewOrderHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "user-7"}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Orders) != 2 || resp.Orders[0].ID != "order-2" {
		t.Fatalf("unexpected orders: %+v", resp.Orders)
	}
}

func TestOrderHandlersGetOrderNotFound(t *testing.T) {
	service := &stubOrderService{
		getFunc: func(ctx context.Context, userID string, orderID string) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderNotFound
		},
	}

	handler := NewOrderHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders/order-x", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "user-7"}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderHandlersUnauthenticated(t *testing.T) {
	handler := NewOrderHandlers(nil, &stubOrderService{})
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

type stubOrderService struct {
	listFunc         func(ctx context.Context, userID string) ([]domain.Order, error)
	getFunc          func(ctx context.Context, userID string, orderID string) (domain.Order, error)
	updateStatusFunc func(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
}

func (s *stubOrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID)
	}
	return nil, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, userID string, orderID string) (domain.Order, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, userID, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if s.updateStatusFunc != nil {
		return s.updateStatusFunc(ctx, orderID, status)
	}
	return domain.Order{}, errors.New("not implemented")
}
