package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/artel-market/api/internal/domain"
)

func TestOrderServiceGetOrderEnforcesOwnership(t *testing.T) {
	orders := &stubOrderRepository{
		findFunc: func(ctx context.Context, orderID string) (domain.Order, error) {
			return domain.Order{ID: "order-1", UserID: "owner-1"}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders: orders,
		Clock:  time.Now,
	})

	order, err := service.GetOrder(context.Background(), "owner-1", "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "order-1" {
		t.Fatalf("expected order-1, got %q", order.ID)
	}

	if _, err := service.GetOrder(context.Background(), "intruder", "order-1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
}

func TestOrderServiceListUserOrders(t *testing.T) {
	orders := &stubOrderRepository{
		listFunc: func(ctx context.Context, userID string) ([]domain.Order, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return []domain.Order{{ID: "order-2"}, {ID: "order-1"}}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders: orders,
		Clock:  time.Now,
	})

	history, err := service.ListUserOrders(context.Background(), " user-1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 || history[0].ID != "order-2" {
		t.Fatalf("expected repository order preserved, got %+v", history)
	}
}

func TestOrderServiceUpdateStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	var gotStatus domain.OrderStatus
	var gotAt time.Time

	orders := &stubOrderRepository{
		updateStatusFunc: func(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
			gotStatus = status
			gotAt = updatedAt
			return domain.Order{ID: orderID, Status: status, UpdatedAt: updatedAt}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders: orders,
		Clock:  func() time.Time { return now },
	})

	order, err := service.UpdateStatus(context.Background(), "order-1", " Shipped ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusShipped || gotStatus != domain.OrderStatusShipped {
		t.Fatalf("expected shipped status, got %q", order.Status)
	}
	if !gotAt.Equal(now) {
		t.Fatalf("expected update stamped %v, got %v", now, gotAt)
	}

	if _, err := service.UpdateStatus(context.Background(), "order-1", "teleported"); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for unknown status, got %v", err)
	}
}

func newTestOrderService(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	service, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing order service: %v", err)
	}
	return service
}
