package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/repositories"
)

var (
	errOrdersRepositoryRequired = errors.New("order service: order repository is required")
	errOrdersClockRequired      = errors.New("order service: clock is required")
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the order does not exist or belongs to another user.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderUnavailable indicates the order backend cannot serve the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// OrderServiceDeps wires the order repository and supporting helpers.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errOrdersRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errOrdersClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		orders: deps.Orders,
		now:    func() time.Time { return deps.Clock().UTC() },
		logger: logger,
	}, nil
}

// ListUserOrders returns the user's order history, newest first.
func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if s == nil || s.orders == nil {
		return nil, ErrOrderUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.orders.ListByUser(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// GetOrder loads one order and enforces ownership. An order belonging to a
// different user reads as not found.
func (s *orderService) GetOrder(ctx context.Context, userID string, orderID string) (domain.Order, error) {
	if s == nil || s.orders == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.translateRepoError(err)
	}
	if order.UserID != uid {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus transitions an order to a new lifecycle status. The audience is
// administrative; ownership is not checked here.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if s == nil || s.orders == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	status = domain.OrderStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !domain.ValidOrderStatus(status) {
		return domain.Order{}, fmt.Errorf("%w: unknown order status %q", ErrOrderInvalidInput, status)
	}

	now := s.now()
	order, err := s.orders.UpdateStatus(ctx, orderID, status, now)
	if err != nil {
		s.logger(ctx, "orders.status_update_failed", map[string]any{
			"orderId": orderID,
			"status":  string(status),
			"error":   err.Error(),
		})
		return domain.Order{}, s.translateRepoError(err)
	}
	return order, nil
}

func (s *orderService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrOrderNotFound
		}
		return ErrOrderUnavailable
	}
	return ErrOrderUnavailable
}
