package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/artel-market/api/internal/domain"
	pfirestore "github.com/artel-market/api/internal/platform/firestore"
	"github.com/artel-market/api/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists write-once order snapshots within Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{provider: provider, base: base}, nil
}

// Insert stores the order snapshot under its ID. Orders are write-once: a
// second insert under the same ID is a conflict, enforced transactionally.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	if strings.TrimSpace(order.UserID) == "" {
		return domain.Order{}, errors.New("order repository: user id is required")
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	doc := newOrderDocument(order)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(ref)
		if err == nil && snapshot.Exists() {
			return status.Errorf(codes.AlreadyExists, "order %s already recorded", id)
		}
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.insert", err)
	}

	saved := order
	saved.ID = id
	return saved, nil
}

// FindByID loads the order snapshot by its document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("order repository: user id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("userId", "==", uid).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders, nil
}

// UpdateStatus transitions the order status. All other fields stay untouched.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	updates := []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	}
	if _, err := r.base.Update(ctx, id, updates); err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, id)
}

type orderDocument struct {
	OrderNumber   string              `firestore:"orderNumber"`
	UserID        string              `firestore:"userId"`
	Lines         []orderLineDocument `firestore:"lines"`
	Subtotal      int64               `firestore:"subtotal"`
	Shipping      int64               `firestore:"shipping"`
	Tax           int64               `firestore:"tax"`
	Discount      int64               `firestore:"discount"`
	Total         int64               `firestore:"total"`
	Status        string              `firestore:"status"`
	Billing       billingDocument     `firestore:"billing"`
	PaymentMethod string              `firestore:"paymentMethod,omitempty"`
	CouponCode    string              `firestore:"couponCode,omitempty"`
	CreatedAt     time.Time           `firestore:"createdAt"`
	UpdatedAt     time.Time           `firestore:"updatedAt"`
}

type orderLineDocument struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Price     int64  `firestore:"price"`
	Image     string `firestore:"image,omitempty"`
	Quantity  int    `firestore:"quantity"`
	Total     int64  `firestore:"total"`
	Size      string `firestore:"size,omitempty"`
	Color     string `firestore:"color,omitempty"`
	Material  string `firestore:"material,omitempty"`
	Seller    string `firestore:"seller,omitempty"`
}

type billingDocument struct {
	FirstName  string `firestore:"firstName"`
	LastName   string `firestore:"lastName"`
	Email      string `firestore:"email"`
	Address    string `firestore:"address"`
	City       string `firestore:"city"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
}

func newOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Lines:         make([]orderLineDocument, 0, len(order.Lines)),
		Subtotal:      order.Totals.Subtotal,
		Shipping:      order.Totals.Shipping,
		Tax:           order.Totals.Tax,
		Discount:      order.Totals.Discount,
		Total:         order.Totals.Total,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		CouponCode:    order.CouponCode,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Billing: billingDocument{
			FirstName:  order.Billing.FirstName,
			LastName:   order.Billing.LastName,
			Email:      order.Billing.Email,
			Address:    order.Billing.Address,
			City:       order.Billing.City,
			PostalCode: order.Billing.PostalCode,
			Country:    order.Billing.Country,
		},
	}
	for _, line := range order.Lines {
		doc.Lines = append(doc.Lines, orderLineDocument{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Image:     line.Image,
			Quantity:  line.Quantity,
			Total:     line.Total,
			Size:      line.Attributes.Size,
			Color:     line.Attributes.Color,
			Material:  line.Attributes.Material,
			Seller:    line.Attributes.Seller,
		})
	}
	return doc
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:          id,
		OrderNumber: d.OrderNumber,
		UserID:      d.UserID,
		Lines:       make([]domain.OrderLine, 0, len(d.Lines)),
		Totals: domain.OrderTotals{
			Subtotal: d.Subtotal,
			Shipping: d.Shipping,
			Tax:      d.Tax,
			Discount: d.Discount,
			Total:    d.Total,
		},
		Status:        domain.OrderStatus(d.Status),
		PaymentMethod: d.PaymentMethod,
		CouponCode:    d.CouponCode,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Billing: domain.BillingInfo{
			FirstName:  d.Billing.FirstName,
			LastName:   d.Billing.LastName,
			Email:      d.Billing.Email,
			Address:    d.Billing.Address,
			City:       d.Billing.City,
			PostalCode: d.Billing.PostalCode,
			Country:    d.Billing.Country,
		},
	}
	for _, line := range d.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Image:     line.Image,
			Quantity:  line.Quantity,
			Total:     line.Total,
			Attributes: domain.LineAttributes{
				Size:     line.Size,
				Color:    line.Color,
				Material: line.Material,
				Seller:   line.Seller,
			},
		})
	}
	return order
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
