package services

import (
	"context"
	"errors"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/repositories"
)

// CartService owns the per-user cart aggregate: lines, quantity ceilings, and
// the saved-for-later list.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, lineID string) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
	SaveForLater(ctx context.Context, userID string, lineID string) (domain.Cart, error)
	MoveToCart(ctx context.Context, userID string, savedItemID string) (domain.Cart, error)
	ListSavedItems(ctx context.Context, userID string) ([]domain.SavedItem, error)
	RemoveSavedItem(ctx context.Context, userID string, savedItemID string) error
}

// AddItemCommand adds a quantity of a product to the user's cart.
type AddItemCommand struct {
	UserID     string
	ProductID  string
	Quantity   int
	Attributes *domain.LineAttributes
}

// UpdateQuantityCommand sets the absolute quantity on an existing cart line.
// A quantity of zero or less removes the line.
type UpdateQuantityCommand struct {
	UserID   string
	LineID   string
	Quantity int
}

// CatalogService exposes storefront product reads and admin catalog writes.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	RelatedProducts(ctx context.Context, productID string, limit int) ([]domain.Product, error)

	CreateProduct(ctx context.Context, cmd ProductCommand) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, cmd ProductCommand) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	ImageUploadURL(ctx context.Context, productID string, contentType string) (ImageUpload, error)
}

// ProductFilter narrows storefront product listings.
type ProductFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
}

// ProductCommand carries admin-supplied product fields.
type ProductCommand struct {
	Name        string
	Price       int64
	Stock       int
	Category    string
	Description string
	Image       string
	Featured    bool
}

// ImageUpload describes a signed product image upload slot.
type ImageUpload struct {
	URL       string
	Method    string
	ObjectKey string
	Headers   map[string]string
}

// CheckoutService turns the current cart into a write-once order.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
}

// PlaceOrderCommand carries everything checkout needs beyond the cart itself.
type PlaceOrderCommand struct {
	UserID         string
	Billing        domain.BillingInfo
	ShippingMethod domain.ShippingMethod
	PaymentMethod  string
	CouponCode     string
}

// OrderService reads order history and manages status transitions.
type OrderService interface {
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, userID string, orderID string) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
}

// WishlistService manages per-user wishlist membership.
type WishlistService interface {
	ListWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID string, productID string) (domain.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID string, productID string) error
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
