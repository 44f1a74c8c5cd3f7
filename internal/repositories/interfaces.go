package repositories

import (
	"context"
	"time"

	domain "github.com/artel-market/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Carts() CartRepository
	Catalog() CatalogRepository
	Orders() OrderRepository
	Wishlists() WishlistRepository
	SavedItems() SavedItemRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartRepository persists one cart document per user.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Delete(ctx context.Context, userID string) error
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
}

// CatalogRepository manages product documents.
type CatalogRepository interface {
	List(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
}

// OrderRepository persists write-once order snapshots. Only the status field
// mutates after insertion.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error)
}

// WishlistRepository manages per-user wishlist membership.
type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, userID string, item domain.WishlistItem) error
	Remove(ctx context.Context, userID string, productID string) error
}

// SavedItemRepository manages the per-user saved-for-later list.
type SavedItemRepository interface {
	List(ctx context.Context, userID string) ([]domain.SavedItem, error)
	Add(ctx context.Context, userID string, item domain.SavedItem) error
	Remove(ctx context.Context, userID string, itemID string) error
}
