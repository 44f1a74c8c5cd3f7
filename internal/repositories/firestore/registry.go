package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/artel-market/api/internal/platform/firestore"
	"github.com/artel-market/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the repositories.Registry interface.
type Registry struct {
	provider *pfirestore.Provider

	carts      *CartRepository
	catalog    *CatalogRepository
	orders     *OrderRepository
	wishlists  *WishlistRepository
	savedItems *SavedItemRepository
}

// NewRegistry constructs the full repository set over one shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	wishlists, err := NewWishlistRepository(provider)
	if err != nil {
		return nil, err
	}
	savedItems, err := NewSavedItemRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:   provider,
		carts:      carts,
		catalog:    catalog,
		orders:     orders,
		wishlists:  wishlists,
		savedItems: savedItems,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Carts returns the cart repository.
func (r *Registry) Carts() repositories.CartRepository { return r.carts }

// Catalog returns the catalog repository.
func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Wishlists returns the wishlist repository.
func (r *Registry) Wishlists() repositories.WishlistRepository { return r.wishlists }

// SavedItems returns the saved item repository.
func (r *Registry) SavedItems() repositories.SavedItemRepository { return r.savedItems }

var _ repositories.Registry = (*Registry)(nil)
