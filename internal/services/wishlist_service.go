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
	errWishlistRepositoryRequired = errors.New("wishlist service: wishlist repository is required")
	errWishlistCatalogRequired    = errors.New("wishlist service: catalog repository is required")
	errWishlistClockRequired      = errors.New("wishlist service: clock is required")
)

// ErrWishlistInvalidInput indicates the caller supplied invalid input.
var ErrWishlistInvalidInput = errors.New("wishlist service: invalid input")

// ErrWishlistNotFound indicates the referenced product does not exist.
var ErrWishlistNotFound = errors.New("wishlist service: not found")

// ErrWishlistUnavailable indicates the wishlist backend cannot serve the request.
var ErrWishlistUnavailable = errors.New("wishlist service: unavailable")

// WishlistServiceDeps wires the wishlist and catalog repositories.
type WishlistServiceDeps struct {
	Wishlists repositories.WishlistRepository
	Catalog   repositories.CatalogRepository
	Clock     func() time.Time
	Logger    func(context.Context, string, map[string]any)
}

type wishlistService struct {
	wishlists repositories.WishlistRepository
	catalog   repositories.CatalogRepository
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewWishlistService constructs a WishlistService enforcing dependency validation.
func NewWishlistService(deps WishlistServiceDeps) (WishlistService, error) {
	if deps.Wishlists == nil {
		return nil, errWishlistRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errWishlistCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errWishlistClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &wishlistService{
		wishlists: deps.Wishlists,
		catalog:   deps.Catalog,
		now:       func() time.Time { return deps.Clock().UTC() },
		logger:    logger,
	}, nil
}

func (s *wishlistService) ListWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	if s == nil || s.wishlists == nil {
		return nil, ErrWishlistUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrWishlistInvalidInput
	}

	items, err := s.wishlists.List(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return items, nil
}

// AddToWishlist snapshots the product into the user's wishlist. Adding a
// product already present refreshes the snapshot.
func (s *wishlistService) AddToWishlist(ctx context.Context, userID string, productID string) (domain.WishlistItem, error) {
	if s == nil || s.wishlists == nil || s.catalog == nil {
		return domain.WishlistItem{}, ErrWishlistUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.WishlistItem{}, ErrWishlistInvalidInput
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.WishlistItem{}, fmt.Errorf("%w: product id is required", ErrWishlistInvalidInput)
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return domain.WishlistItem{}, s.translateRepoError(err)
	}

	item := domain.WishlistItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		AddedAt:   s.now(),
	}
	if err := s.wishlists.Add(ctx, uid, item); err != nil {
		s.logger(ctx, "wishlist.add_failed", map[string]any{
			"userId":    uid,
			"productId": productID,
			"error":     err.Error(),
		})
		return domain.WishlistItem{}, s.translateRepoError(err)
	}
	return item, nil
}

// RemoveFromWishlist removes the product entry. Removing an absent entry is a no-op.
func (s *wishlistService) RemoveFromWishlist(ctx context.Context, userID string, productID string) error {
	if s == nil || s.wishlists == nil {
		return ErrWishlistUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrWishlistInvalidInput
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrWishlistInvalidInput)
	}

	if err := s.wishlists.Remove(ctx, uid, productID); err != nil && !isRepoNotFound(err) {
		return s.translateRepoError(err)
	}
	return nil
}

func (s *wishlistService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrWishlistNotFound
		}
		return ErrWishlistUnavailable
	}
	return ErrWishlistUnavailable
}
