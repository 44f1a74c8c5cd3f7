package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/artel-market/api/internal/domain"
)

func TestWishlistServiceAddSnapshotsProduct(t *testing.T) {
	now := time.Date(2025, 7, 1, 16, 0, 0, 0, time.UTC)
	var added domain.WishlistItem

	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-1", Name: "Clay Vase", Price: 2500, Image: "vase.webp"}, nil
		},
	}
	wishlists := &stubWishlistRepository{
		addFunc: func(ctx context.Context, userID string, item domain.WishlistItem) error {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			added = item
			return nil
		},
	}

	service := newTestWishlistService(t, WishlistServiceDeps{
		Wishlists: wishlists,
		Catalog:   catalog,
		Clock:     func() time.Time { return now },
	})

	item, err := service.AddToWishlist(context.Background(), "user-1", "prod-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ProductID != "prod-1" || item.Name != "Clay Vase" || item.Price != 2500 {
		t.Fatalf("unexpected snapshot: %+v", item)
	}
	if !item.AddedAt.Equal(now) {
		t.Fatalf("expected added timestamp %v, got %v", now, item.AddedAt)
	}
	if added.ProductID != "prod-1" {
		t.Fatalf("expected persisted item, got %+v", added)
	}
}

func TestWishlistServiceAddUnknownProduct(t *testing.T) {
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestWishlistService(t, WishlistServiceDeps{
		Wishlists: &stubWishlistRepository{},
		Catalog:   catalog,
		Clock:     time.Now,
	})

	if _, err := service.AddToWishlist(context.Background(), "user-1", "prod-missing"); !errors.Is(err, ErrWishlistNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWishlistServiceRemoveAbsentIsNoOp(t *testing.T) {
	wishlists := &stubWishlistRepository{
		removeFunc: func(ctx context.Context, userID string, productID string) error {
			return &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestWishlistService(t, WishlistServiceDeps{
		Wishlists: wishlists,
		Catalog:   &stubCatalogRepository{},
		Clock:     time.Now,
	})

	if err := service.RemoveFromWishlist(context.Background(), "user-1", "prod-1"); err != nil {
		t.Fatalf("expected no-op for absent entry, got %v", err)
	}
}

func newTestWishlistService(t *testing.T, deps WishlistServiceDeps) WishlistService {
	t.Helper()
	service, err := NewWishlistService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing wishlist service: %v", err)
	}
	return service
}

type stubWishlistRepository struct {
	listFunc   func(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	addFunc    func(ctx context.Context, userID string, item domain.WishlistItem) error
	removeFunc func(ctx context.Context, userID string, productID string) error
}

func (s *stubWishlistRepository) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID)
	}
	return nil, nil
}

func (s *stubWishlistRepository) Add(ctx context.Context, userID string, item domain.WishlistItem) error {
	if s.addFunc != nil {
		return s.addFunc(ctx, userID, item)
	}
	return nil
}

func (s *stubWishlistRepository) Remove(ctx context.Context, userID string, productID string) error {
	if s.removeFunc != nil {
		return s.removeFunc(ctx, userID, productID)
	}
	return nil
}
