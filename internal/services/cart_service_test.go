package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/events"
	"github.com/artel-market/api/internal/repositories"
)

func TestCartServiceGetCartReturnsEmptyWhenMissing(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return domain.Cart{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: &stubCatalogRepository{},
		Clock:   func() time.Time { return now },
	})

	cart, err := service.GetCart(context.Background(), " user-1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.UserID != "user-1" {
		t.Fatalf("expected user id user-1, got %q", cart.UserID)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}
}

func TestCartServiceAddItemCreatesLineWithDefaults(t *testing.T) {
	now := time.Date(2025, 3, 4, 11, 0, 0, 0, time.UTC)
	var saved domain.Cart
	var published []events.Event

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{}, &repositoryErrorStub{notFound: true}
		},
		saveFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			saved = cart
			return cart, nil
		},
	}
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			if productID != "prod-1" {
				t.Fatalf("unexpected product id %q", productID)
			}
			return domain.Product{ID: "prod-1", Name: "Clay Vase", Price: 2500, Stock: 7, Image: "vase.webp"}, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:       repo,
		Catalog:     catalog,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "line-abc" },
		Events: func(ctx context.Context, event events.Event) {
			published = append(published, event)
		},
	})

	cart, err := service.AddItem(context.Background(), AddItemCommand{
		UserID:    "user-1",
		ProductID: "prod-1",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	line := cart.Lines[0]
	if line.ID != "line-abc" {
		t.Fatalf("expected generated line id, got %q", line.ID)
	}
	if line.Quantity != 2 || line.StockCeiling != 7 {
		t.Fatalf("unexpected quantity/ceiling: %d/%d", line.Quantity, line.StockCeiling)
	}
	if line.Name != "Clay Vase" || line.Price != 2500 || line.Image != "vase.webp" {
		t.Fatalf("unexpected snapshot: %+v", line)
	}
	if line.Attributes.Size != "medium" || line.Attributes.Color != "blue" {
		t.Fatalf("expected default attributes, got %+v", line.Attributes)
	}
	if line.Attributes.Material != "Plastic" || line.Attributes.Seller != "Artel Market" {
		t.Fatalf("expected default attributes, got %+v", line.Attributes)
	}
	if saved.UserID != "user-1" {
		t.Fatalf("expected persisted cart for user-1, got %q", saved.UserID)
	}

	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	if published[0].Type != events.TypeCartUpdated {
		t.Fatalf("unexpected event type %q", published[0].Type)
	}
	if published[0].Payload["itemCount"] != 2 {
		t.Fatalf("unexpected item count payload: %v", published[0].Payload["itemCount"])
	}
	if published[0].Payload["subtotal"] != int64(5000) {
		t.Fatalf("unexpected subtotal payload: %v", published[0].Payload["subtotal"])
	}
}

func TestCartServiceAddItemMergesAndClampsToStock(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines: []domain.CartLine{
					{ID: "line-1", ProductID: "prod-1", Name: "Clay Vase", Price: 2500, Quantity: 3, StockCeiling: 4, AddedAt: now.Add(-time.Hour)},
				},
				UpdatedAt: now.Add(-time.Hour),
			}, nil
		},
	}
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-1", Name: "Clay Vase", Price: 2500, Stock: 4}, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: catalog,
		Clock:   func() time.Time { return now },
	})

	cart, err := service.AddItem(context.Background(), AddItemCommand{
		UserID:    "user-1",
		ProductID: "prod-1",
		Quantity:  5,
	})
	if !errors.Is(err, ErrCartStockExceeded) {
		t.Fatalf("expected stock exceeded advisory, got %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 4 {
		t.Fatalf("expected quantity clamped to 4, got %d", cart.Lines[0].Quantity)
	}
	if cart.Lines[0].UpdatedAt == nil || !cart.Lines[0].UpdatedAt.Equal(now) {
		t.Fatalf("expected line updated timestamp %v, got %v", now, cart.Lines[0].UpdatedAt)
	}
}

func TestCartServiceClampKeepsSubtotalConsistent(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines: []domain.CartLine{
					{ID: "line-a", ProductID: "prod-a", Name: "Mug", Price: 1000, Quantity: 2, StockCeiling: 5},
					{ID: "line-b", ProductID: "prod-b", Name: "Bowl", Price: 2500, Quantity: 1, StockCeiling: 1},
				},
			}, nil
		},
	}
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-a", Name: "Mug", Price: 1000, Stock: 5}, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: catalog,
		Clock:   func() time.Time { return now },
	})

	cart, err := service.AddItem(context.Background(), AddItemCommand{
		UserID:    "user-1",
		ProductID: "prod-a",
		Quantity:  10,
	})
	if !errors.Is(err, ErrCartStockExceeded) {
		t.Fatalf("expected stock exceeded advisory, got %v", err)
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity clamped to 5, got %d", cart.Lines[0].Quantity)
	}
	if got := cart.Subtotal(); got != 7500 {
		t.Fatalf("subtotal after clamp = %d, want 7500", got)
	}
	if got := cart.ItemCount(); got != 6 {
		t.Fatalf("item count after clamp = %d, want 6", got)
	}
}

func TestCartServiceAddItemRejectsInvalidInput(t *testing.T) {
	service := newTestCartService(t, CartServiceDeps{
		Carts: &stubCartRepository{},
		Catalog: &stubCatalogRepository{
			findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
				return domain.Product{}, &repositoryErrorStub{notFound: true}
			},
		},
		Clock: time.Now,
	})

	cases := []AddItemCommand{
		{UserID: "", ProductID: "prod-1", Quantity: 1},
		{UserID: "user-1", ProductID: " ", Quantity: 1},
		{UserID: "user-1", ProductID: "prod-1", Quantity: 0},
		{UserID: "user-1", ProductID: "prod-missing", Quantity: 1},
	}
	for _, cmd := range cases {
		if _, err := service.AddItem(context.Background(), cmd); !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", cmd, err)
		}
	}
}

func TestCartServiceUpdateQuantityRemovesLineAtZero(t *testing.T) {
	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	var saved domain.Cart

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines: []domain.CartLine{
					{ID: "line-1", ProductID: "prod-1", Quantity: 2, StockCeiling: 5},
					{ID: "line-2", ProductID: "prod-2", Quantity: 1, StockCeiling: 3},
				},
			}, nil
		},
		saveFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			saved = cart
			return cart, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: &stubCatalogRepository{},
		Clock:   func() time.Time { return now },
	})

	cart, err := service.UpdateQuantity(context.Background(), UpdateQuantityCommand{
		UserID:   "user-1",
		LineID:   "line-1",
		Quantity: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ID != "line-2" {
		t.Fatalf("expected only line-2 to remain, got %+v", cart.Lines)
	}
	if len(saved.Lines) != 1 {
		t.Fatalf("expected persisted cart with 1 line, got %d", len(saved.Lines))
	}
}

func TestCartServiceUpdateQuantityClampsToRefreshedStock(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines: []domain.CartLine{
					{ID: "line-1", ProductID: "prod-1", Quantity: 1, StockCeiling: 10},
				},
			}, nil
		},
	}
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-1", Stock: 2}, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: catalog,
		Clock:   func() time.Time { return now },
	})

	cart, err := service.UpdateQuantity(context.Background(), UpdateQuantityCommand{
		UserID:   "user-1",
		LineID:   "line-1",
		Quantity: 5,
	})
	if !errors.Is(err, ErrCartStockExceeded) {
		t.Fatalf("expected stock exceeded advisory, got %v", err)
	}
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity clamped to 2, got %d", cart.Lines[0].Quantity)
	}
	if cart.Lines[0].StockCeiling != 2 {
		t.Fatalf("expected refreshed ceiling 2, got %d", cart.Lines[0].StockCeiling)
	}
}

func TestCartServiceUpdateQuantityMissingLine(t *testing.T) {
	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{UserID: "user-1"}, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: &stubCatalogRepository{},
		Clock:   time.Now,
	})

	_, err := service.UpdateQuantity(context.Background(), UpdateQuantityCommand{
		UserID:   "user-1",
		LineID:   "line-missing",
		Quantity: 2,
	})
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCartServiceRemoveItemAbsentIsNoOp(t *testing.T) {
	saveCalled := false
	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines:  []domain.CartLine{{ID: "line-1", ProductID: "prod-1", Quantity: 1}},
			}, nil
		},
		saveFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			saveCalled = true
			return cart, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: &stubCatalogRepository{},
		Clock:   time.Now,
	})

	cart, err := service.RemoveItem(context.Background(), "user-1", "line-missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saveCalled {
		t.Fatalf("expected no write for absent line")
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected cart unchanged, got %d lines", len(cart.Lines))
	}
}

func TestCartServiceRemoveItemAcceptsProductID(t *testing.T) {
	var savedCart *domain.Cart
	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines: []domain.CartLine{
					{ID: "line-1", ProductID: "prod-1", Quantity: 1},
					{ID: "line-2", ProductID: "prod-2", Quantity: 3},
				},
			}, nil
		},
		saveFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			savedCart = &cart
			return cart, nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: &stubCatalogRepository{},
		Clock:   time.Now,
	})

	cart, err := service.RemoveItem(context.Background(), "user-1", "prod-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedCart == nil {
		t.Fatal("expected cart write")
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ID != "line-1" {
		t.Fatalf("unexpected lines after remove: %+v", cart.Lines)
	}
}

func TestCartServiceClearCartDeletesAndPublishes(t *testing.T) {
	now := time.Date(2025, 3, 6, 8, 0, 0, 0, time.UTC)
	deleted := ""
	var published []events.Event

	repo := &stubCartRepository{
		deleteFunc: func(ctx context.Context, userID string) error {
			deleted = userID
			return nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:   repo,
		Catalog: &stubCatalogRepository{},
		Clock:   func() time.Time { return now },
		Events: func(ctx context.Context, event events.Event) {
			published = append(published, event)
		},
	})

	if err := service.ClearCart(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "user-1" {
		t.Fatalf("expected delete for user-1, got %q", deleted)
	}
	if len(published) != 1 || published[0].Type != events.TypeCartUpdated {
		t.Fatalf("expected cart.updated event, got %+v", published)
	}
	if published[0].Payload["itemCount"] != 0 {
		t.Fatalf("expected zero item count, got %v", published[0].Payload["itemCount"])
	}
}

func TestCartServiceSaveForLaterMovesLine(t *testing.T) {
	now := time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC)
	var savedItem domain.SavedItem

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{
				UserID: "user-1",
				Lines: []domain.CartLine{
					{ID: "line-1", ProductID: "prod-1", Name: "Clay Vase", Price: 2500, Image: "vase.webp", Quantity: 3},
				},
			}, nil
		},
	}
	savedRepo := &stubSavedItemRepository{
		addFunc: func(ctx context.Context, userID string, item domain.SavedItem) error {
			savedItem = item
			return nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:      repo,
		Catalog:    &stubCatalogRepository{},
		SavedItems: savedRepo,
		Clock:      func() time.Time { return now },
	})

	cart, err := service.SaveForLater(context.Background(), "user-1", "line-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected line moved out of cart, got %d lines", len(cart.Lines))
	}
	if savedItem.ID != "line-1" || savedItem.ProductID != "prod-1" {
		t.Fatalf("unexpected saved item: %+v", savedItem)
	}
	if savedItem.Price != 2500 || !savedItem.SavedAt.Equal(now) {
		t.Fatalf("unexpected saved snapshot: %+v", savedItem)
	}
}

func TestCartServiceMoveToCartAddsQuantityOne(t *testing.T) {
	now := time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC)
	removed := ""

	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, userID string) (domain.Cart, error) {
			return domain.Cart{}, &repositoryErrorStub{notFound: true}
		},
	}
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-1", Name: "Clay Vase", Price: 2500, Stock: 5}, nil
		},
	}
	savedRepo := &stubSavedItemRepository{
		listFunc: func(ctx context.Context, userID string) ([]domain.SavedItem, error) {
			return []domain.SavedItem{
				{ID: "saved-1", ProductID: "prod-1", Name: "Clay Vase", Price: 2500},
			}, nil
		},
		removeFunc: func(ctx context.Context, userID string, itemID string) error {
			removed = itemID
			return nil
		},
	}

	service := newTestCartService(t, CartServiceDeps{
		Carts:      repo,
		Catalog:    catalog,
		SavedItems: savedRepo,
		Clock:      func() time.Time { return now },
	})

	cart, err := service.MoveToCart(context.Background(), "user-1", "saved-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 1 {
		t.Fatalf("expected single line with quantity 1, got %+v", cart.Lines)
	}
	if removed != "saved-1" {
		t.Fatalf("expected saved item removed, got %q", removed)
	}
}

func newTestCartService(t *testing.T, deps CartServiceDeps) CartService {
	t.Helper()
	service, err := NewCartService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing cart service: %v", err)
	}
	return service
}

type stubCartRepository struct {
	getFunc    func(ctx context.Context, userID string) (domain.Cart, error)
	saveFunc   func(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	deleteFunc func(ctx context.Context, userID string) error
}

func (s *stubCartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, userID)
	}
	return domain.Cart{}, &repositoryErrorStub{notFound: true}
}

func (s *stubCartRepository) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if s.saveFunc != nil {
		return s.saveFunc(ctx, cart)
	}
	return cart, nil
}

func (s *stubCartRepository) Delete(ctx context.Context, userID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, userID)
	}
	return nil
}

type stubCatalogRepository struct {
	listFunc   func(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error)
	findFunc   func(ctx context.Context, productID string) (domain.Product, error)
	insertFunc func(ctx context.Context, product domain.Product) (domain.Product, error)
	updateFunc func(ctx context.Context, product domain.Product) (domain.Product, error)
	deleteFunc func(ctx context.Context, productID string) error
}

func (s *stubCatalogRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return nil, nil
}

func (s *stubCatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findFunc != nil {
		return s.findFunc(ctx, productID)
	}
	return domain.Product{}, &repositoryErrorStub{notFound: true}
}

func (s *stubCatalogRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, product)
	}
	return product, nil
}

func (s *stubCatalogRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, product)
	}
	return product, nil
}

func (s *stubCatalogRepository) Delete(ctx context.Context, productID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, productID)
	}
	return nil
}

type stubSavedItemRepository struct {
	listFunc   func(ctx context.Context, userID string) ([]domain.SavedItem, error)
	addFunc    func(ctx context.Context, userID string, item domain.SavedItem) error
	removeFunc func(ctx context.Context, userID string, itemID string) error
}

func (s *stubSavedItemRepository) List(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID)
	}
	return nil, nil
}

func (s *stubSavedItemRepository) Add(ctx context.Context, userID string, item domain.SavedItem) error {
	if s.addFunc != nil {
		return s.addFunc(ctx, userID, item)
	}
	return nil
}

func (s *stubSavedItemRepository) Remove(ctx context.Context, userID string, itemID string) error {
	if s.removeFunc != nil {
		return s.removeFunc(ctx, userID, itemID)
	}
	return nil
}

type repositoryErrorStub struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repositoryErrorStub) Error() string {
	return "repository error"
}

func (e *repositoryErrorStub) IsNotFound() bool {
	return e.notFound
}

func (e *repositoryErrorStub) IsConflict() bool {
	return e.conflict
}

func (e *repositoryErrorStub) IsUnavailable() bool {
	return e.unavailable
}
