package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/events"
	"github.com/artel-market/api/internal/platform/storage"
	"github.com/artel-market/api/internal/repositories"
)

func TestCatalogServiceSearchFoldsAccentsAndCase(t *testing.T) {
	catalog := &stubCatalogRepository{
		listFunc: func(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
			return []domain.Product{
				{ID: "p1", Name: "Café Table", Category: "furniture"},
				{ID: "p2", Name: "Desk Lamp", Description: "warm light"},
				{ID: "p3", Name: "Àrtisan Bowl", Category: "kitchen"},
			}, nil
		},
	}

	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog: catalog,
		Clock:   time.Now,
	})

	matches, err := service.SearchProducts(context.Background(), "CAFE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "p1" {
		t.Fatalf("expected accented match for p1, got %+v", matches)
	}

	matches, err = service.SearchProducts(context.Background(), "artisan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "p3" {
		t.Fatalf("expected accented match for p3, got %+v", matches)
	}

	matches, err = service.SearchProducts(context.Background(), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty result for blank query, got %+v", matches)
	}
}

func TestCatalogServiceCreateProductSanitizesAndStamps(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	var inserted domain.Product
	var published []events.Event

	catalog := &stubCatalogRepository{
		insertFunc: func(ctx context.Context, product domain.Product) (domain.Product, error) {
			inserted = product
			return product, nil
		},
	}

	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog:     catalog,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "prod-new" },
		Events: func(ctx context.Context, event events.Event) {
			published = append(published, event)
		},
	})

	created, err := service.CreateProduct(context.Background(), ProductCommand{
		Name:        "  Clay Vase <script>alert(1)</script> ",
		Price:       2500,
		Stock:       12,
		Category:    " pottery ",
		Description: "Hand thrown <b>stoneware</b>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID != "prod-new" {
		t.Fatalf("expected generated id, got %q", created.ID)
	}
	if strings.Contains(created.Name, "<") || strings.Contains(created.Name, "script") {
		t.Fatalf("expected sanitized name, got %q", created.Name)
	}
	if strings.Contains(created.Description, "<b>") {
		t.Fatalf("expected sanitized description, got %q", created.Description)
	}
	if created.Category != "pottery" {
		t.Fatalf("expected trimmed category, got %q", created.Category)
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps %v, got %v/%v", now, created.CreatedAt, created.UpdatedAt)
	}
	if inserted.ID != "prod-new" {
		t.Fatalf("expected insert with generated id, got %q", inserted.ID)
	}

	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	if published[0].Type != events.TypeProductChanged || published[0].EntityID != "prod-new" {
		t.Fatalf("unexpected event: %+v", published[0])
	}
	if published[0].Payload["action"] != "created" {
		t.Fatalf("expected created action, got %v", published[0].Payload["action"])
	}
}

func TestCatalogServiceCreateProductValidation(t *testing.T) {
	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog: &stubCatalogRepository{},
		Clock:   time.Now,
	})

	cases := []ProductCommand{
		{Name: "   ", Price: 100, Stock: 1},
		{Name: "Vase", Price: -1, Stock: 1},
		{Name: "Vase", Price: 100, Stock: -2},
	}
	for _, cmd := range cases {
		if _, err := service.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrCatalogInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", cmd, err)
		}
	}
}

func TestCatalogServiceUpdateProductKeepsCreatedAt(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-1", Name: "Old Name", CreatedAt: createdAt}, nil
		},
		updateFunc: func(ctx context.Context, product domain.Product) (domain.Product, error) {
			return product, nil
		},
	}

	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog: catalog,
		Clock:   func() time.Time { return now },
	})

	updated, err := service.UpdateProduct(context.Background(), "prod-1", ProductCommand{
		Name:  "New Name",
		Price: 900,
		Stock: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "New Name" {
		t.Fatalf("expected renamed product, got %q", updated.Name)
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created timestamp preserved, got %v", updated.CreatedAt)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated timestamp %v, got %v", now, updated.UpdatedAt)
	}
}

func TestCatalogServiceRelatedProductsExcludesSelf(t *testing.T) {
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "p1", Category: "pottery"}, nil
		},
		listFunc: func(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
			if filter.Category != "pottery" {
				t.Fatalf("expected category filter pottery, got %q", filter.Category)
			}
			return []domain.Product{
				{ID: "p1", Category: "pottery"},
				{ID: "p2", Category: "pottery"},
				{ID: "p3", Category: "pottery"},
			}, nil
		},
	}

	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog: catalog,
		Clock:   time.Now,
	})

	related, err := service.RelatedProducts(context.Background(), "p1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("expected 2 related products, got %d", len(related))
	}
	for _, product := range related {
		if product.ID == "p1" {
			t.Fatalf("expected p1 excluded from related products")
		}
	}
}

func TestCatalogServiceImageUploadURL(t *testing.T) {
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prod-1"}, nil
		},
	}
	uploads := &stubUploadSigner{
		signFunc: func(ctx context.Context, object string, contentType string) (storage.UploadURL, error) {
			if contentType == "application/zip" {
				return storage.UploadURL{}, storage.ErrContentTypeNotAllowed
			}
			return storage.UploadURL{
				URL:     "https://storage.example.com/" + object,
				Method:  "PUT",
				Headers: map[string]string{"Content-Type": contentType},
			}, nil
		},
	}

	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog:     catalog,
		Uploads:     uploads,
		Clock:       time.Now,
		IDGenerator: func() string { return "01HUPLOAD" },
	})

	upload, err := service.ImageUploadURL(context.Background(), "prod-1", "image/webp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upload.Method != "PUT" {
		t.Fatalf("expected PUT method, got %q", upload.Method)
	}
	if upload.ObjectKey != "products/prod-1/01hupload" {
		t.Fatalf("unexpected object key %q", upload.ObjectKey)
	}
	if upload.Headers["Content-Type"] != "image/webp" {
		t.Fatalf("unexpected headers: %+v", upload.Headers)
	}

	if _, err := service.ImageUploadURL(context.Background(), "prod-1", "application/zip"); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for denied content type, got %v", err)
	}
}

func TestCatalogServiceGetProductNotFound(t *testing.T) {
	catalog := &stubCatalogRepository{
		findFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestCatalogService(t, CatalogServiceDeps{
		Catalog: catalog,
		Clock:   time.Now,
	})

	if _, err := service.GetProduct(context.Background(), "prod-missing"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func newTestCatalogService(t *testing.T, deps CatalogServiceDeps) CatalogService {
	t.Helper()
	service, err := NewCatalogService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}
	return service
}

type stubUploadSigner struct {
	signFunc func(ctx context.Context, object string, contentType string) (storage.UploadURL, error)
}

func (s *stubUploadSigner) SignUpload(ctx context.Context, object string, contentType string) (storage.UploadURL, error) {
	if s.signFunc != nil {
		return s.signFunc(ctx, object, contentType)
	}
	return storage.UploadURL{}, nil
}
