package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/artel-market/api/internal/domain"
	pfirestore "github.com/artel-market/api/internal/platform/firestore"
	"github.com/artel-market/api/internal/repositories"
)

const productCollection = "products"

// CatalogRepository manages product documents within Firestore.
type CatalogRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &CatalogRepository{base: base}, nil
}

// List returns products matching the filter, newest first.
func (r *CatalogRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if category := strings.TrimSpace(filter.Category); category != "" {
			// Firestore equality is case sensitive; match on the folded key.
			query = query.Where("categoryKey", "==", strings.ToLower(category))
		}
		if filter.FeaturedOnly {
			query = query.Where("featured", "==", true)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(doc.ID))
	}
	return products, nil
}

// FindByID loads one product by its document ID.
func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("catalog repository: product id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Insert stores a new product document.
func (r *CatalogRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	return r.write(ctx, product)
}

// Update replaces an existing product document.
func (r *CatalogRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	return r.write(ctx, product)
}

func (r *CatalogRepository) write(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return domain.Product{}, errors.New("catalog repository: product id is required")
	}

	doc := newProductDocument(product)
	result, err := r.base.Set(ctx, id, doc)
	if err != nil {
		return domain.Product{}, err
	}

	saved := product
	saved.ID = id
	saved.UpdatedAt = result.UpdateTime
	return saved, nil
}

// Delete removes the product document.
func (r *CatalogRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return errors.New("catalog repository: product id is required")
	}
	_, err := r.base.Delete(ctx, id)
	return err
}

type productDocument struct {
	Name        string    `firestore:"name"`
	Price       int64     `firestore:"price"`
	Stock       int       `firestore:"stock"`
	Category    string    `firestore:"category"`
	CategoryKey string    `firestore:"categoryKey,omitempty"`
	Description string    `firestore:"description,omitempty"`
	Image       string    `firestore:"image,omitempty"`
	Featured    bool      `firestore:"featured"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		Name:        product.Name,
		Price:       product.Price,
		Stock:       product.Stock,
		Category:    product.Category,
		CategoryKey: strings.ToLower(strings.TrimSpace(product.Category)),
		Description: product.Description,
		Image:       product.Image,
		Featured:    product.Featured,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        d.Name,
		Price:       d.Price,
		Stock:       d.Stock,
		Category:    d.Category,
		Description: d.Description,
		Image:       d.Image,
		Featured:    d.Featured,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
