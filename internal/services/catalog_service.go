package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/events"
	"github.com/artel-market/api/internal/platform/storage"
	"github.com/artel-market/api/internal/repositories"
)

var (
	errCatalogRepositoryRequired = errors.New("catalog service: catalog repository is required")
	errCatalogClockRequired      = errors.New("catalog service: clock is required")
)

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogNotFound indicates the requested product does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogUnavailable indicates the catalog backend cannot serve the request.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

const (
	defaultListLimit    = 50
	maxListLimit        = 100
	defaultRelatedLimit = 4
)

// UploadSigner issues signed upload slots for product media.
type UploadSigner interface {
	SignUpload(ctx context.Context, object string, contentType string) (storage.UploadURL, error)
}

// CatalogServiceDeps wires the catalog repository and supporting helpers.
type CatalogServiceDeps struct {
	Catalog     repositories.CatalogRepository
	Uploads     UploadSigner
	Events      EventSink
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type catalogService struct {
	catalog repositories.CatalogRepository
	uploads UploadSigner
	events  EventSink
	now     func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
	policy  *bluemonday.Policy
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errCatalogRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errCatalogClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	sink := deps.Events
	if sink == nil {
		sink = func(context.Context, events.Event) {}
	}

	return &catalogService{
		catalog: deps.Catalog,
		uploads: deps.Uploads,
		events:  sink,
		now:     func() time.Time { return deps.Clock().UTC() },
		newID:   idGen,
		logger:  logger,
		policy:  bluemonday.StrictPolicy(),
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	if s == nil || s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	products, err := s.catalog.List(ctx, repositories.ProductListFilter{
		Category:     strings.TrimSpace(filter.Category),
		FeaturedOnly: filter.FeaturedOnly,
		Limit:        limit,
	})
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s == nil || s.catalog == nil {
		return domain.Product{}, ErrCatalogUnavailable
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.translateRepoError(err)
	}
	return product, nil
}

// SearchProducts matches the query against product names, descriptions, and
// categories. Matching is case and diacritic insensitive.
func (s *catalogService) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	if s == nil || s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}

	products, err := s.catalog.List(ctx, repositories.ProductListFilter{Limit: maxListLimit})
	if err != nil {
		return nil, s.translateRepoError(err)
	}

	needle := foldForSearch(query)
	matches := []domain.Product{}
	for _, product := range products {
		haystack := foldForSearch(product.Name + " " + product.Description + " " + product.Category)
		if strings.Contains(haystack, needle) {
			matches = append(matches, product)
		}
	}
	return matches, nil
}

// RelatedProducts returns other products sharing the category, excluding the
// product itself.
func (s *catalogService) RelatedProducts(ctx context.Context, productID string, limit int) ([]domain.Product, error) {
	if s == nil || s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrCatalogInvalidInput
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, s.translateRepoError(err)
	}

	candidates, err := s.catalog.List(ctx, repositories.ProductListFilter{
		Category: product.Category,
		Limit:    limit + 1,
	})
	if err != nil {
		return nil, s.translateRepoError(err)
	}

	related := []domain.Product{}
	for _, candidate := range candidates {
		if candidate.ID == product.ID {
			continue
		}
		related = append(related, candidate)
		if len(related) >= limit {
			break
		}
	}
	return related, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd ProductCommand) (domain.Product, error) {
	if s == nil || s.catalog == nil {
		return domain.Product{}, ErrCatalogUnavailable
	}

	product, err := s.productFromCommand(cmd)
	if err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product.ID = strings.TrimSpace(s.newID())
	if product.ID == "" {
		return domain.Product{}, fmt.Errorf("catalog service: id generation failed")
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := s.catalog.Insert(ctx, product)
	if err != nil {
		s.logger(ctx, "catalog.create_failed", map[string]any{
			"productId": product.ID,
			"error":     err.Error(),
		})
		return domain.Product{}, s.translateRepoError(err)
	}

	s.publishProductChanged(ctx, created.ID, "created", now)
	return created, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID string, cmd ProductCommand) (domain.Product, error) {
	if s == nil || s.catalog == nil {
		return domain.Product{}, ErrCatalogUnavailable
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	existing, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.translateRepoError(err)
	}

	product, err := s.productFromCommand(cmd)
	if err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = now

	updated, err := s.catalog.Update(ctx, product)
	if err != nil {
		s.logger(ctx, "catalog.update_failed", map[string]any{
			"productId": productID,
			"error":     err.Error(),
		})
		return domain.Product{}, s.translateRepoError(err)
	}

	s.publishProductChanged(ctx, updated.ID, "updated", now)
	return updated, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s == nil || s.catalog == nil {
		return ErrCatalogUnavailable
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrCatalogInvalidInput
	}

	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		return s.translateRepoError(err)
	}
	if err := s.catalog.Delete(ctx, productID); err != nil {
		return s.translateRepoError(err)
	}

	s.publishProductChanged(ctx, productID, "deleted", s.now())
	return nil
}

// ImageUploadURL issues a signed PUT slot under the product's media prefix.
func (s *catalogService) ImageUploadURL(ctx context.Context, productID string, contentType string) (ImageUpload, error) {
	if s == nil || s.catalog == nil {
		return ImageUpload{}, ErrCatalogUnavailable
	}
	if s.uploads == nil {
		return ImageUpload{}, ErrCatalogUnavailable
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ImageUpload{}, ErrCatalogInvalidInput
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ImageUpload{}, fmt.Errorf("%w: content type is required", ErrCatalogInvalidInput)
	}

	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		return ImageUpload{}, s.translateRepoError(err)
	}

	object := path.Join("products", productID, strings.ToLower(s.newID()))
	signed, err := s.uploads.SignUpload(ctx, object, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeNotAllowed) {
			return ImageUpload{}, fmt.Errorf("%w: unsupported content type %q", ErrCatalogInvalidInput, contentType)
		}
		s.logger(ctx, "catalog.sign_upload_failed", map[string]any{
			"productId": productID,
			"error":     err.Error(),
		})
		return ImageUpload{}, ErrCatalogUnavailable
	}

	return ImageUpload{
		URL:       signed.URL,
		Method:    signed.Method,
		ObjectKey: object,
		Headers:   signed.Headers,
	}, nil
}

func (s *catalogService) productFromCommand(cmd ProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(s.policy.Sanitize(cmd.Name))
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if cmd.Price < 0 {
		return domain.Product{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrCatalogInvalidInput)
	}

	return domain.Product{
		Name:        name,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Category:    strings.TrimSpace(cmd.Category),
		Description: strings.TrimSpace(s.policy.Sanitize(cmd.Description)),
		Image:       strings.TrimSpace(cmd.Image),
		Featured:    cmd.Featured,
	}, nil
}

func (s *catalogService) publishProductChanged(ctx context.Context, productID string, action string, at time.Time) {
	s.events(ctx, events.Event{
		Type:       events.TypeProductChanged,
		EntityID:   productID,
		OccurredAt: at,
		Payload:    map[string]any{"action": action},
	})
}

func (s *catalogService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCatalogNotFound
		}
		return ErrCatalogUnavailable
	}
	return ErrCatalogUnavailable
}

// foldForSearch lowercases and strips combining marks so that queries match
// regardless of case or accents.
func foldForSearch(value string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(folded)
}
