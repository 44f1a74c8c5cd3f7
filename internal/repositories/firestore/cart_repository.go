package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/artel-market/api/internal/domain"
	pfirestore "github.com/artel-market/api/internal/platform/firestore"
	"github.com/artel-market/api/internal/repositories"
)

const cartCollection = "carts"

// CartRepository persists one cart document per user within Firestore.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil)
	return &CartRepository{base: base}, nil
}

// Get loads the cart document for the given user ID.
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{
		UserID: doc.ID,
		Lines:  make([]domain.CartLine, 0, len(doc.Data.Lines)),
		UpdatedAt: func() time.Time {
			if !doc.UpdateTime.IsZero() {
				return doc.UpdateTime
			}
			return doc.Data.UpdatedAt
		}(),
	}
	for _, line := range doc.Data.Lines {
		cart.Lines = append(cart.Lines, line.toDomain())
	}
	return cart, nil
}

// Save replaces the entire cart document for the cart's user.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(cart.UserID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	updatedAt := cart.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	doc := cartDocument{
		Lines:     make([]cartLineDocument, 0, len(cart.Lines)),
		ItemCount: cart.ItemCount(),
		UpdatedAt: updatedAt,
	}
	for _, line := range cart.Lines {
		doc.Lines = append(doc.Lines, newCartLineDocument(line))
	}

	result, err := r.base.Set(ctx, uid, doc)
	if err != nil {
		return domain.Cart{}, err
	}

	saved := cart
	saved.UserID = uid
	saved.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(saved.Lines, cart.Lines)
	saved.UpdatedAt = result.UpdateTime
	return saved, nil
}

// Delete removes the cart document. Deleting an absent cart is not an error.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return errors.New("cart repository: user id is required")
	}
	_, err := r.base.Delete(ctx, uid)
	return err
}

type cartDocument struct {
	Lines     []cartLineDocument `firestore:"lines"`
	ItemCount int                `firestore:"itemCount"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	ID           string     `firestore:"id"`
	ProductID    string     `firestore:"productId"`
	Name         string     `firestore:"name"`
	Price        int64      `firestore:"price"`
	Image        string     `firestore:"image,omitempty"`
	Quantity     int        `firestore:"quantity"`
	StockCeiling int        `firestore:"stockCeiling"`
	Size         string     `firestore:"size,omitempty"`
	Color        string     `firestore:"color,omitempty"`
	Material     string     `firestore:"material,omitempty"`
	Seller       string     `firestore:"seller,omitempty"`
	AddedAt      time.Time  `firestore:"addedAt"`
	UpdatedAt    *time.Time `firestore:"updatedAt,omitempty"`
}

func newCartLineDocument(line domain.CartLine) cartLineDocument {
	return cartLineDocument{
		ID:           line.ID,
		ProductID:    line.ProductID,
		Name:         line.Name,
		Price:        line.Price,
		Image:        line.Image,
		Quantity:     line.Quantity,
		StockCeiling: line.StockCeiling,
		Size:         line.Attributes.Size,
		Color:        line.Attributes.Color,
		Material:     line.Attributes.Material,
		Seller:       line.Attributes.Seller,
		AddedAt:      line.AddedAt,
		UpdatedAt:    line.UpdatedAt,
	}
}

func (d cartLineDocument) toDomain() domain.CartLine {
	return domain.CartLine{
		ID:           d.ID,
		ProductID:    d.ProductID,
		Name:         d.Name,
		Price:        d.Price,
		Image:        d.Image,
		Quantity:     d.Quantity,
		StockCeiling: d.StockCeiling,
		Attributes: domain.LineAttributes{
			Size:     d.Size,
			Color:    d.Color,
			Material: d.Material,
			Seller:   d.Seller,
		},
		AddedAt:   d.AddedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.CartRepository = (*CartRepository)(nil)
