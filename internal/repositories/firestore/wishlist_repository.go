package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/artel-market/api/internal/domain"
	pfirestore "github.com/artel-market/api/internal/platform/firestore"
	"github.com/artel-market/api/internal/repositories"
)

const wishlistCollectionPattern = "users/%s/wishlist"

// WishlistRepository persists wishlist entries per user.
type WishlistRepository struct {
	provider *pfirestore.Provider
}

// NewWishlistRepository constructs a Firestore-backed wishlist repository.
func NewWishlistRepository(provider *pfirestore.Provider) (*WishlistRepository, error) {
	if provider == nil {
		return nil, errors.New("wishlist repository requires firestore provider")
	}
	return &WishlistRepository{provider: provider}, nil
}

// List returns wishlist entries ordered by most recent addition.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("addedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var items []domain.WishlistItem
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("wishlist.list", err)
		}
		var doc wishlistItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode wishlist item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, domain.WishlistItem{
			ProductID: snap.Ref.ID,
			Name:      doc.Name,
			Price:     doc.Price,
			Image:     doc.Image,
			AddedAt:   doc.AddedAt,
		})
	}
	return items, nil
}

// Add stores or overwrites the wishlist entry keyed by product ID.
func (r *WishlistRepository) Add(ctx context.Context, userID string, item domain.WishlistItem) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	productID := strings.TrimSpace(item.ProductID)
	if productID == "" {
		return errors.New("wishlist repository: product id is required")
	}

	doc := wishlistItemDocument{
		Name:    item.Name,
		Price:   item.Price,
		Image:   item.Image,
		AddedAt: item.AddedAt.UTC(),
	}
	if _, err := coll.Doc(productID).Set(ctx, doc); err != nil {
		return pfirestore.WrapError("wishlist.add", err)
	}
	return nil
}

// Remove deletes the wishlist entry. Removing an absent entry is not an error.
func (r *WishlistRepository) Remove(ctx context.Context, userID string, productID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("wishlist repository: product id is required")
	}
	if _, err := coll.Doc(productID).Delete(ctx); err != nil {
		return pfirestore.WrapError("wishlist.remove", err)
	}
	return nil
}

func (r *WishlistRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("wishlist repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("wishlist repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(wishlistCollectionPattern, uid)), nil
}

type wishlistItemDocument struct {
	Name    string    `firestore:"name"`
	Price   int64     `firestore:"price"`
	Image   string    `firestore:"image,omitempty"`
	AddedAt time.Time `firestore:"addedAt"`
}

var _ repositories.WishlistRepository = (*WishlistRepository)(nil)
