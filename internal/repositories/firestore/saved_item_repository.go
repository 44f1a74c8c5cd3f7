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

const savedItemCollectionPattern = "users/%s/savedItems"

// SavedItemRepository persists saved-for-later entries per user.
type SavedItemRepository struct {
	provider *pfirestore.Provider
}

// NewSavedItemRepository constructs a Firestore-backed saved item repository.
func NewSavedItemRepository(provider *pfirestore.Provider) (*SavedItemRepository, error) {
	if provider == nil {
		return nil, errors.New("saved item repository requires firestore provider")
	}
	return &SavedItemRepository{provider: provider}, nil
}

// List returns saved items ordered by most recent save.
func (r *SavedItemRepository) List(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("savedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var items []domain.SavedItem
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("savedItems.list", err)
		}
		var doc savedItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode saved item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, domain.SavedItem{
			ID:        snap.Ref.ID,
			ProductID: doc.ProductID,
			Name:      doc.Name,
			Price:     doc.Price,
			Image:     doc.Image,
			Category:  doc.Category,
			SavedAt:   doc.SavedAt,
		})
	}
	return items, nil
}

// Add stores the saved item keyed by its entry ID.
func (r *SavedItemRepository) Add(ctx context.Context, userID string, item domain.SavedItem) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	itemID := strings.TrimSpace(item.ID)
	if itemID == "" {
		return errors.New("saved item repository: item id is required")
	}

	doc := savedItemDocument{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Image:     item.Image,
		Category:  item.Category,
		SavedAt:   item.SavedAt.UTC(),
	}
	if _, err := coll.Doc(itemID).Set(ctx, doc); err != nil {
		return pfirestore.WrapError("savedItems.add", err)
	}
	return nil
}

// Remove deletes the saved item. Removing an absent entry is not an error.
func (r *SavedItemRepository) Remove(ctx context.Context, userID string, itemID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return errors.New("saved item repository: item id is required")
	}
	if _, err := coll.Doc(itemID).Delete(ctx); err != nil {
		return pfirestore.WrapError("savedItems.remove", err)
	}
	return nil
}

func (r *SavedItemRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("saved item repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("saved item repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(savedItemCollectionPattern, uid)), nil
}

type savedItemDocument struct {
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Price     int64     `firestore:"price"`
	Image     string    `firestore:"image,omitempty"`
	Category  string    `firestore:"category,omitempty"`
	SavedAt   time.Time `firestore:"savedAt"`
}

var _ repositories.SavedItemRepository = (*SavedItemRepository)(nil)
