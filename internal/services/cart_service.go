package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/artel-market/api/internal/domain"
	"github.com/artel-market/api/internal/platform/events"
	"github.com/artel-market/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: cart repository is required")
	errCartCatalogRequired    = errors.New("cart service: catalog repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartNotFound indicates the requested cart line does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to missing dependencies or backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartStockExceeded signals that a requested quantity was clamped to the
// product's stock ceiling. The returned cart reflects the committed, clamped
// state; the error is advisory.
var ErrCartStockExceeded = errors.New("cart service: stock exceeded")

// Line attribute defaults applied when the caller supplies none.
const (
	defaultLineSize     = "medium"
	defaultLineColor    = "blue"
	defaultLineMaterial = "Plastic"
	defaultLineSeller   = "Artel Market"
)

// EventSink receives committed state-change events. A nil sink drops events.
type EventSink func(ctx context.Context, event events.Event)

// CartServiceDeps wires the repositories and helpers for cart operations.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Catalog     repositories.CatalogRepository
	SavedItems  repositories.SavedItemRepository
	Events      EventSink
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type cartService struct {
	carts   repositories.CartRepository
	catalog repositories.CatalogRepository
	saved   repositories.SavedItemRepository
	events  EventSink
	now     func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
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

	return &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		saved:   deps.SavedItems,
		events:  sink,
		now:     func() time.Time { return deps.Clock().UTC() },
		newID:   idGen,
		logger:  logger,
	}, nil
}

// GetCart loads the user's cart. A missing cart document reads as an empty cart.
func (s *cartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	if s == nil || s.carts == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return s.emptyCart(uid), nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	return s.normaliseCart(cart, uid), nil
}

// AddItem merges the requested quantity into the user's cart, clamping against
// the product's current stock. Requests beyond the ceiling commit the clamped
// line and return ErrCartStockExceeded alongside the cart.
func (s *cartService) AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error) {
	if s == nil || s.carts == nil || s.catalog == nil {
		return domain.Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Cart{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: quantity must be greater than zero", ErrCartInvalidInput)
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{}, fmt.Errorf("%w: product not found", ErrCartInvalidInput)
		}
		return domain.Cart{}, s.translateRepoError(err)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	now := s.now()
	ceiling := product.Stock
	exceeded := false

	idx := indexOfLineByProduct(cart.Lines, productID)
	if idx >= 0 {
		requested := cart.Lines[idx].Quantity + cmd.Quantity
		quantity := requested
		if quantity > ceiling {
			quantity = ceiling
			exceeded = true
		}
		if quantity <= 0 {
			cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		} else {
			cart.Lines[idx].Quantity = quantity
			cart.Lines[idx].StockCeiling = ceiling
			ts := now
			cart.Lines[idx].UpdatedAt = &ts
		}
	} else {
		quantity := cmd.Quantity
		if quantity > ceiling {
			quantity = ceiling
			exceeded = true
		}
		if quantity > 0 {
			cart.Lines = append(cart.Lines, domain.CartLine{
				ID:           s.freshLineID(now),
				ProductID:    productID,
				Name:         product.Name,
				Price:        product.Price,
				Image:        product.Image,
				Quantity:     quantity,
				StockCeiling: ceiling,
				Attributes:   resolveAttributes(cmd.Attributes),
				AddedAt:      now,
			})
		} else {
			exceeded = true
		}
	}

	saved, err := s.commitCart(ctx, cart, now)
	if err != nil {
		return domain.Cart{}, err
	}
	if exceeded {
		return saved, ErrCartStockExceeded
	}
	return saved, nil
}

// UpdateQuantity sets the absolute quantity on an existing line. Zero or less
// removes the line; requests above the refreshed stock ceiling are clamped
// with an ErrCartStockExceeded advisory.
func (s *cartService) UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (domain.Cart, error) {
	if s == nil || s.carts == nil {
		return domain.Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	lineID := strings.TrimSpace(cmd.LineID)
	if lineID == "" {
		return domain.Cart{}, fmt.Errorf("%w: line id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexOfLine(cart.Lines, lineID)
	if idx < 0 {
		return domain.Cart{}, ErrCartNotFound
	}

	now := s.now()

	if cmd.Quantity <= 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		return s.commitCart(ctx, cart, now)
	}

	ceiling := cart.Lines[idx].StockCeiling
	if s.catalog != nil {
		product, err := s.catalog.FindByID(ctx, cart.Lines[idx].ProductID)
		switch {
		case err == nil:
			ceiling = product.Stock
		case isRepoNotFound(err):
			// Product withdrawn from the catalog; keep the last observed ceiling.
		default:
			return domain.Cart{}, s.translateRepoError(err)
		}
	}

	exceeded := false
	quantity := cmd.Quantity
	if quantity > ceiling {
		quantity = ceiling
		exceeded = true
	}

	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = quantity
		cart.Lines[idx].StockCeiling = ceiling
		ts := now
		cart.Lines[idx].UpdatedAt = &ts
	}

	saved, err := s.commitCart(ctx, cart, now)
	if err != nil {
		return domain.Cart{}, err
	}
	if exceeded {
		return saved, ErrCartStockExceeded
	}
	return saved, nil
}

// RemoveItem deletes the line if present. Removing an absent line is a no-op
// that returns the current cart.
func (s *cartService) RemoveItem(ctx context.Context, userID string, lineID string) (domain.Cart, error) {
	if s == nil || s.carts == nil {
		return domain.Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return domain.Cart{}, fmt.Errorf("%w: line id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexOfLine(cart.Lines, lineID)
	if idx < 0 {
		return cart, nil
	}

	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	return s.commitCart(ctx, cart, s.now())
}

// ClearCart removes every line for the user.
func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	if s == nil || s.carts == nil {
		return ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}

	if err := s.carts.Delete(ctx, uid); err != nil && !isRepoNotFound(err) {
		s.logger(ctx, "cart.clear_failed", map[string]any{
			"userId": uid,
			"error":  err.Error(),
		})
		return s.translateRepoError(err)
	}

	s.events(ctx, events.Event{
		Type:       events.TypeCartUpdated,
		UserID:     uid,
		OccurredAt: s.now(),
		Payload:    map[string]any{"itemCount": 0, "subtotal": int64(0)},
	})
	return nil
}

// SaveForLater moves a cart line to the user's saved list, dropping its quantity.
func (s *cartService) SaveForLater(ctx context.Context, userID string, lineID string) (domain.Cart, error) {
	if s == nil || s.carts == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	if s.saved == nil {
		return domain.Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return domain.Cart{}, fmt.Errorf("%w: line id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmptyCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexOfLine(cart.Lines, lineID)
	if idx < 0 {
		return domain.Cart{}, ErrCartNotFound
	}

	line := cart.Lines[idx]
	now := s.now()

	item := domain.SavedItem{
		ID:        line.ID,
		ProductID: line.ProductID,
		Name:      line.Name,
		Price:     line.Price,
		Image:     line.Image,
		SavedAt:   now,
	}
	if err := s.saved.Add(ctx, uid, item); err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}

	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	return s.commitCart(ctx, cart, now)
}

// MoveToCart returns a saved item to the cart with quantity one.
func (s *cartService) MoveToCart(ctx context.Context, userID string, savedItemID string) (domain.Cart, error) {
	if s == nil || s.saved == nil {
		return domain.Cart{}, ErrCartUnavailable
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	savedItemID = strings.TrimSpace(savedItemID)
	if savedItemID == "" {
		return domain.Cart{}, fmt.Errorf("%w: saved item id is required", ErrCartInvalidInput)
	}

	items, err := s.saved.List(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	var target *domain.SavedItem
	for i := range items {
		if items[i].ID == savedItemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return domain.Cart{}, ErrCartNotFound
	}

	cart, addErr := s.AddItem(ctx, AddItemCommand{
		UserID:    uid,
		ProductID: target.ProductID,
		Quantity:  1,
	})
	if addErr != nil && !errors.Is(addErr, ErrCartStockExceeded) {
		return domain.Cart{}, addErr
	}

	if err := s.saved.Remove(ctx, uid, savedItemID); err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	return cart, addErr
}

// ListSavedItems returns the user's saved-for-later list, newest first.
func (s *cartService) ListSavedItems(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if s == nil || s.saved == nil {
		return nil, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrCartInvalidInput
	}

	items, err := s.saved.List(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if items == nil {
		items = []domain.SavedItem{}
	}
	return items, nil
}

// RemoveSavedItem deletes a saved-for-later entry.
func (s *cartService) RemoveSavedItem(ctx context.Context, userID string, savedItemID string) error {
	if s == nil || s.saved == nil {
		return ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}
	savedItemID = strings.TrimSpace(savedItemID)
	if savedItemID == "" {
		return fmt.Errorf("%w: saved item id is required", ErrCartInvalidInput)
	}
	if err := s.saved.Remove(ctx, uid, savedItemID); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) loadOrEmptyCart(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return s.emptyCart(userID), nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	return s.normaliseCart(cart, userID), nil
}

func (s *cartService) commitCart(ctx context.Context, cart domain.Cart, now time.Time) (domain.Cart, error) {
	cart.UpdatedAt = now

	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		s.logger(ctx, "cart.save_failed", map[string]any{
			"userId": cart.UserID,
			"error":  err.Error(),
		})
		return domain.Cart{}, s.translateRepoError(err)
	}
	saved = s.normaliseCart(saved, cart.UserID)

	s.events(ctx, events.Event{
		Type:       events.TypeCartUpdated,
		UserID:     saved.UserID,
		OccurredAt: now,
		Payload: map[string]any{
			"itemCount": saved.ItemCount(),
			"subtotal":  saved.Subtotal(),
		},
	})
	return saved, nil
}

func (s *cartService) emptyCart(userID string) domain.Cart {
	return domain.Cart{
		UserID:    userID,
		Lines:     []domain.CartLine{},
		UpdatedAt: s.now(),
	}
}

func (s *cartService) normaliseCart(cart domain.Cart, userID string) domain.Cart {
	if strings.TrimSpace(cart.UserID) == "" {
		cart.UserID = userID
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = s.now()
	}
	return cart
}

func (s *cartService) freshLineID(now time.Time) string {
	id := strings.TrimSpace(s.newID())
	if id == "" {
		id = fmt.Sprintf("line-%d", now.UnixNano())
	}
	return id
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCartNotFound
		}
		return ErrCartUnavailable
	}
	return ErrCartUnavailable
}

func resolveAttributes(attrs *domain.LineAttributes) domain.LineAttributes {
	resolved := domain.LineAttributes{
		Size:     defaultLineSize,
		Color:    defaultLineColor,
		Material: defaultLineMaterial,
		Seller:   defaultLineSeller,
	}
	if attrs == nil {
		return resolved
	}
	if v := strings.TrimSpace(attrs.Size); v != "" {
		resolved.Size = v
	}
	if v := strings.TrimSpace(attrs.Color); v != "" {
		resolved.Color = v
	}
	if v := strings.TrimSpace(attrs.Material); v != "" {
		resolved.Material = v
	}
	if v := strings.TrimSpace(attrs.Seller); v != "" {
		resolved.Seller = v
	}
	return resolved
}

// indexOfLine resolves a mutation handle against the cart. Lines merge one per
// product, so the product id is accepted as an alias for the generated line id.
func indexOfLine(lines []domain.CartLine, lineID string) int {
	target := strings.TrimSpace(lineID)
	if target == "" {
		return -1
	}
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line.ID), target) {
			return i
		}
	}
	return indexOfLineByProduct(lines, target)
}

func indexOfLineByProduct(lines []domain.CartLine, productID string) int {
	target := strings.TrimSpace(productID)
	if target == "" {
		return -1
	}
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line.ProductID), target) {
			return i
		}
	}
	return -1
}
