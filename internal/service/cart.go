package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	tx          repository.Transactor
	activity    ActivityRecorder
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository,
	tx repository.Transactor, activity ActivityRecorder) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, tx: tx, activity: activity}
}

// NewCartID issues an identifier for an anonymous cart.
func (s *CartService) NewCartID() string {
	return uuid.NewString()
}

// SetQuantity sets the quantity of a product in a cart. Zero removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, entry model.CartEntry) error {
	entry.CartID = strings.TrimSpace(entry.CartID)
	if entry.CartID == "" {
		return validationError("cart id is required")
	}
	if entry.Quantity < 0 {
		return validationError("quantity must not be negative")
	}

	product, err := s.productRepo.GetByID(ctx, entry.ProductID)
	if err != nil {
		return storageError("get product", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	if err := s.cartRepo.SetQuantity(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrCartEntryOwned) {
			return ErrCartEntryForbidden
		}
		return storageError("set cart quantity", err)
	}

	action := model.ActionAddToCart
	if entry.Quantity == 0 {
		action = model.ActionRemoveFromCart
	}
	record(ctx, s.activity, entry.Username, action,
		fmt.Sprintf("product %d quantity %d cart %s", entry.ProductID, entry.Quantity, entry.CartID))
	return nil
}

// GetCart returns the cart's lines priced from the live catalog.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, validationError("cart id is required")
	}
	lines, err := s.cartRepo.Lines(ctx, cartID)
	if err != nil {
		return nil, storageError("get cart", err)
	}
	return &model.Cart{ID: cartID, Lines: lines}, nil
}

// MergeIntoUser re-keys every row of cartID and every row owned by username
// to (cartID, username). Products present in both keep the larger quantity.
func (s *CartService) MergeIntoUser(ctx context.Context, cartID, username string) (err error) {
	if strings.TrimSpace(cartID) == "" || username == "" {
		return validationError("cart id and username are required")
	}

	tx, err := s.tx.BeginTx(ctx)
	if err != nil {
		return storageError("merge cart", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	entries, err := s.cartRepo.ListByCartOrUser(ctx, tx, cartID, username)
	if err != nil {
		return storageError("merge cart", err)
	}
	if err = s.cartRepo.DeleteByCartOrUser(ctx, tx, cartID, username); err != nil {
		return storageError("merge cart", err)
	}
	for _, e := range collapseMax(entries, cartID, username) {
		if err = s.cartRepo.Insert(ctx, tx, e); err != nil {
			return storageError("merge cart", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return storageError("commit cart merge", err)
	}
	return nil
}

// collapseMax keeps one entry per product with the highest quantity seen,
// keyed to cartID and username. Zero quantities are dropped.
func collapseMax(entries []model.CartEntry, cartID, username string) []model.CartEntry {
	best := make(map[int]int, len(entries))
	for _, e := range entries {
		if q, ok := best[e.ProductID]; !ok || e.Quantity > q {
			best[e.ProductID] = e.Quantity
		}
	}

	out := make([]model.CartEntry, 0, len(best))
	for productID, qty := range best {
		if qty <= 0 {
			continue
		}
		out = append(out, model.CartEntry{ProductID: productID, CartID: cartID, Username: username, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
