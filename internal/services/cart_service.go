package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keranjang/internal/models"
	"keranjang/internal/repositories"
)

// CartService merges add/update/remove operations into the per-user cart.
//
// Every mutation is a read-modify-write guarded by the cart version: a save
// that races another request for the same user fails with ErrCartConflict
// instead of overwriting it. Nothing is retried here.
type CartService struct {
	cartRepo repositories.CartRepository
	logger   *slog.Logger
	opts     serviceOptions
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, log *slog.Logger, opts ...Option) *CartService {
	return &CartService{
		cartRepo: cartRepo,
		logger:   log.With(slog.String("component", "cart")),
		opts:     applyOptions(opts),
	}
}

// GetCart returns the user's cart or ErrCartNotFound.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.load(ctx, userID)
}

// AddItem adds quantity units of productID, creating the cart on first use.
// An existing line for the product is incremented rather than duplicated.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		s.opts.metrics.ObserveCart("add", "invalid")
		return nil, ErrInvalidQuantity
	}

	cart, err := s.load(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	} else if err != nil {
		s.opts.metrics.ObserveCart("add", "error")
		return nil, err
	}

	if i := cart.FindItem(productID); i >= 0 {
		cart.Items[i].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	}

	if err := s.save(ctx, "add", cart); err != nil {
		return nil, err
	}
	s.opts.publish(ctx, s.logger, Event{Type: EventCartItemAdded, UserID: userID, ProductID: productID, Quantity: quantity})
	return cart, nil
}

// UpdateItem sets the quantity of an existing line. A quantity below one
// removes the line so no zero or negative quantities are ever stored.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		s.opts.metrics.ObserveCart("update", outcome(err))
		return nil, err
	}

	i := cart.FindItem(productID)
	if i < 0 {
		s.opts.metrics.ObserveCart("update", "item_not_found")
		return nil, ErrItemNotFound
	}
	evt := Event{Type: EventCartItemUpdated, UserID: userID, ProductID: productID, Quantity: quantity}
	if quantity < 1 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		evt = Event{Type: EventCartItemRemoved, UserID: userID, ProductID: productID}
	} else {
		cart.Items[i].Quantity = quantity
	}

	if err := s.save(ctx, "update", cart); err != nil {
		return nil, err
	}
	s.opts.publish(ctx, s.logger, evt)
	return cart, nil
}

// RemoveItem drops the line for productID. Removing a product that is not in
// the cart is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		s.opts.metrics.ObserveCart("remove", outcome(err))
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.save(ctx, "remove", cart); err != nil {
		return nil, err
	}
	s.opts.publish(ctx, s.logger, Event{Type: EventCartItemRemoved, UserID: userID, ProductID: productID})
	return cart, nil
}

func (s *CartService) load(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, operation string, cart *models.Cart) error {
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.logger.Warn("cart save lost a concurrent update",
				slog.String("user_id", cart.UserID), slog.String("operation", operation))
			s.opts.metrics.ObserveCart(operation, "conflict")
			return ErrCartConflict
		}
		s.opts.metrics.ObserveCart(operation, "error")
		return fmt.Errorf("failed to save cart: %w", err)
	}
	s.logger.Debug("cart saved",
		slog.String("user_id", cart.UserID), slog.String("operation", operation), slog.Int64("version", cart.Version))
	s.opts.metrics.ObserveCart(operation, "success")
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrCartNotFound):
		return "cart_not_found"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	default:
		return "error"
	}
}
