package repositories

import (
	"context"

	"keranjang/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetByUserID returns ErrNotFound when the user has no cart yet.
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	// Save persists the whole cart document. A cart with Version 0 is inserted,
	// any other version is only written if the stored version still matches.
	// On success cart.Version is incremented; on a lost race ErrVersionConflict
	// is returned and the cart is left untouched.
	Save(ctx context.Context, cart *models.Cart) error
}
