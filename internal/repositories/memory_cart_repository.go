package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"keranjang/internal/models"

	"github.com/google/uuid"
)

// MemoryCartRepository is an in-memory implementation of CartRepository keyed
// by owner.
type MemoryCartRepository struct {
	carts map[string]*models.Cart
	mu    sync.RWMutex
}

// NewMemoryCartRepository creates a new instance of MemoryCartRepository.
func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		carts: make(map[string]*models.Cart),
	}
}

// GetByUserID returns a copy of the user's cart.
func (r *MemoryCartRepository) GetByUserID(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[userID]
	if !ok {
		return nil, fmt.Errorf("cart for user %s: %w", userID, ErrNotFound)
	}
	return cart.Clone(), nil
}

// Save stores a copy of cart if its version matches the stored one.
func (r *MemoryCartRepository) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.carts[cart.UserID]
	switch {
	case cart.Version == 0 && exists:
		return fmt.Errorf("cart for user %s: %w", cart.UserID, ErrVersionConflict)
	case cart.Version != 0 && (!exists || stored.Version != cart.Version):
		return fmt.Errorf("cart %s at version %d: %w", cart.ID, cart.Version, ErrVersionConflict)
	}

	now := time.Now().UTC()
	next := cart.Clone()
	if next.ID == "" {
		next.ID = uuid.New().String()
	}
	if cart.Version == 0 {
		next.CreatedAt = now
	}
	next.UpdatedAt = now
	next.Version = cart.Version + 1

	r.carts[cart.UserID] = next
	*cart = *next.Clone()
	return nil
}
