package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keranjang/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository. Line items
// are stored as a JSON column so each cart stays a single row.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUserID retrieves the cart owned by userID.
func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Save inserts a new cart or conditionally updates an existing one.
func (r *GORMCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	next := cart.Clone()
	next.UpdatedAt = now
	next.Version = cart.Version + 1

	if cart.Version == 0 {
		if next.ID == "" {
			next.ID = uuid.New().String()
		}
		next.CreatedAt = now
		if err := r.db.WithContext(ctx).Create(next).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// another request created this user's cart first
				return fmt.Errorf("cart for user %s: %w", cart.UserID, ErrVersionConflict)
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		*cart = *next
		return nil
	}

	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Select("items", "version", "updated_at").
		Updates(next)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart %s at version %d: %w", cart.ID, cart.Version, ErrVersionConflict)
	}
	*cart = *next
	return nil
}
