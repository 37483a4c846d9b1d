package repositories

import (
	"context"

	"keranjang/internal/models"
)

// UserRepository defines the interface for user data access.
//
// Create must enforce email uniqueness itself and report a clash as ErrDuplicate.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
