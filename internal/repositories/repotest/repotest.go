// Package repotest holds behaviour checks shared by every repository backend.
package repotest

import (
	"context"
	"sync"
	"testing"

	"keranjang/internal/models"
	"keranjang/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunUserRepository checks create/lookup and email uniqueness.
func RunUserRepository(t *testing.T, repo repositories.UserRepository) {
	t.Helper()
	ctx := context.Background()
	email := uuid.NewString() + "@x.io"

	user := &models.User{Username: "alice", Email: email, Password: "$2a$10$hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "alice", byEmail.Username)
	assert.Equal(t, "$2a$10$hash", byEmail.Password)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, email, byID.Email)

	err = repo.Create(ctx, &models.User{Username: "alice2", Email: email, Password: "x"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = repo.GetByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

// RunUserRepositoryConcurrentCreate races registrations for one email; exactly
// one must win.
func RunUserRepositoryConcurrentCreate(t *testing.T, repo repositories.UserRepository) {
	t.Helper()
	ctx := context.Background()
	email := uuid.NewString() + "@x.io"

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &models.User{Username: "racer", Email: email, Password: "x"})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

// RunCartRepository checks insert, versioned update and stale writes.
func RunCartRepository(t *testing.T, repo repositories.CartRepository) {
	t.Helper()
	ctx := context.Background()
	userID := uuid.NewString()

	_, err := repo.GetByUserID(ctx, userID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	cart := &models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: "prod-1", Quantity: 2}}}
	require.NoError(t, repo.Save(ctx, cart))
	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, int64(1), cart.Version)

	loaded, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, loaded.ID)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Equal(t, []models.CartItem{{ProductID: "prod-1", Quantity: 2}}, loaded.Items)

	stale := loaded.Clone()

	loaded.Items = append(loaded.Items, models.CartItem{ProductID: "prod-2", Quantity: 1})
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)

	stale.Items = nil
	assert.ErrorIs(t, repo.Save(ctx, stale), repositories.ErrVersionConflict)

	// a second first-time save for the same user loses too
	err = repo.Save(ctx, &models.Cart{UserID: userID, Items: []models.CartItem{}})
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)

	current, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.Version)
	assert.Equal(t, []models.CartItem{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", Quantity: 1},
	}, current.Items)

	current.Items = []models.CartItem{}
	require.NoError(t, repo.Save(ctx, current))
	emptied, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)
}

// RunProductRepository checks the catalog CRUD operations.
func RunProductRepository(t *testing.T, repo repositories.ProductRepository) {
	t.Helper()
	ctx := context.Background()

	mouse := &models.Product{Name: "Mouse", Description: "Wireless", Price: 25, Stock: 50}
	laptop := &models.Product{Name: "Laptop", Description: "14 inch", Price: 1200, Stock: 10}
	require.NoError(t, repo.Create(ctx, mouse))
	require.NoError(t, repo.Create(ctx, laptop))
	assert.NotEmpty(t, mouse.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Laptop", all[0].Name)
	assert.Equal(t, "Mouse", all[1].Name)

	mouse.Price = 19.5
	mouse.Stock = 45
	require.NoError(t, repo.Update(ctx, mouse))

	got, err := repo.GetByID(ctx, mouse.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.5, got.Price)
	assert.Equal(t, 45, got.Stock)
	assert.Equal(t, "Wireless", got.Description)

	missing := &models.Product{ID: uuid.NewString(), Name: "Ghost", Price: 1, Stock: 1}
	assert.ErrorIs(t, repo.Update(ctx, missing), repositories.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, mouse.ID))
	_, err = repo.GetByID(ctx, mouse.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, mouse.ID), repositories.ErrNotFound)
}
