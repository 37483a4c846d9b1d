package services_test

import (
	"context"
	"fmt"
	"testing"

	"keranjang/internal/logger"
	"keranjang/internal/models"
	"keranjang/internal/repositories"
	"keranjang/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProductService_GetAllProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, logger.Discard())

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: 10.0, Stock: 100},
		{ID: "2", Name: "Product B", Price: 20.0, Stock: 50},
	}

	mockRepo.On("GetAll", ctx).Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(ctx)

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, logger.Discard())

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: 10.0, Stock: 100}

	mockRepo.On("GetByID", ctx, "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// repository not-found becomes the domain error
	mockRepo.On("GetByID", ctx, "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProductByID(ctx, "99")
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, logger.Discard())

	newProduct := &models.Product{ID: "client-chosen", Name: "New Product", Price: 50.0, Stock: 20}

	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool { return p.ID == "" })).Return(nil).Once()
	err := service.CreateProduct(ctx, newProduct)
	assert.NoError(t, err)

	mockRepo.On("Create", ctx, newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(ctx, newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, logger.Discard())

	updatedProduct := &models.Product{ID: "1", Name: "Product A Updated", Price: 12.0, Stock: 95}

	mockRepo.On("Update", ctx, updatedProduct).Return(nil).Once()
	assert.NoError(t, service.UpdateProduct(ctx, updatedProduct))

	missing := &models.Product{ID: "99", Name: "NonExistent", Price: 1.0, Stock: 1}
	mockRepo.On("Update", ctx, missing).Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	assert.ErrorIs(t, service.UpdateProduct(ctx, missing), services.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, logger.Discard())

	mockRepo.On("Delete", ctx, "1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct(ctx, "1"))

	mockRepo.On("Delete", ctx, "99").Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	assert.ErrorIs(t, service.DeleteProduct(ctx, "99"), services.ErrProductNotFound)

	mockRepo.On("Delete", ctx, "42").Return(fmt.Errorf("connection reset")).Once()
	err := service.DeleteProduct(ctx, "42")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_SeedProducts(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryProductRepository()
	service := services.NewProductService(repo, logger.Discard())

	seed := []models.Product{
		{Name: "Laptop", Price: 1200, Stock: 10},
		{Name: "Mouse", Price: 25, Stock: 50},
	}
	assert.NoError(t, service.SeedProducts(ctx, seed))

	// a second seed is a no-op once the catalog has data
	assert.NoError(t, service.SeedProducts(ctx, []models.Product{{Name: "Keyboard", Price: 75, Stock: 25}}))

	products, err := service.GetAllProducts(ctx)
	assert.NoError(t, err)
	assert.Len(t, products, 2)
}
