package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keranjang/internal/models"
	"keranjang/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	logger *slog.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, log *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: log.With(slog.String("component", "products")),
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	return product, nil
}

// CreateProduct creates a new product. Client-supplied IDs are ignored.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = ""
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.logger.Info("product created", slog.String("product_id", product.ID))
	return nil
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Update(ctx, product); err != nil {
		return notFoundAs(err, ErrProductNotFound)
	}
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundAs(err, ErrProductNotFound)
	}
	s.logger.Info("product deleted", slog.String("product_id", id))
	return nil
}

// SeedProducts creates the given products when the catalog is empty.
func (s *ProductService) SeedProducts(ctx context.Context, products []models.Product) error {
	existing, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for i := range products {
		if err := s.repo.Create(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].Name, err)
		}
		s.logger.Info("seeded product", slog.String("name", products[i].Name), slog.String("product_id", products[i].ID))
	}
	return nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return target
	}
	return err
}
