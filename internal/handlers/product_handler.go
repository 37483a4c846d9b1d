package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"keranjang/internal/models"
	"keranjang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	logger   *slog.Logger
	timeout  time.Duration
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *slog.Logger, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
		logger:   log,
		timeout:  timeout,
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes go
// through auth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	products, err := h.service.GetAllProducts(ctx)
	if err != nil {
		return serverError(c, h.logger, "failed to list products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	productID := c.Params("id")
	product, err := h.service.GetProductByID(ctx, productID)
	if err != nil {
		return h.productError(c, productID, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if ok, err := parseAndValidate(c, h.validate, &product); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.service.CreateProduct(ctx, &product); err != nil {
		return serverError(c, h.logger, "failed to create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the mutable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	// the path wins over any id in the body
	product.ID = c.Params("id")
	if ok, err := validateRequest(c, h.validate, &product); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.service.UpdateProduct(ctx, &product); err != nil {
		return h.productError(c, product.ID, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	productID := c.Params("id")
	if err := h.service.DeleteProduct(ctx, productID); err != nil {
		return h.productError(c, productID, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", productID),
	})
}

func (h *ProductHandler) productError(c *fiber.Ctx, productID string, err error) error {
	if errors.Is(err, services.ErrProductNotFound) {
		return respondError(c, fiber.StatusNotFound, fmt.Sprintf("Product with ID %s not found", productID))
	}
	return serverError(c, h.logger, "product request failed", err)
}
