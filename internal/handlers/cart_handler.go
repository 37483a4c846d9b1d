package handlers

import (
	"errors"
	"log/slog"
	"time"

	"keranjang/internal/middleware"
	"keranjang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	logger   *slog.Logger
	timeout  time.Duration
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, log *slog.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: newValidator(),
		logger:   log,
		timeout:  timeout,
	}
}

// RegisterRoutes registers the cart routes behind auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/add", h.HandleAddItem)
	cartRoutes.Put("/update", h.HandleUpdateItem)
	cartRoutes.Delete("/remove", h.HandleRemoveItem)
}

// CartItemRequest is the body of add and update calls.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// RemoveItemRequest is the body of remove calls.
type RemoveItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// HandleGetCart returns the caller's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.service.GetCart(ctx, middleware.UserID(c))
	if err != nil {
		return h.cartError(c, "get cart", err)
	}
	return c.JSON(cart)
}

// HandleAddItem adds a product to the caller's cart, creating it if needed.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.service.AddItem(ctx, middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.cartError(c, "add to cart", err)
	}
	return c.JSON(cart)
}

// HandleUpdateItem sets the quantity of a product already in the cart.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.service.UpdateItem(ctx, middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.cartError(c, "update cart item", err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem drops a product from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	var req RemoveItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	cart, err := h.service.RemoveItem(ctx, middleware.UserID(c), req.ProductID)
	if err != nil {
		return h.cartError(c, "remove cart item", err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) cartError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrCartNotFound):
		return respondError(c, fiber.StatusNotFound, "Cart not found")
	case errors.Is(err, services.ErrItemNotFound):
		return respondError(c, fiber.StatusNotFound, "Item not found in cart")
	case errors.Is(err, services.ErrInvalidQuantity):
		return respondError(c, fiber.StatusBadRequest, "Quantity must be at least 1")
	case errors.Is(err, services.ErrCartConflict):
		return respondError(c, fiber.StatusConflict, "Cart was modified by another request, please retry")
	default:
		return serverError(c, h.logger, "failed to "+action, err)
	}
}
