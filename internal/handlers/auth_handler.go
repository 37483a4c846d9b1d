package handlers

import (
	"errors"
	"log/slog"
	"time"

	"keranjang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
	timeout     time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *slog.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
		logger:      log,
		timeout:     timeout,
	}
}

// RegisterRoutes registers the authentication routes. Extra handlers, such as
// a rate limiter, run in front of both endpoints.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, middlewares ...fiber.Handler) {
	authRoutes := router.Group("/auth", middlewares...)
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,bytemax=72"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	_, token, err := h.authService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateUser) {
			return respondError(c, fiber.StatusBadRequest, "User already exists")
		}
		return serverError(c, h.logger, "registration failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   token,
	})
}

// LoginRequest represents the request body for login. The email format is
// not checked here; a malformed address fails like an unknown one.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return respondError(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		return serverError(c, h.logger, "login failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
