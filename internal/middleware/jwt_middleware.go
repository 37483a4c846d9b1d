package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"keranjang/internal/logger"
	"keranjang/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "user_id"

// TokenValidator verifies a session token and returns its subject.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return reject(c, err)
		}

		userID, err := validator.ValidateToken(tokenString)
		if err != nil {
			log.Debug("JWT validation failed", slog.String("path", c.Path()), logger.Err(err))
			return reject(c, services.ErrInvalidToken)
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the subject stored by AuthRequired, or "" outside a
// protected route.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(userIDKey).(string)
	return userID
}

// Expected format: "Bearer <token>"
func bearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", services.ErrAccessDenied
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", services.ErrAccessDenied
	}
	return token, nil
}

func reject(c *fiber.Ctx, err error) error {
	message := "Invalid token"
	if errors.Is(err, services.ErrAccessDenied) {
		message = "Access denied"
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
