package handlers

import (
	"context"
	"log/slog"
	"time"

	"keranjang/internal/database"
	"keranjang/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process and database status.
type HealthHandler struct {
	db      Pinger
	dbName  string
	env     string
	logger  *slog.Logger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. driver picks the key the
// database status is reported under: "mongodb" for MongoDB, "database"
// otherwise.
func NewHealthHandler(db Pinger, driver, env string, log *slog.Logger) *HealthHandler {
	dbName := "database"
	if driver == database.DriverMongo {
		dbName = "mongodb"
	}
	return &HealthHandler{
		db:      db,
		dbName:  dbName,
		env:     env,
		logger:  log,
		timeout: 2 * time.Second,
	}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth always answers 200; a failed ping shows up as a disconnected
// database.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := "connected"
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check: database ping failed", logger.Err(err))
		status = "disconnected"
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"timestamp":   now,
		"environment": h.env,
		"serverTime":  now,
		"connections": fiber.Map{
			h.dbName: status,
		},
	})
}
