// Package app wires configuration, stores, services and the HTTP surface
// into a runnable server.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"keranjang/internal/config"
	"keranjang/internal/database"
	"keranjang/internal/handlers"
	"keranjang/internal/logger"
	"keranjang/internal/metrics"
	"keranjang/internal/middleware"
	"keranjang/internal/models"
	"keranjang/internal/services"
	"keranjang/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
)

// DefaultProducts is the catalog seeded into an empty store.
var DefaultProducts = []models.Product{
	{ID: "prod-1", Name: "Laptop", Description: "High performance laptop", Price: 1200.00, Stock: 10},
	{ID: "prod-2", Name: "Keyboard", Description: "Mechanical keyboard", Price: 75.00, Stock: 25},
	{ID: "prod-3", Name: "Mouse", Description: "Ergonomic wireless mouse", Price: 25.00, Stock: 50},
}

// App is the assembled service.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *fiber.App
	store   *database.Store
	broker  *rabbitmq.Client
	metrics *metrics.Metrics
}

// New opens the store, connects the broker when configured and builds the
// fiber application. The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if cfg.InsecureSecret {
		log.Warn("JWT_SECRET is not set, using the development secret")
	}

	store, err := database.Open(ctx, database.Options{
		Driver:         cfg.DBDriver,
		DSN:            cfg.DatabaseDSN,
		MongoURI:       cfg.MongoURI,
		MongoDatabase:  cfg.MongoDatabase,
		ConnectTimeout: cfg.RequestTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	log.Info("store ready", slog.String("driver", store.Driver))

	a := &App{
		cfg:     cfg,
		logger:  log,
		store:   store,
		metrics: metrics.New(),
	}

	if cfg.RabbitMQURL != "" {
		broker, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:        cfg.RabbitMQURL,
			Queue:      cfg.EventsQueue,
			Retries:    3,
			RetryDelay: time.Second,
		}, log)
		if err != nil {
			// events are best effort; the API works without them
			log.Warn("continuing without domain events", logger.Err(err))
		} else {
			a.broker = broker
		}
	}

	opts := []services.Option{services.WithMetrics(a.metrics)}
	if a.broker != nil {
		opts = append(opts, services.WithEventPublisher(a.broker))
	}

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(store.Users, services.NewBcryptHasher(cfg.BcryptCost), tokens, log, opts...)
	cartService := services.NewCartService(store.Carts, log, opts...)
	productService := services.NewProductService(store.Products, log)

	if cfg.SeedProducts {
		seed := slices.Clone(DefaultProducts)
		if err := productService.SeedProducts(ctx, seed); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to seed products: %w", err)
		}
	}

	a.server = fiber.New(fiber.Config{
		AppName:      "keranjang",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	a.server.Use(recover.New())
	a.server.Use(requestid.New())
	a.server.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	a.server.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,Origin,X-Requested-With,Accept",
		AllowCredentials: !slices.Contains(cfg.CORSOrigins, "*"),
	}))
	a.server.Use(middleware.Metrics(a.metrics))

	a.server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.metrics.Registry, promhttp.HandlerOpts{
		Registry: a.metrics.Registry,
	})))

	authRequired := middleware.AuthRequired(authService, log)
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)

	api := a.server.Group("/api")
	handlers.NewHealthHandler(store, store.Driver, cfg.Env, log).RegisterRoutes(api)
	handlers.NewAuthHandler(authService, log, cfg.RequestTimeout).RegisterRoutes(api, middleware.RateLimit(limiter, log))
	handlers.NewProductHandler(productService, log, cfg.RequestTimeout).RegisterRoutes(api, authRequired)
	handlers.NewCartHandler(cartService, log, cfg.RequestTimeout).RegisterRoutes(api, authRequired)

	return a, nil
}

// Handler exposes the fiber application, mainly for app.Test in tests.
func (a *App) Handler() *fiber.App {
	return a.server
}

// Run starts the event consumer and the HTTP server and blocks until ctx is
// cancelled or the listener fails. The server is then shut down gracefully
// and every resource is closed.
func (a *App) Run(ctx context.Context) error {
	if a.broker != nil {
		if err := a.broker.Consume(a.logEvent); err != nil {
			a.logger.Warn("failed to start event consumer", logger.Err(err))
		}
	}

	listenErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", slog.String("addr", a.cfg.Port), slog.String("env", a.cfg.Env))
		listenErr <- a.server.Listen(a.cfg.Port)
	}()

	var runErr error
	select {
	case err := <-listenErr:
		runErr = fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.ShutdownWithContext(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to shut down server: %w", err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr == nil {
		a.logger.Info("server gracefully stopped")
	}
	return runErr
}

// Close releases the broker connection and the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			errs = append(errs, err)
		}
		a.broker = nil
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) logEvent(msg amqp.Delivery) error {
	var evt services.Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", msg.Type, err)
	}
	a.logger.Info("event received",
		slog.String("type", evt.Type),
		slog.String("user_id", evt.UserID),
		slog.String("product_id", evt.ProductID),
		slog.Int("quantity", evt.Quantity),
		slog.Time("occurred_at", evt.OccurredAt))
	return nil
}
