// Package database opens the configured backing store and exposes the
// repositories built on top of it.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"keranjang/internal/models"
	"keranjang/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported values for the DB_DRIVER setting.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Options selects and parameterises the backing store.
type Options struct {
	Driver         string
	DSN            string // postgres / sqlite
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout time.Duration
}

// Store bundles the repositories of one backend with its lifecycle hooks.
type Store struct {
	Driver   string
	Users    repositories.UserRepository
	Carts    repositories.CartRepository
	Products repositories.ProductRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the connection pool or client.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the store described by opts.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	switch opts.Driver {
	case DriverMongo:
		return OpenMongo(ctx, opts, logger)
	case DriverPostgres:
		return OpenGORM(postgres.Open(opts.DSN), DriverPostgres, logger)
	case DriverSQLite:
		return OpenGORM(sqlite.Open(opts.DSN), DriverSQLite, logger)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// NewMemoryStore returns a process-local store. Data is lost on restart.
func NewMemoryStore() *Store {
	return &Store{
		Driver:   DriverMemory,
		Users:    repositories.NewMemoryUserRepository(),
		Carts:    repositories.NewMemoryCartRepository(),
		Products: repositories.NewMemoryProductRepository(),
	}
}

// OpenGORM opens a relational store through dialector and migrates the schema.
func OpenGORM(dialector gorm.Dialector, driver string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Cart{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	return &Store{
		Driver:   driver,
		Users:    repositories.NewGORMUserRepository(db),
		Carts:    repositories.NewGORMCartRepository(db),
		Products: repositories.NewGORMProductRepository(db),
		ping:     sqlDB.PingContext,
		close:    func(context.Context) error { return sqlDB.Close() },
	}, nil
}

// OpenMongo connects to MongoDB, pings the primary and creates the unique
// indexes the repositories rely on.
func OpenMongo(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.MongoURI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout).
		SetRetryWrites(true)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(opts.MongoDatabase)
	users := repositories.NewMongoUserRepository(db)
	carts := repositories.NewMongoCartRepository(db)
	if err := users.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := carts.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to MongoDB", slog.String("database", opts.MongoDatabase))

	return &Store{
		Driver:   DriverMongo,
		Users:    users,
		Carts:    carts,
		Products: repositories.NewMongoProductRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}
