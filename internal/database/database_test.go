package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"keranjang/internal/database"
	"keranjang/internal/logger"
	"keranjang/internal/repositories/repotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// sqliteDSN returns a private in-memory database so tests never share rows.
func sqliteDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

func openStore(t *testing.T, opts database.Options) *database.Store {
	t.Helper()
	store, err := database.Open(context.Background(), opts, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close(context.Background()))
	})
	return store
}

func runContract(t *testing.T, store *database.Store, concurrent bool) {
	t.Run("users", func(t *testing.T) { repotest.RunUserRepository(t, store.Users) })
	if concurrent {
		t.Run("users concurrent", func(t *testing.T) { repotest.RunUserRepositoryConcurrentCreate(t, store.Users) })
	}
	t.Run("carts", func(t *testing.T) { repotest.RunCartRepository(t, store.Carts) })
	t.Run("products", func(t *testing.T) { repotest.RunProductRepository(t, store.Products) })
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(context.Background(), database.Options{Driver: "oracle"}, logger.Discard())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestMemoryStore(t *testing.T) {
	store := openStore(t, database.Options{Driver: database.DriverMemory})
	assert.Equal(t, database.DriverMemory, store.Driver)
	assert.NoError(t, store.Ping(context.Background()))
	runContract(t, store, true)
}

func TestSQLiteStore(t *testing.T) {
	store := openStore(t, database.Options{Driver: database.DriverSQLite, DSN: sqliteDSN()})
	assert.Equal(t, database.DriverSQLite, store.Driver)
	assert.NoError(t, store.Ping(context.Background()))
	// sqlite serialises writers with table locks, so the race check is left to
	// the server backends
	runContract(t, store, false)
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("keranjang"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, pgContainer)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store := openStore(t, database.Options{Driver: database.DriverPostgres, DSN: dsn})
	assert.NoError(t, store.Ping(ctx))
	runContract(t, store, true)
}

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, mongoContainer)
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	store := openStore(t, database.Options{
		Driver:         database.DriverMongo,
		MongoURI:       uri,
		MongoDatabase:  "keranjang_test",
		ConnectTimeout: 20 * time.Second,
	})
	assert.NoError(t, store.Ping(ctx))
	runContract(t, store, true)
}

func TestMongoStore_Unreachable(t *testing.T) {
	_, err := database.Open(context.Background(), database.Options{
		Driver:         database.DriverMongo,
		MongoURI:       "mongodb://127.0.0.1:1",
		MongoDatabase:  "keranjang_test",
		ConnectTimeout: 200 * time.Millisecond,
	}, logger.Discard())
	assert.Error(t, err)
}
