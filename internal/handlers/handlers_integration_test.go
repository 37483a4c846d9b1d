package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keranjang/internal/database"
	"keranjang/internal/handlers"
	"keranjang/internal/logger"
	"keranjang/internal/middleware"
	"keranjang/internal/models"
	"keranjang/internal/repositories"
	"keranjang/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

const testJWTSecret = "test_jwt_secret"

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services. cartRepo overrides the SQLite cart store when non-nil.
func setupApp(t *testing.T, cartRepo repositories.CartRepository) *fiber.App {
	t.Helper()
	log := logger.Discard()

	// every test gets its own database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := database.OpenGORM(sqlite.Open(dsn), database.DriverSQLite, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	if cartRepo == nil {
		cartRepo = store.Carts
	}

	tokens := services.NewTokenManager(testJWTSecret, time.Hour)
	authService := services.NewAuthService(store.Users, services.NewBcryptHasher(bcrypt.MinCost), tokens, log)
	cartService := services.NewCartService(cartRepo, log)
	productService := services.NewProductService(store.Products, log)

	seedProductsForTest(t, productService)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(log)})
	api := app.Group("/api")
	authRequired := middleware.AuthRequired(authService, log)

	handlers.NewHealthHandler(store, store.Driver, "test", log).RegisterRoutes(api)
	handlers.NewAuthHandler(authService, log, time.Second).RegisterRoutes(api)
	handlers.NewProductHandler(productService, log, time.Second).RegisterRoutes(api, authRequired)
	handlers.NewCartHandler(cartService, log, time.Second).RegisterRoutes(api, authRequired)
	return app
}

// seedProductsForTest populates the product repository for tests.
func seedProductsForTest(t *testing.T, service *services.ProductService) {
	products := []models.Product{
		{ID: "prod-1", Name: "Test Laptop", Description: "For testing purposes", Price: 1000.00, Stock: 5},
		{ID: "prod-2", Name: "Test Monitor", Description: "Another test item", Price: 200.00, Stock: 10},
	}
	require.NoError(t, service.SeedProducts(context.Background(), products))
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerUser(t *testing.T, app *fiber.App, username, email, password string) string {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]string
	decodeBody(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	require.NotEmpty(t, registerResp["token"])
	return registerResp["token"]
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t, nil)

	registerUser(t, app, "alice", "alice@x.com", "password123")

	// Test Duplicate Registration (email)
	resp := doRequest(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@x.com",
		"password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var dupResp map[string]string
	decodeBody(t, resp, &dupResp)
	assert.Equal(t, "User already exists", dupResp["error"])

	// Test Login
	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@x.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.Equal(t, "Login successful", loginResp["message"])
	assert.NotEmpty(t, loginResp["token"])

	// the login token opens protected routes
	resp = doRequest(t, app, http.MethodPost, "/api/cart/add", loginResp["token"], map[string]interface{}{
		"productId": "prod-1", "quantity": 1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthLoginFailuresLookAlike(t *testing.T) {
	app := setupApp(t, nil)
	registerUser(t, app, "bob", "bob@x.com", "password123")

	wrongPassword := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "bob@x.com", "password": "nope",
	})
	unknownEmail := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@x.com", "password": "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)

	var first, second map[string]string
	decodeBody(t, wrongPassword, &first)
	decodeBody(t, unknownEmail, &second)
	assert.Equal(t, map[string]string{"error": "Invalid credentials"}, first)
	assert.Equal(t, first, second)
}

func TestAuthValidation(t *testing.T) {
	app := setupApp(t, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol",
		"email":    "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	raw, err := app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestAuthRegisterPasswordLimitCountsBytes(t *testing.T) {
	app := setupApp(t, nil)

	// 40 two-byte runes: under 72 characters, over 72 bytes
	resp := doRequest(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "erin",
		"email":    "erin@x.com",
		"password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Contains(t, body.Errors, "password")

	// exactly 72 bytes is accepted and can log in
	password := strings.Repeat("é", 36)
	registerUser(t, app, "erin", "erin@x.com", password)
	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "erin@x.com", "password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthLoginMalformedEmail(t *testing.T) {
	app := setupApp(t, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "not-an-email", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, map[string]string{"error": "Invalid credentials"}, body)
}

func TestCartEndpoints(t *testing.T) {
	app := setupApp(t, nil)
	token := registerUser(t, app, "dave", "dave@x.com", "password123")

	// no cart yet
	resp := doRequest(t, app, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPut, "/api/cart/update", token, map[string]interface{}{"productId": "prod-1", "quantity": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp map[string]string
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "Cart not found", errResp["error"])

	resp = doRequest(t, app, http.MethodDelete, "/api/cart/remove", token, map[string]interface{}{"productId": "prod-1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{"productId": "prod-1", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{"productId": "prod-1", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart models.Cart
	decodeBody(t, resp, &cart)
	assert.Equal(t, []models.CartItem{{ProductID: "prod-1", Quantity: 2}}, cart.Items)
	assert.NotEmpty(t, cart.UserID)

	resp = doRequest(t, app, http.MethodPut, "/api/cart/update", token, map[string]interface{}{"productId": "prod-404", "quantity": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "Item not found in cart", errResp["error"])

	// removing something that is not there still answers with the cart
	resp = doRequest(t, app, http.MethodDelete, "/api/cart/remove", token, map[string]interface{}{"productId": "prod-404"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &cart)
	assert.Equal(t, []models.CartItem{{ProductID: "prod-1", Quantity: 2}}, cart.Items)

	resp = doRequest(t, app, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &cart)
	assert.Len(t, cart.Items, 1)
}

func TestCartsAreScopedToTheCaller(t *testing.T) {
	app := setupApp(t, nil)
	alice := registerUser(t, app, "alice", "alice@x.com", "password123")
	bob := registerUser(t, app, "bob", "bob@x.com", "password123")

	resp := doRequest(t, app, http.MethodPost, "/api/cart/add", alice, map[string]interface{}{"productId": "prod-1", "quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/cart", bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// conflictingCarts loses every update race.
type conflictingCarts struct {
	repositories.CartRepository
}

func (conflictingCarts) Save(_ context.Context, cart *models.Cart) error {
	return fmt.Errorf("cart for user %s: %w", cart.UserID, repositories.ErrVersionConflict)
}

func TestCartConflict(t *testing.T) {
	app := setupApp(t, conflictingCarts{repositories.NewMemoryCartRepository()})
	token := registerUser(t, app, "erin", "erin@x.com", "password123")

	resp := doRequest(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{"productId": "prod-1", "quantity": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// brokenCarts fails like an unreachable database.
type brokenCarts struct {
	repositories.CartRepository
}

func (brokenCarts) GetByUserID(context.Context, string) (*models.Cart, error) {
	return nil, fmt.Errorf("dial tcp 10.0.0.5:27017: connection refused")
}

func TestCartServerErrorHidesDetails(t *testing.T) {
	app := setupApp(t, brokenCarts{repositories.NewMemoryCartRepository()})
	token := registerUser(t, app, "frank", "frank@x.com", "password123")

	resp := doRequest(t, app, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, map[string]string{"error": "Server error"}, body)
}

func TestProductEndpoints(t *testing.T) {
	app := setupApp(t, nil)
	token := registerUser(t, app, "gina", "gina@x.com", "password123")

	// --- Test GET /products (public) ---
	resp := doRequest(t, app, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decodeBody(t, resp, &products)
	assert.Len(t, products, 2)

	// --- Test POST /products (protected) ---
	resp = doRequest(t, app, http.MethodPost, "/api/products", "", map[string]interface{}{"name": "Smartphone", "price": 799.99})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/products", token, map[string]interface{}{"name": "X", "price": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	newProduct := map[string]interface{}{
		"name":        "Smartphone",
		"description": "Latest model smartphone",
		"price":       799.99,
		"stock":       50,
	}
	resp = doRequest(t, app, http.MethodPost, "/api/products", token, newProduct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var createdProduct models.Product
	decodeBody(t, resp, &createdProduct)
	assert.NotEmpty(t, createdProduct.ID)
	assert.Equal(t, newProduct["name"], createdProduct.Name)

	// --- Test GET /products/:id (public) ---
	resp = doRequest(t, app, http.MethodGet, "/api/products/"+createdProduct.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetchedProduct models.Product
	decodeBody(t, resp, &fetchedProduct)
	assert.Equal(t, createdProduct.ID, fetchedProduct.ID)

	// --- Test PUT /products/:id (protected) ---
	updatedProductData := map[string]interface{}{
		"name":        "Smartphone Pro",
		"description": "Latest model smartphone pro edition",
		"price":       899.99,
		"stock":       45,
	}
	resp = doRequest(t, app, http.MethodPut, "/api/products/"+createdProduct.ID, token, updatedProductData)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updatedProduct models.Product
	decodeBody(t, resp, &updatedProduct)
	assert.Equal(t, createdProduct.ID, updatedProduct.ID)
	assert.Equal(t, updatedProductData["name"], updatedProduct.Name)

	resp = doRequest(t, app, http.MethodPut, "/api/products/"+uuid.NewString(), token, updatedProductData)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// --- Test DELETE /products/:id (protected) ---
	resp = doRequest(t, app, http.MethodDelete, "/api/products/"+createdProduct.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var deleteResp map[string]string
	decodeBody(t, resp, &deleteResp)
	assert.Contains(t, deleteResp["message"], "deleted successfully")

	// Verify deletion
	resp = doRequest(t, app, http.MethodGet, "/api/products/"+createdProduct.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := setupApp(t, nil)

	resp := doRequest(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.Equal(t, map[string]interface{}{"database": "connected"}, body["connections"])
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return fmt.Errorf("no reachable servers") }

func TestHealthReportsDisconnectedDatabase(t *testing.T) {
	app := fiber.New()
	handlers.NewHealthHandler(downPinger{}, database.DriverPostgres, "production", logger.Discard()).RegisterRoutes(app)

	resp := doRequest(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, map[string]interface{}{"database": "disconnected"}, body["connections"])
}

type upPinger struct{}

func (upPinger) Ping(context.Context) error { return nil }

func TestHealthReportsMongoUnderItsOwnKey(t *testing.T) {
	app := fiber.New()
	handlers.NewHealthHandler(upPinger{}, database.DriverMongo, "production", logger.Discard()).RegisterRoutes(app)

	resp := doRequest(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, map[string]interface{}{"mongodb": "connected"}, body["connections"])
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger.Discard())})
	app.Get("/boom", func(c *fiber.Ctx) error { return fmt.Errorf("secret internals") })

	resp := doRequest(t, app, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, map[string]string{"error": "Server error"}, body)

	resp = doRequest(t, app, http.MethodGet, "/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
