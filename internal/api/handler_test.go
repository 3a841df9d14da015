package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickcart/internal/broker"
	"quickcart/internal/models"
	"quickcart/internal/receipt"
	"quickcart/internal/service"
	"quickcart/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, *service.SessionService) {
	t.Helper()

	st := store.NewStore(store.NewMemoryBackend(), func() *models.State {
		return &models.State{
			Users: []models.User{
				{ID: "2", Email: "customer@test.com", Name: "Test Customer", Role: models.RoleCustomer, Password: "password123"},
			},
			Products: []models.Product{
				{ID: "p1", Name: "Canvas Tote", Category: models.CategoryWomensWear, Price: decimal.NewFromInt(500), Stock: 10},
				{ID: "p2", Name: "Desk Lamp", Category: models.CategoryHome, Price: decimal.NewFromInt(1200), Stock: 3},
			},
			Orders: []models.Order{},
		}
	})

	opts := service.DefaultOptions()
	sessions := service.NewSessionService(st, opts)
	h := NewHandler(
		st,
		sessions,
		service.NewCatalogService(st, opts),
		service.NewOrderService(st, broker.NopPublisher{}, opts),
		receipt.NewMemoryArchive(),
	)

	router := gin.New()
	h.SetupRoutes(router)
	return router, sessions
}

func do(t *testing.T, router *gin.Engine, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func login(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sess service.Session
	decode(t, w, &sess)
	return sess.ID
}

func orderBody(items ...models.CartItem) gin.H {
	return gin.H{
		"items": items,
		"shippingAddress": gin.H{
			"name": "Alice", "email": "alice@test.com", "address": "12 Park Street", "city": "Kolkata", "zip": "700016",
		},
	}
}

func TestHealthAndReady(t *testing.T) {
	router, _ := newRouter(t)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/ready", "", nil).Code)
}

func TestRegisterAndMe(t *testing.T) {
	router, _ := newRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Alice", "email": "alice@test.com", "password": "pw123"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "pw123")

	var sess service.Session
	decode(t, w, &sess)
	assert.Equal(t, sess.ID, w.Header().Get(SessionHeader))

	w = do(t, router, http.MethodGet, "/api/v1/auth/me", sess.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "alice@test.com", me.Email)

	w = do(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Alice", "email": "alice@test.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginFailure(t *testing.T) {
	router, _ := newRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "bob@test.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "INVALID_CREDENTIALS", body["error"])
}

func TestSessionRequired(t *testing.T) {
	router, _ := newRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/orders", "not-a-session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProducts(t *testing.T) {
	router, _ := newRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/products?category=Home", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []models.Product
	decode(t, w, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "p2", products[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/v1/products?category=Toys", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/products/zzz", "", nil).Code)
}

func TestPlaceOrderFlow(t *testing.T) {
	router, _ := newRouter(t)
	sid := login(t, router, "customer@test.com", "password123")

	w := do(t, router, http.MethodPost, "/api/v1/orders", sid, orderBody(models.CartItem{ProductID: "p1", Quantity: 2}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var placed struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &placed)
	assert.Equal(t, "1000", placed.Order.Total.String())
	assert.Equal(t, models.OrderStatusPlaced, placed.Order.Status)

	w = do(t, router, http.MethodGet, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	decode(t, w, &orders)
	assert.Len(t, orders, 1)

	w = do(t, router, http.MethodGet, "/api/v1/orders/"+placed.Order.ID+"/receipt", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), placed.Order.ID)
	assert.Contains(t, w.Body.String(), "INR 1219.00")

	w = do(t, router, http.MethodPost, "/api/v1/orders", sid, orderBody(models.CartItem{ProductID: "p2", Quantity: 5}))
	assert.Equal(t, http.StatusConflict, w.Code)
	var failure map[string]string
	decode(t, w, &failure)
	assert.Equal(t, "INSUFFICIENT_STOCK", failure["error"])

	w = do(t, router, http.MethodGet, "/api/v1/products/p2", "", nil)
	var p2 models.Product
	decode(t, w, &p2)
	assert.Equal(t, 3, p2.Stock)
}

func TestPlaceOrderBadZip(t *testing.T) {
	router, _ := newRouter(t)
	sid := login(t, router, "customer@test.com", "password123")

	body := orderBody(models.CartItem{ProductID: "p1", Quantity: 1})
	body["shippingAddress"].(gin.H)["zip"] = "12"

	w := do(t, router, http.MethodPost, "/api/v1/orders", sid, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuote(t *testing.T) {
	router, _ := newRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/cart/quote", "", gin.H{"items": []models.CartItem{{ProductID: "p1", Quantity: 2}}})
	require.Equal(t, http.StatusOK, w.Code)

	var q struct {
		GrandTotal   decimal.Decimal `json:"grandTotal"`
		FreeShipping bool            `json:"freeShipping"`
	}
	decode(t, w, &q)
	assert.Equal(t, "1219", q.GrandTotal.String())
	assert.False(t, q.FreeShipping)
}

func TestAdminRoutes(t *testing.T) {
	router, sessions := newRouter(t)
	require.NoError(t, sessions.EnsureAdmin(context.Background(), "Admin", "admin@test.com", "root"))

	customer := login(t, router, "customer@test.com", "password123")
	admin := login(t, router, "admin@test.com", "root")

	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodGet, "/api/v1/admin/stats", customer, nil).Code)

	w := do(t, router, http.MethodPost, "/api/v1/orders", customer, orderBody(models.CartItem{ProductID: "p1", Quantity: 1}))
	require.Equal(t, http.StatusCreated, w.Code)
	var placed struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &placed)
	statusPath := "/api/v1/admin/orders/" + placed.Order.ID + "/status"

	w = do(t, router, http.MethodPatch, statusPath, admin, gin.H{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPatch, statusPath, admin, gin.H{"status": "PACKED"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Order
	decode(t, w, &updated)
	assert.Equal(t, models.OrderStatusPacked, updated.Status)

	w = do(t, router, http.MethodPost, "/api/v1/admin/products", admin, gin.H{
		"name": "Smart Speaker", "category": "Electronics", "price": 3499, "stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Product
	decode(t, w, &created)

	w = do(t, router, http.MethodPut, "/api/v1/admin/products/"+created.ID, admin, gin.H{
		"name": "Smart Speaker", "category": "Electronics", "price": 2999, "stock": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPut, "/api/v1/admin/products/nope", admin, gin.H{
		"name": "X", "category": "Home", "price": 1, "stock": 1,
	}).Code)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/v1/admin/products/"+created.ID, admin, nil).Code)

	w = do(t, router, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.DashboardStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.TotalCustomers)

	w = do(t, router, http.MethodGet, "/api/v1/admin/orders", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Order
	decode(t, w, &all)
	assert.Len(t, all, 1)
}

func TestLogout(t *testing.T) {
	router, _ := newRouter(t)
	sid := login(t, router, "customer@test.com", "password123")

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodPost, "/api/v1/auth/logout", sid, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/auth/me", sid, nil).Code)
}

func TestWishlist(t *testing.T) {
	router, _ := newRouter(t)
	sid := login(t, router, "customer@test.com", "password123")

	w := do(t, router, http.MethodPut, "/api/v1/wishlist", sid, gin.H{"wishlist": []string{"p1", "p1", "p2"}})
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	decode(t, w, &user)
	assert.Equal(t, []string{"p1", "p2"}, user.Wishlist)
}
