package service

import (
	"context"
	"errors"
	"testing"

	"quickcart/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByCategory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	all, err := h.catalog.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	home, err := h.catalog.List(ctx, models.CategoryHome)
	require.NoError(t, err)
	require.Len(t, home, 1)
	assert.Equal(t, "p2", home[0].ID)

	beauty, err := h.catalog.List(ctx, models.CategoryBeauty)
	require.NoError(t, err)
	assert.NotNil(t, beauty)
	assert.Empty(t, beauty)

	_, err = h.catalog.List(ctx, "Furniture")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestGetByIDNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.catalog.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrProductNotFound))
}

func TestUpsertAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.login(t, "admin@test.com", "root")

	created, err := h.catalog.Upsert(ctx, admin, models.Product{
		Name:     "Smart Speaker",
		Category: models.CategoryElectronics,
		Price:    decimal.NewFromInt(3499),
		Stock:    12,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 12, h.product(t, created.ID).Stock)

	created.Stock = 2
	_, err = h.catalog.Upsert(ctx, admin, *created)
	require.NoError(t, err)
	assert.Equal(t, 2, h.product(t, created.ID).Stock)

	require.NoError(t, h.catalog.Delete(ctx, admin, created.ID))
	_, err = h.catalog.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, models.ErrProductNotFound))

	err = h.catalog.Delete(ctx, admin, created.ID)
	assert.True(t, errors.Is(err, models.ErrProductNotFound))
}

func TestUpdateRequiresExistingProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.login(t, "admin@test.com", "root")

	p2 := h.product(t, "p2")
	p2.Price = decimal.NewFromInt(999)
	updated, err := h.catalog.Update(ctx, admin, p2)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(999)))

	require.NoError(t, h.catalog.Delete(ctx, admin, "p2"))
	_, err = h.catalog.Update(ctx, admin, p2)
	assert.True(t, errors.Is(err, models.ErrProductNotFound))

	_, err = h.catalog.GetByID(ctx, "p2")
	assert.True(t, errors.Is(err, models.ErrProductNotFound))

	customer := h.login(t, "customer@test.com", "password123")
	_, err = h.catalog.Update(ctx, customer, h.product(t, "p1"))
	assert.True(t, errors.Is(err, models.ErrForbidden))
}

func TestUpsertValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.login(t, "admin@test.com", "root")

	valid := models.Product{Name: "Mug", Category: models.CategoryHome, Price: decimal.NewFromInt(10), Stock: 1}

	negativePrice := valid
	negativePrice.Price = decimal.NewFromInt(-1)
	negativeStock := valid
	negativeStock.Stock = -1
	badCategory := valid
	badCategory.Category = "Toys"

	for _, p := range []models.Product{negativePrice, negativeStock, badCategory} {
		_, err := h.catalog.Upsert(ctx, admin, p)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	}
}

func TestCatalogAdminChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.login(t, "customer@test.com", "password123")

	_, err := h.catalog.Upsert(ctx, customer, models.Product{Name: "x", Category: models.CategoryHome})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	err = h.catalog.Delete(ctx, nil, "p1")
	assert.True(t, errors.Is(err, models.ErrNotAuthenticated))

	_, err = h.catalog.Stats(ctx, customer)
	assert.True(t, errors.Is(err, models.ErrForbidden))
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.login(t, "customer@test.com", "password123")
	admin := h.login(t, "admin@test.com", "root")

	_, err := h.orders.PlaceOrder(ctx, customer, []models.CartItem{{ProductID: "p1", Quantity: 3}}, testAddress)
	require.NoError(t, err)

	stats, err := h.catalog.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "1500", stats.TotalRevenue.String())
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 1, stats.TotalCustomers)
}
