package service

import (
	"context"
	"strings"
	"time"

	"quickcart/internal/models"
	"quickcart/internal/store"
	"quickcart/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService serves product reads and admin catalog maintenance
type CatalogService struct {
	store   *store.Store
	latency time.Duration
	logger  *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, opts Options) *CatalogService {
	return &CatalogService{
		store:   store,
		latency: opts.Latency,
		logger:  util.GetLogger(),
	}
}

// List returns the catalog, or one category of it when category is set
func (s *CatalogService) List(ctx context.Context, category models.Category) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.List")
	defer span.End()

	if category != "" && !category.Valid() {
		return nil, models.NewError(models.KindInvalidInput, "unknown category %q", category)
	}

	if err := util.SimulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(state.Products))
	for _, p := range state.Products {
		if category == "" || p.Category == category {
			products = append(products, p)
		}
	}
	return products, nil
}

// GetByID returns one product
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	idx := state.FindProduct(id)
	if idx < 0 {
		return nil, models.NewError(models.KindProductNotFound, "product %s", id)
	}
	product := state.Products[idx]
	return &product, nil
}

// Upsert creates a product, or replaces the one with the same id
func (s *CatalogService) Upsert(ctx context.Context, sess *Session, product models.Product) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Upsert")
	defer span.End()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	return s.save(ctx, sess, product, false)
}

// Update replaces an existing product. ProductNotFound when it is absent,
// checked in the same write that replaces it.
func (s *CatalogService) Update(ctx context.Context, sess *Session, product models.Product) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Update")
	defer span.End()

	return s.save(ctx, sess, product, true)
}

func (s *CatalogService) save(ctx context.Context, sess *Session, product models.Product, mustExist bool) (*models.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created := false
	err := s.store.Update(ctx, func(state *models.State) error {
		if idx := state.FindProduct(product.ID); idx >= 0 {
			state.Products[idx] = product
			return nil
		}
		if mustExist {
			return models.NewError(models.KindProductNotFound, "product %s", product.ID)
		}
		state.Products = append(state.Products, product)
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product saved",
		zap.String("product_id", product.ID),
		zap.Bool("created", created),
		zap.String("admin_id", sess.User.ID))
	return &product, nil
}

// Delete removes a product. Orders keep their line item snapshots.
func (s *CatalogService) Delete(ctx context.Context, sess *Session, id string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Delete")
	defer span.End()

	if err := requireAdmin(sess); err != nil {
		return err
	}

	err := s.store.Update(ctx, func(state *models.State) error {
		idx := state.FindProduct(id)
		if idx < 0 {
			return models.NewError(models.KindProductNotFound, "product %s", id)
		}
		state.Products = append(state.Products[:idx], state.Products[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", id),
		zap.String("admin_id", sess.User.ID))
	return nil
}

// Stats summarises revenue, orders, products and customers
func (s *CatalogService) Stats(ctx context.Context, sess *Session) (*models.DashboardStats, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalRevenue:  decimal.Zero,
		TotalOrders:   len(state.Orders),
		TotalProducts: len(state.Products),
	}
	for _, o := range state.Orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
	}
	for _, u := range state.Users {
		if u.Role == models.RoleCustomer {
			stats.TotalCustomers++
		}
	}
	return stats, nil
}

func validateProduct(p models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return models.NewError(models.KindInvalidInput, "product name is required")
	case !p.Category.Valid():
		return models.NewError(models.KindInvalidInput, "unknown category %q", p.Category)
	case p.Price.IsNegative():
		return models.NewError(models.KindInvalidInput, "price must not be negative")
	case p.Stock < 0:
		return models.NewError(models.KindInvalidInput, "stock must not be negative")
	}
	return nil
}
