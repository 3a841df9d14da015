package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"
	"time"

	"quickcart/internal/models"
	"quickcart/internal/pricing"
	"quickcart/internal/store"
	"quickcart/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher receives order domain events after they are committed
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles order business logic
type OrderService struct {
	store          *store.Store
	eventPublisher EventPublisher
	pricing        pricing.Policy
	latency        time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, eventPublisher EventPublisher, opts Options) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		pricing:        opts.Pricing,
		latency:        opts.Latency,
		logger:         util.GetLogger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices a cart against the live catalog without reserving anything
type Quote struct {
	Items []models.LineItem `json:"items"`
	pricing.Settlement
}

var zipPattern = regexp.MustCompile(`^[0-9]{6}$`)

const (
	orderIDPrefix   = "ORD-"
	orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderIDLength   = 6
)

// Pricing returns the shipping and tax policy used for display totals
func (s *OrderService) Pricing() pricing.Policy {
	return s.pricing
}

// PlaceOrder commits a purchase for the session user. Stock for every line is
// checked before any of it is decremented, and the order is appended in the
// same state write.
func (s *OrderService) PlaceOrder(ctx context.Context, sess *Session, items []models.CartItem, address models.ShippingAddress) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if err := util.SimulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	if sess == nil {
		util.OrdersFailedTotal.WithLabelValues("not_authenticated").Inc()
		return nil, models.ErrNotAuthenticated
	}

	if err := validateCart(items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}
	if err := validateAddress(address); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_address").Inc()
		return nil, err
	}

	cart, err := mergeCartItems(items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	var order models.Order
	err = s.store.Update(ctx, func(state *models.State) error {
		lines, err := reserveStock(state, cart)
		if err != nil {
			return err
		}

		id, err := newOrderID(func(candidate string) bool {
			return state.FindOrder(candidate) >= 0
		})
		if err != nil {
			return err
		}

		order = models.Order{
			ID:              id,
			UserID:          sess.User.ID,
			Items:           lines,
			Status:          models.OrderStatusPlaced,
			CreatedAt:       s.now(),
			ShippingAddress: address,
		}
		order.Total = order.Subtotal()

		state.Orders = append(state.Orders, order)
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("Order rejected",
			zap.String("user_id", sess.User.ID),
			zap.Error(err))
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	util.OrderValueTotal.Add(order.Total.InexactFloat64())
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", order.Total.String()))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: s.now(),
		},
		Order: order,
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	return &order, nil
}

// Quote prices a cart, including shipping and tax, without mutating anything
func (s *OrderService) Quote(ctx context.Context, items []models.CartItem) (*Quote, error) {
	if err := validateCart(items); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := mergeCartItems(items)
	if err != nil {
		return nil, err
	}

	lines, err := resolveLines(state, cart)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Extension())
	}

	return &Quote{Items: lines, Settlement: s.pricing.Settle(subtotal)}, nil
}

// ListOrders returns the orders of the session user, newest first. A missing
// session yields an empty list.
func (s *OrderService) ListOrders(ctx context.Context, sess *Session) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if sess == nil {
		return []models.Order{}, nil
	}

	if err := util.SimulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0)
	for _, o := range state.Orders {
		if o.UserID == sess.User.ID {
			orders = append(orders, o)
		}
	}
	sortNewestFirst(orders)
	return orders, nil
}

// ListAllOrders returns every order, newest first
func (s *OrderService) ListAllOrders(ctx context.Context, sess *Session) ([]models.Order, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	orders := append([]models.Order{}, state.Orders...)
	sortNewestFirst(orders)
	return orders, nil
}

// GetOrder returns one order visible to the session: its owner or an admin
func (s *OrderService) GetOrder(ctx context.Context, sess *Session, orderID string) (*models.Order, error) {
	if sess == nil {
		return nil, models.ErrNotAuthenticated
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	idx := state.FindOrder(orderID)
	if idx < 0 || (state.Orders[idx].UserID != sess.User.ID && !sess.User.IsAdmin()) {
		return nil, models.NewError(models.KindOrderNotFound, "order %s", orderID)
	}
	order := state.Orders[idx]
	return &order, nil
}

// UpdateStatus advances an order by exactly one fulfilment step
func (s *OrderService) UpdateStatus(ctx context.Context, sess *Session, orderID string, status models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	if err := util.SimulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	var (
		order models.Order
		from  models.OrderStatus
	)
	err := s.store.Update(ctx, func(state *models.State) error {
		idx := state.FindOrder(orderID)
		if idx < 0 {
			return models.NewError(models.KindOrderNotFound, "order %s", orderID)
		}

		from = state.Orders[idx].Status
		if !from.CanTransitionTo(status) {
			return models.NewError(models.KindInvalidTransition, "%s -> %s", from, status)
		}

		state.Orders[idx].Status = status
		order = state.Orders[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(status)).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
		zap.String("admin_id", sess.User.ID))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: s.now(),
		},
		OrderID: order.ID,
		UserID:  order.UserID,
		From:    from,
		To:      status,
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	return &order, nil
}

func validateCart(items []models.CartItem) error {
	if len(items) == 0 {
		return models.NewError(models.KindInvalidInput, "cart is empty")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return models.NewError(models.KindInvalidInput, "cart item without product id")
		}
		if item.Quantity < 1 {
			return models.NewError(models.KindInvalidInput, "quantity for %s must be at least 1", item.ProductID)
		}
	}
	return nil
}

func validateAddress(a models.ShippingAddress) error {
	for field, value := range map[string]string{
		"name":    a.Name,
		"email":   a.Email,
		"address": a.Address,
		"city":    a.City,
	} {
		if strings.TrimSpace(value) == "" {
			return models.NewError(models.KindInvalidInput, "shipping %s is required", field)
		}
	}
	if !zipPattern.MatchString(a.Zip) {
		return models.NewError(models.KindInvalidInput, "postal code must be 6 digits")
	}
	return nil
}

// newOrderID draws ORD-XXXXXX identifiers until one is not taken
func newOrderID(taken func(string) bool) (string, error) {
	max := big.NewInt(int64(len(orderIDAlphabet)))
	for attempt := 0; attempt < 100; attempt++ {
		var b strings.Builder
		b.WriteString(orderIDPrefix)
		for i := 0; i < orderIDLength; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("failed to generate order id: %w", err)
			}
			b.WriteByte(orderIDAlphabet[n.Int64()])
		}
		if id := b.String(); !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique order id")
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func failureReason(err error) string {
	var e *models.Error
	if errors.As(err, &e) {
		return strings.ToLower(string(e.Kind))
	}
	return "store_error"
}
