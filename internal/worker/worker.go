package worker

import (
	"bytes"
	"context"

	"quickcart/internal/broker"
	"quickcart/internal/models"
	"quickcart/internal/pricing"
	"quickcart/internal/receipt"
	"quickcart/internal/util"

	"go.uber.org/zap"
)

// ReceiptWorker archives a rendered receipt for every placed order
type ReceiptWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	archive      receipt.Archive
	pricing      pricing.Policy
	logger       *zap.Logger
}

// NewReceiptWorker creates a new receipt worker
func NewReceiptWorker(consumer *broker.Consumer, archive receipt.Archive, policy pricing.Policy) *ReceiptWorker {
	w := &ReceiptWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		archive:      archive,
		pricing:      policy,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnOrderPlaced(w.HandleOrderPlaced)
	w.eventHandler.OnOrderStatusChanged(w.handleStatusChanged)

	return w
}

// Start starts the worker
func (w *ReceiptWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting receipt worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReceiptWorker) Stop() error {
	w.logger.Info("Stopping receipt worker")
	return w.consumer.Close()
}

// HandleOrderPlaced renders and archives the receipt of a placed order
func (w *ReceiptWorker) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "ReceiptWorker.HandleOrderPlaced")
	defer span.End()

	var buf bytes.Buffer
	if err := receipt.Render(&buf, receipt.Build(event.Order, w.pricing)); err != nil {
		util.ReceiptsArchivedTotal.WithLabelValues("render_failed").Inc()
		return err
	}

	if err := w.archive.Save(ctx, event.Order.ID, buf.Bytes()); err != nil {
		util.ReceiptsArchivedTotal.WithLabelValues("failed").Inc()
		w.logger.Error("Failed to archive receipt",
			zap.String("order_id", event.Order.ID),
			zap.Error(err))
		return err
	}

	util.ReceiptsArchivedTotal.WithLabelValues("success").Inc()
	w.logger.Info("Receipt archived", zap.String("order_id", event.Order.ID))
	return nil
}

func (w *ReceiptWorker) handleStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status changed",
		zap.String("order_id", event.OrderID),
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)))
	return nil
}
