package api

import (
	"bytes"
	"net/http"

	"quickcart/internal/models"
	"quickcart/internal/receipt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type placeOrderRequest struct {
	Items           []models.CartItem      `json:"items" binding:"required,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
}

type quoteRequest struct {
	Items []models.CartItem `json:"items" binding:"required,dive"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *Handler) quoteCart(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	quote, err := h.orderService.Quote(c.Request.Context(), req.Items)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), sessionFrom(c), req.Items, req.ShippingAddress)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":      order,
		"settlement": h.orderService.Pricing().Settle(order.Total),
	})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":      order,
		"settlement": h.orderService.Pricing().Settle(order.Total),
	})
}

// getReceipt serves the archived receipt when there is one and renders it
// from the order snapshot otherwise
func (h *Handler) getReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	order, err := h.orderService.GetOrder(ctx, sessionFrom(c), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if h.archive != nil {
		if body, err := h.archive.Load(ctx, order.ID); err == nil {
			c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
			return
		}
	}

	var buf bytes.Buffer
	if err := receipt.Render(&buf, receipt.Build(*order, h.orderService.Pricing())); err != nil {
		h.logger.Error("Failed to render receipt", zap.String("order_id", order.ID), zap.Error(err))
		h.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *Handler) listAllOrders(c *gin.Context) {
	orders, err := h.orderService.ListAllOrders(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), sessionFrom(c), c.Param("id"), req.Status)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
