package api

import (
	"net/http"

	"quickcart/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	category := models.Category(c.Query("category"))

	products, err := h.catalogService.List(c.Request.Context(), category)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalogService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, err)
		return
	}

	saved, err := h.catalogService.Upsert(c.Request.Context(), sessionFrom(c), product)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, err)
		return
	}
	product.ID = c.Param("id")

	saved, err := h.catalogService.Update(c.Request.Context(), sessionFrom(c), product)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalogService.Delete(c.Request.Context(), sessionFrom(c), c.Param("id")); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.catalogService.Stats(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
