package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type wishlistRequest struct {
	Wishlist []string `json:"wishlist"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.sessionService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.Header(SessionHeader, sess.ID)
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.sessionService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.Header(SessionHeader, sess.ID)
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessionService.Logout(c.Request.Context(), sessionFrom(c)); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c).User)
}

func (h *Handler) updateWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.sessionService.UpdateWishlist(c.Request.Context(), sessionFrom(c), req.Wishlist)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
