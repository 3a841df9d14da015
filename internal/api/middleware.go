package api

import (
	"errors"
	"net/http"

	"quickcart/internal/models"
	"quickcart/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHeader carries the opaque session id returned by login and register
const SessionHeader = "X-Session-ID"

const sessionContextKey = "session"

// requireSession resolves the session header or aborts with 401
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.sessionService.Resolve(c.GetHeader(SessionHeader))
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// requireAdmin rejects non-admin sessions. The services check the role again.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess := sessionFrom(c); sess == nil || !sess.User.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   models.KindForbidden,
				"details": "admin role required",
			})
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *service.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*service.Session)
	return sess
}

var statusByKind = map[models.ErrorKind]int{
	models.KindInvalidCredentials:     http.StatusUnauthorized,
	models.KindNotAuthenticated:       http.StatusUnauthorized,
	models.KindForbidden:              http.StatusForbidden,
	models.KindEmailAlreadyRegistered: http.StatusConflict,
	models.KindProductNotFound:        http.StatusNotFound,
	models.KindOrderNotFound:          http.StatusNotFound,
	models.KindInsufficientStock:      http.StatusConflict,
	models.KindInvalidTransition:      http.StatusConflict,
	models.KindInvalidInput:           http.StatusBadRequest,
}

// abortWithError writes {"error": KIND, "details": message}. Errors without
// a domain kind are logged and reported as 500.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		status, ok := statusByKind[domainErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":   domainErr.Kind,
			"details": domainErr.Error(),
		})
		return
	}

	h.logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "INTERNAL",
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   models.KindInvalidInput,
		"details": err.Error(),
	})
}
