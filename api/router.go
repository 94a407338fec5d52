// Package api exposes the membership ledger over HTTP with gin.
//
// The caller's identity is taken from the X-Caller header. Authenticating
// that header is left to whatever sits in front of the service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devlongs/solesub"
)

// CallerHeader carries the authenticated caller identity.
const CallerHeader = "X-Caller"

const callerKey = "solesub.caller"

// Handler serves the HTTP routes for a Ledger.
type Handler struct {
	ledger *solesub.Ledger
	logger *slog.Logger
}

// New creates a Handler for the ledger.
func New(l *solesub.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ledger: l, logger: logger}
}

// Register mounts every route on the given router group.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/plan", h.getPlan)
	r.GET("/memberships/:holder", h.getMembership)
	r.GET("/memberships/:holder/valid", h.getValidity)

	authed := r.Group("", requireCaller())
	authed.POST("/memberships", h.issue)
	authed.POST("/memberships/renew", h.renew)
	authed.DELETE("/credentials/:id", h.revoke)
	authed.POST("/credentials/:id/transfer", h.transfer)

	admin := authed.Group("/admin")
	admin.PUT("/price", h.setPrice)
	admin.PUT("/duration", h.setDuration)
	admin.POST("/pause", h.pause)
	admin.POST("/unpause", h.unpause)
	admin.POST("/withdraw", h.withdraw)
	admin.GET("/balance", h.balance)
}

// NewRouter builds a gin engine with recovery, request logging and all routes.
func NewRouter(l *solesub.Ledger, logger *slog.Logger) *gin.Engine {
	h := New(l, logger)

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	h.Register(r)
	return r
}

func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetHeader(CallerHeader)
		if caller == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + CallerHeader + " header", "code": "missing_caller"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) string {
	return c.GetString(callerKey)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
