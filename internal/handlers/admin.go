// Package handlers exposes the read-only admin HTTP surface next to the
// Telegram transport: health probing and inspection of events and payments.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ticket-bot/internal/storage"
	"ticket-bot/internal/utils"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	HealthCheck() error
}

type AdminHandler struct {
	store  storage.Store
	health HealthChecker
}

func NewAdminHandler(store storage.Store, health HealthChecker) *AdminHandler {
	return &AdminHandler{store: store, health: health}
}

func (h *AdminHandler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if h.health != nil {
		if err := h.health.HealthCheck(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "ticket-bot",
		"version":   "1.0.0",
	})
}

func (h *AdminHandler) ListEvents(c *gin.Context) {
	events, err := h.store.ListActiveEvents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list events", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Active events", events))
}

func (h *AdminHandler) ListUserPayments(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	payments, err := h.store.ListUserPayments(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list payments", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("User payments", payments))
}
