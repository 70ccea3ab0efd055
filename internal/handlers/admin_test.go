package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-bot/internal/models"
	"ticket-bot/internal/storage"
)

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck() error { return s.err }

func newRouter(store storage.Store, health HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(store, health)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/api/v1/events", h.ListEvents)
	router.GET("/api/v1/users/:id/payments", h.ListUserPayments)
	return router
}

func doGet(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	router := newRouter(storage.NewInMemoryStore(), stubHealth{})
	w, body := doGet(t, router, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestHealth_Degraded(t *testing.T) {
	router := newRouter(storage.NewInMemoryStore(), stubHealth{err: errors.New("db down")})
	w, body := doGet(t, router, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestListEvents(t *testing.T) {
	store := storage.NewInMemoryStore()
	_, err := store.SaveEvent(&models.Event{
		Title:  "Concerto",
		Price:  1500,
		Date:   time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC),
		Active: true,
	})
	require.NoError(t, err)

	router := newRouter(store, stubHealth{})
	w, body := doGet(t, router, "/api/v1/events")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestListUserPayments_BadID(t *testing.T) {
	router := newRouter(storage.NewInMemoryStore(), stubHealth{})
	w, body := doGet(t, router, "/api/v1/users/abc/payments")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestListUserPayments(t *testing.T) {
	store := storage.NewInMemoryStore()
	_, err := store.SaveEvent(&models.Event{Title: "Concerto", Price: 1500, Date: time.Now(), Active: true})
	require.NoError(t, err)
	_, err = store.SavePayment(&models.Payment{EventID: 1, UserID: 42, Amount: 1500, Quantity: 1, Time: time.Now()})
	require.NoError(t, err)

	router := newRouter(store, stubHealth{})
	w, body := doGet(t, router, "/api/v1/users/42/payments")

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)
}
