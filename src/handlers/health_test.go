package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khabaroff/license-gate/src/repositories/mock"
)

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(mock.NewClientRepository(), "memory")

	w, c := createTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.HandleHealth(c)

	assertStatusCode(t, w, http.StatusOK)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleReady_Success(t *testing.T) {
	handler := NewHealthHandler(mock.NewClientRepository(), "redis")

	w, c := createTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	handler.HandleReady(c)

	assertStatusCode(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "redis", body["backend"])
	assert.Contains(t, body, "store_latency")
}

func TestHandleReady_StoreDown(t *testing.T) {
	store := mock.NewClientRepository()
	store.PingFunc = func(ctx context.Context) error {
		return errors.New("connection refused")
	}
	handler := NewHealthHandler(store, "postgres")

	w, c := createTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	handler.HandleReady(c)

	assertStatusCode(t, w, http.StatusServiceUnavailable)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestHandleInfo(t *testing.T) {
	handler := NewHealthHandler(mock.NewClientRepository(), "memory")

	w, c := createTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/info", nil)
	handler.HandleInfo(c)

	assertStatusCode(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Equal(t, "license-gate", body["service"])
	assert.Equal(t, "memory", body["backend"])
}
