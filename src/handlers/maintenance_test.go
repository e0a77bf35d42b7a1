package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/khabaroff/license-gate/src/repositories/mock"
	"github.com/khabaroff/license-gate/src/services"
)

func TestMaintenanceHandler_EnableDisable(t *testing.T) {
	maintenance := services.NewMaintenanceService(repositories.NewMemoryMaintenanceRepository())
	handler := NewMaintenanceHandler(maintenance)

	w, c := createTestContext()
	c.Request = httptest.NewRequest(http.MethodPost, "/api/maintenance/enable", nil)
	handler.HandleEnable(c)

	assertStatusCode(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["maintenance"])
	assert.True(t, maintenance.Enabled(context.Background()))

	w, c = createTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/api/maintenance", nil)
	handler.HandleStatus(c)
	assert.Equal(t, true, decodeBody(t, w)["maintenance"])

	w, c = createTestContext()
	c.Request = httptest.NewRequest(http.MethodPost, "/api/maintenance/disable", nil)
	handler.HandleDisable(c)

	assertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, false, decodeBody(t, w)["maintenance"])
	assert.False(t, maintenance.Enabled(context.Background()))
}

func TestMaintenanceHandler_StoreError(t *testing.T) {
	repo := mock.NewMaintenanceRepository()
	repo.SetFunc = func(ctx context.Context, active bool) error {
		return errors.New("read-only replica")
	}
	handler := NewMaintenanceHandler(services.NewMaintenanceService(repo))

	w, c := createTestContext()
	c.Request = httptest.NewRequest(http.MethodPost, "/api/maintenance/enable", nil)
	handler.HandleEnable(c)

	assertStatusCode(t, w, http.StatusInternalServerError)
	assertJSONError(t, w, "failed to update maintenance flag")
}
