package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/license-gate/src/models"
	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/khabaroff/license-gate/src/services"
)

// Test helpers for handler tests

// fixedNow is the clock every handler test validates against
var fixedNow = time.Unix(1_700_000_000, 0)

// createTestContext creates a test Gin context with recorder
func createTestContext() (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return w, c
}

// jsonRequest builds a request with a JSON body
func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// newTestValidation wires a validation service over memory stores
func newTestValidation(t *testing.T, records ...*models.ClientRecord) (*services.ValidationService, *services.MaintenanceService, *repositories.MemoryClientRepository) {
	t.Helper()
	clients := repositories.NewMemoryClientRepository()
	for _, r := range records {
		if err := clients.Upsert(context.Background(), r); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}
	maintenance := services.NewMaintenanceService(repositories.NewMemoryMaintenanceRepository())
	validation := services.NewValidationService(clients, maintenance)
	validation.SetClock(func() time.Time { return fixedNow })
	return validation, maintenance, clients
}

// assertStatusCode checks if response status code matches expected
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expectedCode int) {
	t.Helper()
	if w.Code != expectedCode {
		t.Errorf("expected status %d, got %d: %s", expectedCode, w.Code, w.Body.String())
	}
}

// decodeBody parses the JSON response into a map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return response
}

// assertJSONError checks if response contains expected error message
func assertJSONError(t *testing.T, w *httptest.ResponseRecorder, expectedError string) {
	t.Helper()
	response := decodeBody(t, w)
	if response["error"] != expectedError {
		t.Errorf("expected error '%s', got '%v'", expectedError, response["error"])
	}
}
