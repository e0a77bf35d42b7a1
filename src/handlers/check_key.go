package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/license-gate/src/middleware"
	"github.com/khabaroff/license-gate/src/models"
	"github.com/khabaroff/license-gate/src/services"
)

// checkTimeout bounds store I/O for a single validation
const checkTimeout = 10 * time.Second

// denialMessages are attached to every non-ok outcome
var denialMessages = map[models.Status]string{
	models.StatusMaintenance:   "Service temporarily unavailable (maintenance)",
	models.StatusInvalidKey:    "Key not found",
	models.StatusBlocked:       "Key is blocked",
	models.StatusDisabled:      "Key is disabled",
	models.StatusExpired:       "Subscription has expired",
	models.StatusLimitExceeded: "Monthly request limit reached",
	models.StatusUnavailable:   "Unable to confirm the key, try again later",
}

// DenialMessage returns the human-readable text for a denial status
func DenialMessage(status models.Status) string {
	return denialMessages[status]
}

// CheckKeyRequest is the body of POST /api/check-key
type CheckKeyRequest struct {
	APIKey string `json:"api_key"`
}

// CheckKeyHandler exposes the validation engine over HTTP
type CheckKeyHandler struct {
	validation *services.ValidationService
}

// NewCheckKeyHandler creates a new check-key handler
func NewCheckKeyHandler(validation *services.ValidationService) *CheckKeyHandler {
	return &CheckKeyHandler{validation: validation}
}

// HandleCheckKey validates the key and renders the outcome
func (h *CheckKeyHandler) HandleCheckKey(c *gin.Context) {
	var req CheckKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be JSON with an api_key field",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	start := time.Now()
	outcome := h.validation.Validate(ctx, req.APIKey)
	if !outcome.IsUsable() {
		outcome = outcome.WithMessage(DenialMessage(outcome.Status))
	}

	logger := middleware.RequestLogger(c, "check_key")
	logger.Info().
		Str("status", string(outcome.Status)).
		Str("key_suffix", services.KeySuffix(req.APIKey)).
		Dur("duration", time.Since(start)).
		Msg("key checked")

	code := http.StatusOK
	if outcome.Status == models.StatusUnavailable {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, outcome)
}
