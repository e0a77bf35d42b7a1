package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/khabaroff/license-gate/src/logging"
	"github.com/khabaroff/license-gate/src/models"
)

// maxResponseBytes caps how much of a reply is read
const maxResponseBytes = 64 << 10

const (
	msgNoResponse      = "Server is not responding"
	msgUnknownResponse = "Unknown server response"
	msgAccessGranted   = "Access granted"
)

// statusMessages are shown to the user for each denial
var statusMessages = map[models.Status]string{
	models.StatusInvalidKey:    "Invalid key",
	models.StatusBlocked:       "Key is blocked",
	models.StatusDisabled:      "Key is disabled",
	models.StatusExpired:       "Subscription has expired",
	models.StatusLimitExceeded: "Request limit reached",
	models.StatusMaintenance:   "Service unavailable: maintenance",
	models.StatusUnavailable:   "Service unavailable: try again later",
}

// Decision is what the application does with the key check
type Decision struct {
	Allowed  bool
	Status   models.Status   // empty when no usable answer arrived
	Messages []string        // lines to show the user, in order
	Outcome  *models.Outcome // nil on transport faults
}

func deny(status models.Status, outcome *models.Outcome, msg string) Decision {
	return Decision{Status: status, Outcome: outcome, Messages: []string{msg}}
}

// Gate asks the license server whether the application may run.
// Anything other than an affirmative ok denies access.
type Gate struct {
	cfg        *Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGate creates a gate with an HTTP client bounded by the configured timeout
func NewGate(cfg *Config) *Gate {
	return &Gate{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logging.NewLogger("license_gate"),
	}
}

// Check posts the key to the server and maps the reply to a decision
func (g *Gate) Check(ctx context.Context) Decision {
	outcome, httpStatus, err := g.post(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("license check failed")
		return deny("", nil, msgNoResponse)
	}

	switch {
	case httpStatus == http.StatusOK:
	case httpStatus == http.StatusServiceUnavailable && outcome != nil && outcome.Status == models.StatusUnavailable:
		return deny(outcome.Status, outcome, statusMessages[outcome.Status])
	default:
		g.logger.Warn().Int("http_status", httpStatus).Msg("license server returned an error")
		return deny("", nil, msgNoResponse)
	}

	if outcome == nil {
		return deny("", nil, msgUnknownResponse)
	}

	if outcome.Status == models.StatusOK {
		var messages []string
		if outcome.Message != nil && *outcome.Message != "" {
			messages = append(messages, *outcome.Message)
		}
		messages = append(messages, msgAccessGranted)
		return Decision{Allowed: true, Status: outcome.Status, Outcome: outcome, Messages: messages}
	}

	if msg, ok := statusMessages[outcome.Status]; ok {
		return deny(outcome.Status, outcome, msg)
	}
	return deny("", outcome, msgUnknownResponse)
}

// post returns the decoded outcome (nil when undecodable) and the HTTP status
func (g *Gate) post(ctx context.Context) (*models.Outcome, int, error) {
	body, err := json.Marshal(map[string]string{"api_key": g.cfg.APIKey})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal check request: %w", err)
	}

	url := strings.TrimRight(g.cfg.ServerURL, "/") + "/api/check-key"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send check request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read check response: %w", err)
	}

	var outcome models.Outcome
	if err := json.Unmarshal(respBody, &outcome); err != nil || outcome.Status == "" {
		return nil, resp.StatusCode, nil
	}
	return &outcome, resp.StatusCode, nil
}
