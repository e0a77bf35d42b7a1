package models

// Outcome is the single result of validating one API key
type Outcome struct {
	Status            Status  `json:"status"`
	Message           *string `json:"message"`
	ClientName        *string `json:"client_name"`
	RemainingRequests *int64  `json:"remaining_requests"`
	DaysLeft          *int64  `json:"days_left"`
	Active            *bool   `json:"active"`
}

// NewDenial builds an outcome for any non-ok status
func NewDenial(status Status) Outcome {
	inactive := false
	return Outcome{Status: status, Active: &inactive}
}

// IsUsable reports whether the key may be used
func (o Outcome) IsUsable() bool {
	return o.Status == StatusOK
}

// WithMessage sets the message when one is not already attached
func (o Outcome) WithMessage(msg string) Outcome {
	if o.Message == nil && msg != "" {
		o.Message = &msg
	}
	return o
}
