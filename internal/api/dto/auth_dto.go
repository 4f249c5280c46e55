package dto

// LoginRequest payload for login.
type LoginRequest struct {
	Subject string `json:"subject"`
	Secret  string `json:"secret"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	Token            string `json:"token"`
	Type             string `json:"type"`
	Subject          string `json:"subject"`
	PrincipalID      int64  `json:"principal_id"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

// ValidateResponse is returned by the validate endpoint.
type ValidateResponse struct {
	Valid            bool   `json:"valid"`
	Subject          string `json:"subject,omitempty"`
	PrincipalID      int64  `json:"principal_id,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	Message          string `json:"message,omitempty"`
}

// MessageResponse carries a plain acknowledgment.
type MessageResponse struct {
	Message string `json:"message"`
}
