package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginRejected  EventType = "login_rejected"
	EventTokenRefreshed EventType = "token_refreshed"
	EventRefreshDenied  EventType = "refresh_denied"
	EventLogout         EventType = "logout"
)

// Event represents an authentication event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	Subject     string      `json:"subject,omitempty"`
	PrincipalID int64       `json:"principal_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload,omitempty"`
}

// TokenPayload describes the token involved in an event.
type TokenPayload struct {
	TokenID   string    `json:"token_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// RejectionPayload carries the reason a login or refresh was denied.
type RejectionPayload struct {
	Reason string `json:"reason"`
}

// LogoutPayload records the status of the token presented at logout.
type LogoutPayload struct {
	TokenStatus string `json:"token_status"`
}
