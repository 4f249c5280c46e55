package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/Jack-Libra/coffeenote/internal/events"
)

// StartAuditWorker subscribes a structured audit logger to every auth event.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}
	audit := logger.Named("audit")
	handler := func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Time("timestamp", event.Timestamp),
		}
		if event.Subject != "" {
			fields = append(fields, zap.String("subject", event.Subject))
		}
		if event.PrincipalID != 0 {
			fields = append(fields, zap.Int64("principal_id", event.PrincipalID))
		}
		switch payload := event.Payload.(type) {
		case events.TokenPayload:
			fields = append(fields, zap.String("token_id", payload.TokenID), zap.Time("expires_at", payload.ExpiresAt))
		case events.RejectionPayload:
			fields = append(fields, zap.String("reason", payload.Reason))
		case events.LogoutPayload:
			fields = append(fields, zap.String("token_status", payload.TokenStatus))
		}
		audit.Info("auth event", fields...)
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventLoginSucceeded,
		events.EventLoginRejected,
		events.EventTokenRefreshed,
		events.EventRefreshDenied,
		events.EventLogout,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
