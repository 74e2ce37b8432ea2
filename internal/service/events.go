package service

import (
	"context"
	"encoding/json"

	"procurement/internal/model"
	"procurement/internal/repository"
)

// broadcaster is the slice of the websocket hub the services need. Nil is
// allowed (tests, CLI tooling) and disables notifications.
type broadcaster interface {
	GetBroadcast() chan []byte
}

// notifyStatusChange pushes a status-transition event to connected clients.
// Delivery is best-effort: if the hub is absent or saturated the event is
// dropped rather than blocking the request.
func notifyStatusChange(hub broadcaster, docType, id, number, status, reviewedBy string) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"type":        docType + "." + status,
		"id":          id,
		"number":      number,
		"status":      status,
		"reviewed_by": reviewedBy,
	})
	if err != nil {
		return
	}
	select {
	case hub.GetBroadcast() <- payload:
	default:
	}
}

// writeAudit records an audit entry attributed to the actor. Callers invoke
// it inside their transaction so the entry commits with the change.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor model.Actor, action, entityID, entityName string, details map[string]interface{}) error {
	serialized, _ := json.Marshal(details)
	userID := actor.UserID
	return repo.Create(ctx, &model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(serialized),
	})
}
