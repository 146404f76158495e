package types

import "time"

const (
	ActivityActionApproveDocument = "approve_document"
	ActivityActionRejectDocument  = "reject_document"

	ActivityEntityDocumentRequest = "document_request"
)

// ActivityLogEntry is an append-only audit record of an administrative
// action. ActorID is nil for system initiated actions.
type ActivityLogEntry struct {
	ID          string         `db:"id" json:"id"`
	ActorID     *string        `db:"actor_id" json:"actorId"`
	Action      string         `db:"action" json:"action"`
	Description string         `db:"description" json:"description"`
	EntityType  string         `db:"entity_type" json:"entityType"`
	EntityID    string         `db:"entity_id" json:"entityId"`
	Metadata    map[string]any `db:"metadata" json:"metadata"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}
