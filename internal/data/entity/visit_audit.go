package entity

import "github.com/google/uuid"

type AuditAction string

const (
	AuditActionEdit       AuditAction = "edit"
	AuditActionReschedule AuditAction = "reschedule"
	AuditActionCancel     AuditAction = "cancel"
	AuditActionOverride   AuditAction = "status_override"
)

// FieldChange is one before/after pair of an audited visit field.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

type VisitAudit struct {
	BaseSimple
	VisitID uuid.UUID              `db:"visit_id"`
	ActorID *uuid.UUID             `db:"actor_id"`
	Action  AuditAction            `db:"action"`
	Changes map[string]FieldChange `db:"changes"`
}
