package entities

import "time"

// AuditAction is the kind of change recorded in the audit trail
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEntry records a change to a master-data document
type AuditEntry struct {
	ID         string      `json:"id"`
	CompanyID  string      `json:"company_id"`
	Collection string      `json:"collection"`
	DocumentID string      `json:"document_id"`
	Action     AuditAction `json:"action"`
	ActorID    string      `json:"actor_id"`
	Diff       string      `json:"diff,omitempty"`
	At         time.Time   `json:"at"`
}
