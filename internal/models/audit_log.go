package models

import "time"

// Audit event types for the authentication handshake.
const (
	EventHandshakeApproved = "handshake_approved"
	EventHandshakeFailed   = "handshake_failed"
)

// AuditLog records the outcome of one handshake attempt. Entries are written
// asynchronously in batches; see services.AuditService.
type AuditLog struct {
	ID          string `gorm:"primaryKey"`
	EventType   string `gorm:"index;not null"`
	AccessCode  string
	Method      string
	ExternalUID string
	ActorIP     string
	Success     bool
	Reason      string    // internal failure reason, never exposed to callers
	CreatedAt   time.Time `gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
