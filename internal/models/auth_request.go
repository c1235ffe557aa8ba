package models

import (
	"time"
)

// Request status values stored in authentication_requests.request_status.
const (
	RequestStatusPending  = 0
	RequestStatusApproved = 1
)

// FreshnessWindow is the maximum age a pending request stays eligible
// for lookup by access code. Older requests are treated as expired.
const FreshnessWindow = 2 * time.Hour

// AuthRequest tracks one pending-or-approved attempt to link an in-game
// session to an external identity. Rows are created out-of-band by the game
// server when a player asks for an access code; this service only reads them
// and transitions them to approved.
type AuthRequest struct {
	ID                   int64   `gorm:"primaryKey;autoIncrement"`
	AccessCode           string  `gorm:"index;not null"`
	RequestStatus        int     `gorm:"not null;default:0"`
	AuthenticationMethod string  // provider that approved the request, set on approval
	ExternalUID          string  // provider user id, set on approval
	ExternalUsername     string  // provider username, set on approval
	InternalAccountID    *string // known game account, set on approval only when linked
	Timestamp            time.Time
}

func (AuthRequest) TableName() string {
	return "authentication_requests"
}

// IsPending reports whether the request has not been approved yet.
func (r *AuthRequest) IsPending() bool {
	return r.RequestStatus == RequestStatusPending
}

// IsExpired reports whether the request fell out of the freshness window.
func (r *AuthRequest) IsExpired(window time.Duration) bool {
	return time.Since(r.Timestamp) > window
}

// Approval carries the fields written when a request transitions to approved.
// InternalAccountID being nil means "no known link": the column is left
// untouched rather than overwritten with NULL.
type Approval struct {
	Method            string
	ExternalUID       string
	ExternalUsername  string
	InternalAccountID *string
}
