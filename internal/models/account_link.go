package models

import "time"

// AccountLink maps an external provider identity to a game account. The
// mapping is written by the verification flow on the game side; this service
// only reads it to decide whether an approval can carry an account reference.
type AccountLink struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	ExternalUID string `gorm:"uniqueIndex;not null"`
	AccountID   string `gorm:"not null"`
	CreatedAt   time.Time
}

func (AccountLink) TableName() string {
	return "account_links"
}
