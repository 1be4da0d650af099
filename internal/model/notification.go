package model

import "time"

const (
	NotifArchiveReady  = "archive_ready"
	NotifArchiveFailed = "archive_failed"
	NotifClaimResolved = "claim_resolved"
	NotifSystem        = "system"
)

type Notification struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string `gorm:"index;not null" json:"-"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
