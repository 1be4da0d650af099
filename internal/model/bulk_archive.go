package model

import "time"

const (
	ArchivePending = "pending"
	ArchiveReady   = "ready"
	ArchiveFailed  = "failed"
)

// BulkArchive tracks a server-assembled zip of multiple videos. The
// zip itself sits on local disk under Path until the cleanup sweep
// removes it after ExpiresAt
type BulkArchive struct {
	ID           string `gorm:"primaryKey" json:"id"` // uuid
	UserID       string `gorm:"index;not null" json:"-"`
	Status       string `gorm:"default:pending" json:"status"`
	VideoCount   int    `json:"video_count"`
	SkippedCount int    `json:"skipped_count"`
	SizeBytes    int64  `json:"size_bytes"`
	Path         string `json:"-"`
	Error        string `json:"error,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
