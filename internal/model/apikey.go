package model

import "time"

// APIKey authenticates third party integrations on the /api/v1
// surface. Only the SHA-256 hash of the key is stored, the plaintext
// is shown exactly once on creation
type APIKey struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	KeyHash    string `gorm:"uniqueIndex;not null" json:"-"`
	Label      string `json:"label"`
	UserID     string `gorm:"index;not null" json:"-"`
	Active     bool   `gorm:"default:true" json:"active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type APIUsage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	APIKeyID  uint   `gorm:"index;not null" json:"api_key_id"`
	Route     string `json:"route"`
	Status    int    `json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
