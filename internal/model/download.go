package model

import "time"

// Download is the audit row for quota accounting. Re-downloads create
// new rows, the quota is only charged on the first successful one per
// request, never retroactively
type Download struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string  `gorm:"index;not null" json:"-"`
	VideoID   uint    `gorm:"index;not null" json:"video_id"`
	ArchiveID *string `gorm:"index" json:"archive_id,omitempty"` // Set when the row came from a bulk archive
	CreatedAt time.Time `json:"created_at"`

	Video Video `gorm:"foreignKey:VideoID" json:"video,omitzero"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:uq_user_video_favorite" json:"-"`
	VideoID   uint      `gorm:"not null;uniqueIndex:uq_user_video_favorite" json:"video_id"`
	CreatedAt time.Time `json:"created_at"`

	Video Video `gorm:"foreignKey:VideoID" json:"video,omitzero"`
}
