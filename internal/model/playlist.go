package model

import "time"

type Playlist struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string `gorm:"index;not null" json:"-"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Public      bool   `gorm:"default:false" json:"public"`
	CreatedAt   time.Time `json:"created_at"`

	// Items go away together with the playlist
	Items []PlaylistItem `gorm:"foreignKey:PlaylistID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type PlaylistItem struct {
	ID         uint `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID uint `gorm:"index;not null;uniqueIndex:uq_playlist_video" json:"-"`
	VideoID    uint `gorm:"not null;uniqueIndex:uq_playlist_video" json:"video_id"`
	Position   int  `json:"position"`

	Video Video `gorm:"foreignKey:VideoID" json:"video,omitzero"`
}
