// Package model defines database models
package model

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:member" json:"role"`
	Verified     bool   `gorm:"default:false" json:"verified"`
	ExpiresAt    *time.Time `json:"-"`

	MembershipID uint `json:"membership_id"`

	// Remaining downloads for the current billing period. Reset to the
	// membership allowance when BillingRenewsAt passes
	DownloadsRemaining int       `json:"downloads_remaining"`
	BillingRenewsAt    time.Time `json:"billing_renews_at"`
	CreatedAt          time.Time `json:"created_at"`

	Membership         Membership          `gorm:"foreignKey:MembershipID" json:"membership,omitzero"`
	VerificationTokens []VerificationToken `gorm:"foreignKey:UserID" json:"-"`
	Downloads          []Download          `gorm:"foreignKey:UserID" json:"-"`
	Favorites          []Favorite          `gorm:"foreignKey:UserID" json:"-"`
	Playlists          []Playlist          `gorm:"foreignKey:UserID" json:"-"`
}
