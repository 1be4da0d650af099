package model

import "time"

type ContentRight struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoID      uint   `gorm:"index;not null" json:"video_id"`
	LicenseType  string `json:"license_type"` // "royalty-free", "exclusive", "editorial"
	RightsHolder string `json:"rights_holder"`
	Notes        string `json:"notes"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

const (
	ClaimOpen      = "open"
	ClaimReviewing = "reviewing"
	ClaimUpheld    = "upheld"
	ClaimRejected  = "rejected"
)

type CopyrightClaim struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoID       uint   `gorm:"index;not null" json:"video_id"`
	ClaimantEmail string `gorm:"not null" json:"claimant_email"`
	Description   string `json:"description"`
	Status        string `gorm:"default:open;index" json:"status"`
	ResolvedBy    string `json:"resolved_by,omitempty"` // Admin user ID
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ContentAnalysisResult holds the output of the automatic tagger and
// moderation scan for a video. One row per video, re-running the
// analyzer replaces it
type ContentAnalysisResult struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoID       uint        `gorm:"uniqueIndex;not null" json:"video_id"`
	SuggestedTags StringSlice `json:"suggested_tags"`
	Flags         StringSlice `json:"flags"`
	Score         float64     `json:"score"`
	AnalyzedAt    time.Time   `json:"analyzed_at"`
}
