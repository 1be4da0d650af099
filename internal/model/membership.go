package model

// Membership is a billing tier row. Tiers define the monthly download
// quota and the cap on videos per bulk archive
type Membership struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string `gorm:"unique;not null" json:"name"`
	Description      string `json:"description"`
	PriceCents       int    `json:"price_cents"`
	MonthlyDownloads int    `json:"monthly_downloads"`
	BulkLimit        int    `json:"bulk_limit"`
	StreamHours      int    `json:"stream_hours"`
}
