package model

import "time"

const (
	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignSending   = "sending"
	CampaignSent      = "sent"
	CampaignCancelled = "cancelled"
)

// Valid audience segments a campaign can target
const (
	SegmentAll     = "all"
	SegmentMembers = "members"
	SegmentLapsed  = "lapsed"
	SegmentAdmins  = "admins"
)

type EmailCampaign struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Subject     string `gorm:"not null" json:"subject"`
	Body        string `json:"body"` // HTML
	Segment     string `gorm:"default:all" json:"segment"`
	Status      string `gorm:"default:draft;index" json:"status"`
	RatePerHour int    `json:"rate_per_hour"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	SentCount   int        `json:"sent_count"`
	FailedCount int        `json:"failed_count"`
	CreatedAt   time.Time  `json:"created_at"`

	Sends []EmailSend `gorm:"foreignKey:CampaignID" json:"-"`
}

type EmailSubscriber struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string `gorm:"unique;not null" json:"email"`
	IsSubscribed   bool   `gorm:"default:true" json:"is_subscribed"`
	Source         string `json:"source"` // "signup", "form", "import"
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

const (
	SendSent   = "sent"
	SendFailed = "failed"
)

type EmailSend struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID uint   `gorm:"index;not null" json:"campaign_id"`
	Email      string `gorm:"not null" json:"email"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}
