package model

type Video struct {
	ID          uint   `gorm:"primaryKey;autoIncrement;index" json:"id"`
	Title       string `gorm:"not null;index" json:"title"`
	Description string `json:"description"`

	// Media lives in S3 under random keys so titles can repeat
	FileKey    string `json:"-"`
	ThumbKey   string `json:"thumb_key"`
	PreviewKey string `json:"preview_key"` // Watermarked preview, safe to serve without a membership

	CategoryID  uint        `gorm:"index" json:"category_id"`
	Tags        StringSlice `json:"tags"`
	BPM         int         `json:"bpm"`
	Resolution  string      `json:"resolution"`
	Format      string      `json:"format"`
	DurationSec float64     `json:"duration_sec"`
	SizeBytes   int64       `json:"size_bytes"`
	Downloads   int64       `json:"downloads"`
	Published   bool        `gorm:"default:false;index" json:"published"`
	CreatedAt   int64       `gorm:"not null" json:"created_at"` // Unix seconds

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitzero"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	Slug        string `gorm:"unique;not null" json:"slug"`
	Description string `json:"description"`
}
