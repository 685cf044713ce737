package database

import "time"

// Setting is one durable key/value pair. Per-client keys carry a
// "client:<id>:" prefix.
type Setting struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Key       string    `gorm:"size:191;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity categories.
const (
	CategoryLanguage = "language"
	CategoryTheme    = "theme"
	CategoryFeedback = "feedback"
	CategoryDetect   = "detect"
)

// Activity is an audit row for a client action.
type Activity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ClientID  string    `gorm:"size:64;index" json:"client_id"`
	Category  string    `gorm:"size:32;index" json:"category"`
	Language  string    `gorm:"size:8;index" json:"language"`
	Source    string    `gorm:"size:32" json:"source"`
	Summary   string    `gorm:"size:255" json:"summary"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
