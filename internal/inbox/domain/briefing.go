package domain

import "time"

// BriefingType distinguishes scheduled briefing flavors.
type BriefingType string

const (
	BriefingDailyMorning BriefingType = "daily_morning"
	BriefingOnDemand     BriefingType = "on_demand"
)

// Briefing is a generated natural-language digest of a user's inbox state.
type Briefing struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index;not null"`

	BriefingDate time.Time    `json:"briefing_date" gorm:"index;not null"`
	BriefingType BriefingType `json:"briefing_type" gorm:"default:daily_morning"`
	Content      string       `json:"content" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}
