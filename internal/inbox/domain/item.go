package domain

import (
	"time"
	"unicode/utf8"

	conndomain "flowstate-backend/internal/connection/domain"
)

// ItemType is the subtype of an inbox item within its platform.
type ItemType string

const (
	ItemMessage       ItemType = "message"
	ItemDirectMessage ItemType = "direct_message"
	ItemEvent         ItemType = "event"
	ItemEventInvite   ItemType = "event_invite"
)

// ActionType is the AI-classified action required from the recipient.
type ActionType string

const (
	ActionReplyNeeded    ActionType = "reply_needed"
	ActionReviewNeeded   ActionType = "review_needed"
	ActionMeetingRequest ActionType = "meeting_request"
	ActionTaskAssigned   ActionType = "task_assigned"
	ActionFYIOnly        ActionType = "fyi_only"
	ActionNone           ActionType = "none"
)

// Category is the AI-classified category of an item.
type Category string

const (
	CategoryWork        Category = "work"
	CategoryPersonal    Category = "personal"
	CategorySchool      Category = "school"
	CategoryPromotional Category = "promotional"
	CategorySocial      Category = "social"
	CategoryFinance     Category = "finance"
	CategoryOther       Category = "other"
)

// Content caps applied by the platform clients during normalization.
const (
	MaxBodyLen    = 10000
	MaxSubjectLen = 500
	MaxSnippetLen = 500
	MaxSenderLen  = 255
)

// Item is a normalized unit of inbox content from any platform.
// (user_id, external_id) is unique and is the sole deduplication key.
type Item struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index:idx_user_external,unique;not null"`

	Platform   conndomain.Platform `json:"platform" gorm:"index;not null"`
	ItemType   ItemType            `json:"item_type" gorm:"not null"`
	ExternalID string              `json:"external_id" gorm:"index:idx_user_external,unique;size:255;not null"`
	ThreadID   string              `json:"thread_id,omitempty" gorm:"size:255;index"`

	Subject string `json:"subject,omitempty" gorm:"size:500"`
	Body    string `json:"body,omitempty" gorm:"type:text"`
	Snippet string `json:"snippet,omitempty" gorm:"size:500"`

	SenderName  string `json:"sender_name,omitempty" gorm:"size:255"`
	SenderEmail string `json:"sender_email,omitempty" gorm:"size:255"`
	SenderID    string `json:"sender_id,omitempty" gorm:"size:255"`

	RecipientsTo string `json:"recipients_to,omitempty" gorm:"type:text"`
	RecipientsCc string `json:"recipients_cc,omitempty" gorm:"type:text"`

	// Chat-specific
	ChannelID   string `json:"channel_id,omitempty" gorm:"size:255"`
	ChannelName string `json:"channel_name,omitempty" gorm:"size:255"`

	// Calendar-specific
	EventStart    *time.Time `json:"event_start,omitempty"`
	EventEnd      *time.Time `json:"event_end,omitempty"`
	EventLocation string     `json:"event_location,omitempty" gorm:"size:500"`

	// AI enrichment. All fields are written together when the pipeline runs;
	// EnrichedAt is null until then.
	Summary        string     `json:"summary,omitempty" gorm:"type:text"`
	ActionRequired bool       `json:"action_required"`
	ActionType     ActionType `json:"action_type" gorm:"default:none"`
	PriorityScore  int        `json:"priority_score" gorm:"default:50"`
	Category       Category   `json:"category" gorm:"default:other"`
	Sentiment      string     `json:"sentiment,omitempty" gorm:"size:50"`
	Confidence     *float64   `json:"confidence,omitempty"`
	EnrichedAt     *time.Time `json:"enriched_at,omitempty"`

	IsRead       bool       `json:"is_read" gorm:"index"`
	IsArchived   bool       `json:"is_archived" gorm:"index"`
	IsStarred    bool       `json:"is_starred"`
	IsSnoozed    bool       `json:"is_snoozed"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`

	ReceivedAt time.Time `json:"received_at" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Truncate clips s to at most max bytes without splitting a UTF-8 rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
