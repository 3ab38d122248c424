package domain

import "time"

// DeadlineStatus is the lifecycle state of a deadline.
type DeadlineStatus string

const (
	DeadlinePending   DeadlineStatus = "pending"
	DeadlineCompleted DeadlineStatus = "completed"
	DeadlineOverdue   DeadlineStatus = "overdue"
	DeadlineCancelled DeadlineStatus = "cancelled"
)

// Deadline is a due date extracted from an item by the enrichment pipeline,
// or created directly by a user.
type Deadline struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index;not null"`
	ItemID string `json:"item_id,omitempty" gorm:"index"`

	Title      string    `json:"title" gorm:"size:500;not null"`
	DueAt      time.Time `json:"due_at" gorm:"index;not null"`
	SourceText string    `json:"source_text,omitempty" gorm:"type:text"`
	Confidence float64   `json:"confidence" gorm:"default:1"`

	Status      DeadlineStatus `json:"status" gorm:"index;default:pending"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
