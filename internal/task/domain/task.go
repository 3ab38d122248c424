package domain

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskPriority is the user-facing priority level of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is a to-do created by the user, optionally linked to the inbox item
// or deadline it came from.
type Task struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index;not null"`

	ItemID     string `json:"item_id,omitempty" gorm:"index"`
	DeadlineID string `json:"deadline_id,omitempty" gorm:"index"`

	Title       string `json:"title" gorm:"size:500;not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`

	Status   TaskStatus   `json:"status" gorm:"index;default:todo"`
	Priority TaskPriority `json:"priority" gorm:"default:medium"`

	DueAt       *time.Time `json:"due_at,omitempty" gorm:"index"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Position orders tasks within a user's board; new tasks append.
	Position int `json:"position" gorm:"default:0"`

	AIGenerated bool `json:"ai_generated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the task still needs attention.
func (t *Task) IsOpen() bool {
	return t.Status == TaskTodo || t.Status == TaskInProgress
}

// ParseStatus normalizes a status string, defaulting to todo.
func ParseStatus(s string) TaskStatus {
	switch TaskStatus(s) {
	case TaskInProgress, TaskDone, TaskCancelled:
		return TaskStatus(s)
	default:
		return TaskTodo
	}
}

// ParsePriority normalizes a priority string, defaulting to medium.
func ParsePriority(s string) TaskPriority {
	switch TaskPriority(s) {
	case PriorityLow, PriorityHigh, PriorityUrgent:
		return TaskPriority(s)
	default:
		return PriorityMedium
	}
}
