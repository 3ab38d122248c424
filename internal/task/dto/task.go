package dto

import "time"

type ListTasksQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"due_at"`
	ItemID      string     `json:"item_id"`
	DeadlineID  string     `json:"deadline_id"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueAt       *time.Time `json:"due_at"`
	Position    *int       `json:"position"`
}
