package dto

import "time"

type ListItemsQuery struct {
	Platform    string `form:"platform"`
	Category    string `form:"category"`
	ActionType  string `form:"action_type"`
	UnreadOnly  bool   `form:"unread_only"`
	ActionOnly  bool   `form:"action_only"`
	MinPriority int    `form:"min_priority"`
	Archived    bool   `form:"archived"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

type UpdateItemRequest struct {
	IsRead       *bool      `json:"is_read"`
	IsArchived   *bool      `json:"is_archived"`
	IsStarred    *bool      `json:"is_starred"`
	SnoozedUntil *time.Time `json:"snoozed_until"`
}

type CreateDeadlineRequest struct {
	Title  string    `json:"title" binding:"required"`
	DueAt  time.Time `json:"due_at" binding:"required"`
	ItemID string    `json:"item_id"`
}
