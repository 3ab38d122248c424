package usecase

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"flowstate-backend/internal/inbox/domain"
)

var actionTypes = map[string]domain.ActionType{
	"reply_needed":    domain.ActionReplyNeeded,
	"review_needed":   domain.ActionReviewNeeded,
	"meeting_request": domain.ActionMeetingRequest,
	"task_assigned":   domain.ActionTaskAssigned,
	"fyi_only":        domain.ActionFYIOnly,
	"none":            domain.ActionNone,
}

var categories = map[string]domain.Category{
	"work":        domain.CategoryWork,
	"personal":    domain.CategoryPersonal,
	"school":      domain.CategorySchool,
	"promotional": domain.CategoryPromotional,
	"social":      domain.CategorySocial,
	"finance":     domain.CategoryFinance,
	"other":       domain.CategoryOther,
}

// parseAction maps a model response to an action type. Unrecognized
// output classifies as "none"; only actionable types set the flag.
func parseAction(raw string) (bool, domain.ActionType) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	actionType, ok := actionTypes[normalized]
	if !ok {
		actionType = domain.ActionNone
	}
	actionRequired := actionType != domain.ActionFYIOnly && actionType != domain.ActionNone
	return actionRequired, actionType
}

// parseScore parses a priority score, falling back to the 50 midpoint on
// garbage and clamping everything to [1, 100].
func parseScore(raw string) int {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 50
	}
	if score < 1 {
		return 1
	}
	if score > 100 {
		return 100
	}
	return score
}

func parseCategory(raw string) domain.Category {
	if category, ok := categories[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return category
	}
	return domain.CategoryOther
}

type deadlinePayload struct {
	Deadlines []struct {
		Title      string   `json:"title"`
		DueAt      string   `json:"due_at"`
		SourceText string   `json:"source_text"`
		Confidence *float64 `json:"confidence"`
	} `json:"deadlines"`
}

// parseDeadlines decodes the extractor's JSON response. Malformed JSON or
// individual bad entries yield no deadlines rather than an error; one
// garbled extraction should not sink the rest of the pipeline.
func parseDeadlines(raw string) []*domain.Deadline {
	var payload deadlinePayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil
	}

	var deadlines []*domain.Deadline
	for _, entry := range payload.Deadlines {
		if entry.Title == "" {
			continue
		}
		dueAt, err := parseISOTime(entry.DueAt)
		if err != nil {
			continue
		}
		confidence := 0.8
		if entry.Confidence != nil {
			confidence = *entry.Confidence
		}
		deadlines = append(deadlines, &domain.Deadline{
			Title:      domain.Truncate(entry.Title, domain.MaxSubjectLen),
			DueAt:      dueAt,
			SourceText: entry.SourceText,
			Confidence: confidence,
			Status:     domain.DeadlinePending,
		})
	}
	return deadlines
}

// stripCodeFence unwraps a markdown code fence some models insist on
// putting around JSON.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
	} else {
		return s
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func parseISOTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Parse(time.RFC3339, raw)
}
