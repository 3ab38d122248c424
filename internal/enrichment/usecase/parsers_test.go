package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowstate-backend/internal/inbox/domain"
)

func TestParseAction(t *testing.T) {
	required, actionType := parseAction("reply_needed")
	assert.True(t, required)
	assert.Equal(t, domain.ActionReplyNeeded, actionType)

	required, actionType = parseAction("  Task Assigned \n")
	assert.True(t, required)
	assert.Equal(t, domain.ActionTaskAssigned, actionType)

	required, actionType = parseAction("fyi_only")
	assert.False(t, required)
	assert.Equal(t, domain.ActionFYIOnly, actionType)

	required, actionType = parseAction("something the model made up")
	assert.False(t, required)
	assert.Equal(t, domain.ActionNone, actionType)
}

func TestParseScore(t *testing.T) {
	assert.Equal(t, 85, parseScore("85"))
	assert.Equal(t, 42, parseScore("  42\n"))
	assert.Equal(t, 100, parseScore("150"))
	assert.Equal(t, 1, parseScore("-5"))
	assert.Equal(t, 50, parseScore("very important"))
	assert.Equal(t, 50, parseScore(""))
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, domain.CategoryFinance, parseCategory("Finance"))
	assert.Equal(t, domain.CategoryWork, parseCategory(" work \n"))
	assert.Equal(t, domain.CategoryOther, parseCategory("miscellaneous"))
}

func TestParseDeadlines(t *testing.T) {
	raw := `{
		"deadlines": [
			{"title": "Submit report", "due_at": "2026-09-05T17:00:00", "source_text": "by Friday 5pm", "confidence": 0.9},
			{"title": "Missing due date"},
			{"title": "Review slides", "due_at": "2026-09-10"}
		]
	}`

	deadlines := parseDeadlines(raw)
	require.Len(t, deadlines, 2)

	assert.Equal(t, "Submit report", deadlines[0].Title)
	assert.Equal(t, time.Date(2026, 9, 5, 17, 0, 0, 0, time.UTC), deadlines[0].DueAt)
	assert.Equal(t, 0.9, deadlines[0].Confidence)
	assert.Equal(t, domain.DeadlinePending, deadlines[0].Status)

	// Confidence defaults when the model omits it.
	assert.Equal(t, "Review slides", deadlines[1].Title)
	assert.Equal(t, 0.8, deadlines[1].Confidence)
}

func TestParseDeadlinesCodeFence(t *testing.T) {
	raw := "Here you go:\n```json\n{\"deadlines\": [{\"title\": \"Pay invoice\", \"due_at\": \"2026-09-01T00:00:00Z\", \"confidence\": 0.7}]}\n```"

	deadlines := parseDeadlines(raw)
	require.Len(t, deadlines, 1)
	assert.Equal(t, "Pay invoice", deadlines[0].Title)
}

func TestParseDeadlinesMalformed(t *testing.T) {
	assert.Empty(t, parseDeadlines("I could not find any deadlines, sorry!"))
	assert.Empty(t, parseDeadlines(`{"deadlines": "oops"}`))
	assert.Empty(t, parseDeadlines(`{"deadlines": []}`))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
