package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	conndomain "flowstate-backend/internal/connection/domain"
	"flowstate-backend/internal/inbox/domain"
	"flowstate-backend/internal/inbox/repository"
)

// scriptedCompleter returns canned responses in call order.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (c *scriptedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func setupEnrichmentTest(t *testing.T) (*gorm.DB, repository.ItemRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Item{}, &domain.Deadline{}))
	return db, repository.NewItemRepository(db)
}

func seedItem(t *testing.T, repo repository.ItemRepository) *domain.Item {
	t.Helper()
	item := &domain.Item{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		Platform:    conndomain.PlatformMail,
		ItemType:    domain.ItemMessage,
		ExternalID:  uuid.New().String(),
		Subject:     "Budget review",
		Body:        "Please review the budget by Friday.",
		SenderName:  "Alice",
		SenderEmail: "alice@example.com",
		ReceivedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(item))
	return item
}

func TestEnrichFullPipeline(t *testing.T) {
	db, repo := setupEnrichmentTest(t)
	completer := &scriptedCompleter{responses: []string{
		"Alice wants the budget reviewed by Friday.",
		`{"deadlines": [{"title": "Review budget", "due_at": "2026-09-04T17:00:00", "confidence": 0.9}]}`,
		"review_needed",
		"78",
		"work",
	}}
	uc := NewEnrichmentUsecase(repo, completer)

	item := seedItem(t, repo)
	require.NoError(t, uc.Enrich(context.Background(), item))
	assert.Equal(t, 5, completer.calls)

	var stored domain.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, "Alice wants the budget reviewed by Friday.", stored.Summary)
	assert.True(t, stored.ActionRequired)
	assert.Equal(t, domain.ActionReviewNeeded, stored.ActionType)
	assert.Equal(t, 78, stored.PriorityScore)
	assert.Equal(t, domain.CategoryWork, stored.Category)
	require.NotNil(t, stored.Confidence)
	assert.Equal(t, 0.85, *stored.Confidence)
	assert.NotNil(t, stored.EnrichedAt)

	var deadlines []domain.Deadline
	require.NoError(t, db.Find(&deadlines, "item_id = ?", item.ID).Error)
	require.Len(t, deadlines, 1)
	assert.Equal(t, "Review budget", deadlines[0].Title)
	assert.Equal(t, "user-1", deadlines[0].UserID)
}

func TestEnrichStepFailureKeepsPartialResults(t *testing.T) {
	db, repo := setupEnrichmentTest(t)
	completer := &scriptedCompleter{
		responses: []string{"A summary that did get generated.", ""},
		errs:      []error{nil, errors.New("model unavailable")},
	}
	uc := NewEnrichmentUsecase(repo, completer)

	item := seedItem(t, repo)
	require.NoError(t, uc.Enrich(context.Background(), item))

	var stored domain.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)

	// The summary from the step that succeeded survives; everything after
	// the failure holds defaults, and confidence records the failure.
	assert.Equal(t, "A summary that did get generated.", stored.Summary)
	assert.False(t, stored.ActionRequired)
	assert.Equal(t, domain.ActionNone, stored.ActionType)
	assert.Equal(t, 50, stored.PriorityScore)
	assert.Equal(t, domain.CategoryOther, stored.Category)
	require.NotNil(t, stored.Confidence)
	assert.Equal(t, 0.0, *stored.Confidence)
	assert.NotNil(t, stored.EnrichedAt)

	var count int64
	require.NoError(t, db.Model(&domain.Deadline{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnrichMalformedDeadlineJSONContinues(t *testing.T) {
	db, repo := setupEnrichmentTest(t)
	completer := &scriptedCompleter{responses: []string{
		"Summary.",
		"I found no structured deadlines in this message.",
		"fyi_only",
		"30",
		"personal",
	}}
	uc := NewEnrichmentUsecase(repo, completer)

	item := seedItem(t, repo)
	require.NoError(t, uc.Enrich(context.Background(), item))
	assert.Equal(t, 5, completer.calls)

	var stored domain.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, 30, stored.PriorityScore)
	require.NotNil(t, stored.Confidence)
	assert.Equal(t, 0.85, *stored.Confidence)

	var count int64
	require.NoError(t, db.Model(&domain.Deadline{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnrichIsIdempotent(t *testing.T) {
	_, repo := setupEnrichmentTest(t)
	completer := &scriptedCompleter{responses: []string{
		"Summary.", `{"deadlines": []}`, "none", "50", "other",
	}}
	uc := NewEnrichmentUsecase(repo, completer)

	item := seedItem(t, repo)
	require.NoError(t, uc.Enrich(context.Background(), item))
	require.NoError(t, uc.Enrich(context.Background(), item))
	assert.Equal(t, 5, completer.calls)

	// A fresh load of the same row is also a no-op: the claim is in the
	// database, not the struct.
	fresh, err := repo.FindByID("user-1", item.ID)
	require.NoError(t, err)
	require.NoError(t, uc.Enrich(context.Background(), fresh))
	assert.Equal(t, 5, completer.calls)
}

func TestEnrichBacklogContinuesPastFailures(t *testing.T) {
	_, repo := setupEnrichmentTest(t)
	// First item fails at the summarize step, second succeeds fully.
	completer := &scriptedCompleter{
		responses: []string{"", "Summary.", `{"deadlines": []}`, "none", "50", "other"},
		errs:      []error{errors.New("model unavailable")},
	}
	uc := NewEnrichmentUsecase(repo, completer)

	seedItem(t, repo)
	seedItem(t, repo)

	result, err := uc.EnrichBacklog(context.Background(), 10)
	require.NoError(t, err)

	// Both items end up processed: a step failure still persists the item
	// with zero confidence, but it is reported as a failure, not a success.
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	remaining, err := repo.ListUnenriched(10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
