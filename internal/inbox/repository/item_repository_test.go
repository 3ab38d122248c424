package repository

import (
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
)

func setupItemTest(t *testing.T) (*gorm.DB, ItemRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Item{}, &domain.Deadline{}))
	return db, NewItemRepository(db)
}

func newItem(userID string, receivedAt time.Time) *domain.Item {
	return &domain.Item{
		ID:         uuid.New().String(),
		UserID:     userID,
		Platform:   conndomain.PlatformMail,
		ItemType:   domain.ItemMessage,
		ExternalID: uuid.New().String(),
		ReceivedAt: receivedAt,
	}
}

func TestListUnenrichedNewestFirst(t *testing.T) {
	_, repo := setupItemTest(t)
	now := time.Now().UTC()

	older := newItem("u1", now.Add(-2*time.Hour))
	newer := newItem("u1", now)
	enriched := newItem("u1", now.Add(time.Hour))
	enriched.EnrichedAt = &now

	for _, item := range []*domain.Item{older, newer, enriched} {
		require.NoError(t, repo.Create(item))
	}

	items, err := repo.ListUnenriched(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)

	// The limit caps the batch.
	items, err = repo.ListUnenriched(1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestClaimForEnrichmentIsExclusive(t *testing.T) {
	_, repo := setupItemTest(t)

	item := newItem("u1", time.Now().UTC())
	require.NoError(t, repo.Create(item))

	claimed, err := repo.ClaimForEnrichment(item.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimForEnrichment(item.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestListFilters(t *testing.T) {
	_, repo := setupItemTest(t)
	now := time.Now().UTC()

	urgent := newItem("u1", now)
	urgent.PriorityScore = 90
	urgent.ActionRequired = true
	urgent.Category = domain.CategoryWork

	noise := newItem("u1", now)
	noise.PriorityScore = 20
	noise.Category = domain.CategoryPromotional
	noise.IsRead = true

	archived := newItem("u1", now)
	archived.IsArchived = true

	other := newItem("u2", now)

	for _, item := range []*domain.Item{urgent, noise, archived, other} {
		require.NoError(t, repo.Create(item))
	}

	items, err := repo.List("u1", ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Highest priority first.
	assert.Equal(t, urgent.ID, items[0].ID)

	items, err = repo.List("u1", ItemFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, urgent.ID, items[0].ID)

	items, err = repo.List("u1", ItemFilter{Category: string(domain.CategoryPromotional)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, noise.ID, items[0].ID)

	items, err = repo.List("u1", ItemFilter{MinPriority: 50})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, urgent.ID, items[0].ID)
}
