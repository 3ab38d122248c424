package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	conndomain "flowstate-backend/internal/connection/domain"
	inboxdomain "flowstate-backend/internal/inbox/domain"
)

type SyncRepository interface {
	CommitPass(cursor *conndomain.SyncCursor, items []*inboxdomain.Item) (int, error)
}

type syncRepository struct {
	db *gorm.DB
}

func NewSyncRepository(db *gorm.DB) SyncRepository {
	return &syncRepository{db: db}
}

// CommitPass stores a sync pass atomically: the fetched items, the advanced
// cursor, and its lifetime items counter land in one transaction, so a crash
// can never persist a cursor ahead of its items or undercount them. Items
// already present for the user (same external id) are skipped; the returned
// count covers inserts only.
func (r *syncRepository) CommitPass(cursor *conndomain.SyncCursor, items []*inboxdomain.Item) (int, error) {
	inserted := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(item)
			if result.Error != nil {
				return result.Error
			}
			inserted += int(result.RowsAffected)
		}
		cursor.ItemsSynced += inserted
		return tx.Save(cursor).Error
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
