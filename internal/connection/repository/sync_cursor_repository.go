package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/connection/domain"
)

type SyncCursorRepository interface {
	FindOrCreate(connectionID string) (*domain.SyncCursor, error)
	Update(cursor *domain.SyncCursor) error
	DeleteByConnection(connectionID string) error
}

type syncCursorRepository struct {
	db *gorm.DB
}

func NewSyncCursorRepository(db *gorm.DB) SyncCursorRepository {
	return &syncCursorRepository{db: db}
}

func (r *syncCursorRepository) FindOrCreate(connectionID string) (*domain.SyncCursor, error) {
	var cursor domain.SyncCursor
	err := r.db.
		Where(domain.SyncCursor{ConnectionID: connectionID}).
		Attrs(domain.SyncCursor{ID: uuid.New().String()}).
		FirstOrCreate(&cursor).Error
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *syncCursorRepository) Update(cursor *domain.SyncCursor) error {
	return r.db.Save(cursor).Error
}

func (r *syncCursorRepository) DeleteByConnection(connectionID string) error {
	return r.db.Where("connection_id = ?", connectionID).Delete(&domain.SyncCursor{}).Error
}
