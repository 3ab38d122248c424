package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/inbox/domain"
)

type BriefingRepository interface {
	Create(briefing *domain.Briefing) error
	Latest(userID string) (*domain.Briefing, error)
	FindForDate(userID string, briefingType domain.BriefingType, date time.Time) (*domain.Briefing, error)
	ListByUser(userID string, limit int) ([]*domain.Briefing, error)
}

type briefingRepository struct {
	db *gorm.DB
}

func NewBriefingRepository(db *gorm.DB) BriefingRepository {
	return &briefingRepository{db: db}
}

func (r *briefingRepository) Create(briefing *domain.Briefing) error {
	if briefing.ID == "" {
		briefing.ID = uuid.New().String()
	}
	return r.db.Create(briefing).Error
}

func (r *briefingRepository) Latest(userID string) (*domain.Briefing, error) {
	var briefing domain.Briefing
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&briefing).Error
	if err != nil {
		return nil, err
	}
	return &briefing, nil
}

// FindForDate looks up the briefing of a given type for a calendar day,
// used to keep the morning sweep from generating twice.
func (r *briefingRepository) FindForDate(userID string, briefingType domain.BriefingType, date time.Time) (*domain.Briefing, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var briefing domain.Briefing
	err := r.db.
		Where("user_id = ? AND briefing_type = ? AND briefing_date >= ? AND briefing_date < ?",
			userID, briefingType, dayStart, dayEnd).
		First(&briefing).Error
	if err != nil {
		return nil, err
	}
	return &briefing, nil
}

func (r *briefingRepository) ListByUser(userID string, limit int) ([]*domain.Briefing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var briefings []*domain.Briefing
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&briefings).Error
	if err != nil {
		return nil, err
	}
	return briefings, nil
}
