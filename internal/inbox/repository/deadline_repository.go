package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/inbox/domain"
)

type DeadlineRepository interface {
	Create(deadline *domain.Deadline) error
	FindByID(userID, id string) (*domain.Deadline, error)
	ListByUser(userID string, statuses []domain.DeadlineStatus, limit int) ([]*domain.Deadline, error)
	ListPendingBefore(userID string, before time.Time) ([]*domain.Deadline, error)
	SetStatus(userID, id string, status domain.DeadlineStatus) error
	MarkOverdue(now time.Time) (int64, error)
}

type deadlineRepository struct {
	db *gorm.DB
}

func NewDeadlineRepository(db *gorm.DB) DeadlineRepository {
	return &deadlineRepository{db: db}
}

func (r *deadlineRepository) Create(deadline *domain.Deadline) error {
	if deadline.ID == "" {
		deadline.ID = uuid.New().String()
	}
	return r.db.Create(deadline).Error
}

func (r *deadlineRepository) FindByID(userID, id string) (*domain.Deadline, error) {
	var deadline domain.Deadline
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&deadline).Error; err != nil {
		return nil, err
	}
	return &deadline, nil
}

func (r *deadlineRepository) ListByUser(userID string, statuses []domain.DeadlineStatus, limit int) ([]*domain.Deadline, error) {
	query := r.db.Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var deadlines []*domain.Deadline
	if err := query.Order("due_at ASC").Limit(limit).Find(&deadlines).Error; err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *deadlineRepository) ListPendingBefore(userID string, before time.Time) ([]*domain.Deadline, error) {
	var deadlines []*domain.Deadline
	err := r.db.
		Where("user_id = ? AND status IN ? AND due_at < ?",
			userID, []domain.DeadlineStatus{domain.DeadlinePending, domain.DeadlineOverdue}, before).
		Order("due_at ASC").
		Find(&deadlines).Error
	if err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *deadlineRepository) SetStatus(userID, id string, status domain.DeadlineStatus) error {
	updates := map[string]any{"status": status}
	if status == domain.DeadlineCompleted {
		now := time.Now().UTC()
		updates["completed_at"] = now
	}
	result := r.db.Model(&domain.Deadline{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkOverdue flips every pending deadline whose due time has passed.
// Completed and cancelled deadlines are never touched.
func (r *deadlineRepository) MarkOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&domain.Deadline{}).
		Where("status = ? AND due_at < ?", domain.DeadlinePending, now).
		Update("status", domain.DeadlineOverdue)
	return result.RowsAffected, result.Error
}
