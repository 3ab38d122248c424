package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/task/domain"
)

// priorityRank orders urgent before high before medium before low in SQL,
// where the enum's string order would be wrong.
const priorityRank = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"

// TaskFilter narrows List. Zero values mean no filter.
type TaskFilter struct {
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	DueFrom  *time.Time
	DueTo    *time.Time
	Limit    int
	Offset   int
}

type TaskRepository interface {
	Create(task *domain.Task) error
	FindByID(userID, id string) (*domain.Task, error)
	List(userID string, filter TaskFilter) ([]*domain.Task, error)
	ListOpen(userID string, limit int) ([]*domain.Task, error)
	Update(task *domain.Task) error
	Delete(userID, id string) error
	CountByStatus(userID string) (map[domain.TaskStatus]int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create appends the task at the end of the user's board.
func (r *taskRepository) Create(task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	var maxPosition *int
	err := r.db.Model(&domain.Task{}).
		Where("user_id = ?", task.UserID).
		Select("MAX(position)").
		Scan(&maxPosition).Error
	if err != nil {
		return err
	}
	if maxPosition != nil {
		task.Position = *maxPosition + 1
	} else {
		task.Position = 1
	}
	return r.db.Create(task).Error
}

func (r *taskRepository) FindByID(userID, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(userID string, filter TaskFilter) ([]*domain.Task, error) {
	query := r.db.Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_at >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_at <= ?", *filter.DueTo)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var tasks []*domain.Task
	err := query.Order("position ASC, created_at DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListOpen returns todo and in-progress tasks, most urgent first, undated
// tasks last.
func (r *taskRepository) ListOpen(userID string, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 5
	}
	var tasks []*domain.Task
	err := r.db.
		Where("user_id = ? AND status IN ?", userID,
			[]domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress}).
		Order(priorityRank + ", CASE WHEN due_at IS NULL THEN 1 ELSE 0 END, due_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(task *domain.Task) error {
	return r.db.Save(task).Error
}

func (r *taskRepository) Delete(userID, id string) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) CountByStatus(userID string) (map[domain.TaskStatus]int64, error) {
	counts := map[domain.TaskStatus]int64{
		domain.TaskTodo:       0,
		domain.TaskInProgress: 0,
		domain.TaskDone:       0,
		domain.TaskCancelled:  0,
	}

	var rows []struct {
		Status domain.TaskStatus
		Count  int64
	}
	err := r.db.Model(&domain.Task{}).
		Select("status, COUNT(id) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
