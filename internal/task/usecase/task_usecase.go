package usecase

import (
	"time"

	inboxdomain "flowstate-backend/internal/inbox/domain"
	"flowstate-backend/internal/task/domain"
	"flowstate-backend/internal/task/dto"
	"flowstate-backend/internal/task/repository"
)

type TaskUsecase interface {
	ListTasks(userID string, query dto.ListTasksQuery) ([]*domain.Task, error)
	GetTask(userID, taskID string) (*domain.Task, error)
	CreateTask(userID string, req *dto.CreateTaskRequest) (*domain.Task, error)
	UpdateTask(userID, taskID string, req *dto.UpdateTaskRequest) (*domain.Task, error)
	CompleteTask(userID, taskID string) (*domain.Task, error)
	DeleteTask(userID, taskID string) error
	Stats(userID string) (map[domain.TaskStatus]int64, error)
}

type taskUsecase struct {
	taskRepo repository.TaskRepository
}

func NewTaskUsecase(taskRepo repository.TaskRepository) TaskUsecase {
	return &taskUsecase{taskRepo: taskRepo}
}

func (u *taskUsecase) ListTasks(userID string, query dto.ListTasksQuery) ([]*domain.Task, error) {
	filter := repository.TaskFilter{
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Status != "" {
		filter.Status = domain.ParseStatus(query.Status)
	}
	if query.Priority != "" {
		filter.Priority = domain.ParsePriority(query.Priority)
	}
	if t, err := time.Parse(time.RFC3339, query.FromDate); err == nil {
		filter.DueFrom = &t
	}
	if t, err := time.Parse(time.RFC3339, query.ToDate); err == nil {
		filter.DueTo = &t
	}
	return u.taskRepo.List(userID, filter)
}

func (u *taskUsecase) GetTask(userID, taskID string) (*domain.Task, error) {
	return u.taskRepo.FindByID(userID, taskID)
}

func (u *taskUsecase) CreateTask(userID string, req *dto.CreateTaskRequest) (*domain.Task, error) {
	task := &domain.Task{
		UserID:      userID,
		ItemID:      req.ItemID,
		DeadlineID:  req.DeadlineID,
		Title:       inboxdomain.Truncate(req.Title, inboxdomain.MaxSubjectLen),
		Description: req.Description,
		Status:      domain.TaskTodo,
		Priority:    domain.ParsePriority(req.Priority),
		DueAt:       req.DueAt,
	}
	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) UpdateTask(userID, taskID string, req *dto.UpdateTaskRequest) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = inboxdomain.Truncate(*req.Title, inboxdomain.MaxSubjectLen)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = domain.ParsePriority(*req.Priority)
	}
	if req.Status != nil {
		setStatus(task, domain.ParseStatus(*req.Status))
	}
	if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.Position != nil {
		task.Position = *req.Position
	}

	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) CompleteTask(userID, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(userID, taskID)
	if err != nil {
		return nil, err
	}
	setStatus(task, domain.TaskDone)
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) DeleteTask(userID, taskID string) error {
	return u.taskRepo.Delete(userID, taskID)
}

func (u *taskUsecase) Stats(userID string) (map[domain.TaskStatus]int64, error) {
	return u.taskRepo.CountByStatus(userID)
}

// setStatus keeps CompletedAt in step with the status: stamped when the task
// is done, cleared when it moves back.
func setStatus(task *domain.Task, status domain.TaskStatus) {
	task.Status = status
	if status == domain.TaskDone {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
}
