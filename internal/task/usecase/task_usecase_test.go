package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flowstate-backend/internal/task/domain"
	"flowstate-backend/internal/task/dto"
	"flowstate-backend/internal/task/repository"
)

func setupTaskTest(t *testing.T) TaskUsecase {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Task{}))
	return NewTaskUsecase(repository.NewTaskRepository(db))
}

func TestCreateTaskDefaults(t *testing.T) {
	uc := setupTaskTest(t)

	task, err := uc.CreateTask("user-1", &dto.CreateTaskRequest{Title: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTodo, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.NotEmpty(t, task.ID)
	assert.Nil(t, task.DueAt)

	// Unknown priority strings fall back to medium.
	task, err = uc.CreateTask("user-1", &dto.CreateTaskRequest{Title: "x", Priority: "extreme"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, task.Priority)

	task, err = uc.CreateTask("user-1", &dto.CreateTaskRequest{Title: "y", Priority: "urgent"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityUrgent, task.Priority)
}

func TestCompleteTaskStampsCompletedAt(t *testing.T) {
	uc := setupTaskTest(t)

	task, err := uc.CreateTask("user-1", &dto.CreateTaskRequest{Title: "ship it"})
	require.NoError(t, err)

	done, err := uc.CompleteTask("user-1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, done.Status)
	require.NotNil(t, done.CompletedAt)

	// Reopening clears the completion stamp.
	reopened := "in_progress"
	updated, err := uc.UpdateTask("user-1", task.ID, &dto.UpdateTaskRequest{Status: &reopened})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateTaskPatchesOnlyGivenFields(t *testing.T) {
	uc := setupTaskTest(t)
	due := time.Now().UTC().Add(48 * time.Hour)

	task, err := uc.CreateTask("user-1", &dto.CreateTaskRequest{
		Title: "original", Description: "keep me", DueAt: &due,
	})
	require.NoError(t, err)

	newTitle := "renamed"
	updated, err := uc.UpdateTask("user-1", task.ID, &dto.UpdateTaskRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	require.NotNil(t, updated.DueAt)
}

func TestTaskOwnershipEnforced(t *testing.T) {
	uc := setupTaskTest(t)

	task, err := uc.CreateTask("user-1", &dto.CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	_, err = uc.GetTask("user-2", task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = uc.CompleteTask("user-2", task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = uc.DeleteTask("user-2", task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
