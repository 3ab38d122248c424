package usecase

import (
	"time"

	"flowstate-backend/internal/inbox/domain"
	"flowstate-backend/internal/inbox/dto"
	"flowstate-backend/internal/inbox/repository"
)

type InboxUsecase interface {
	ListItems(userID string, query dto.ListItemsQuery) ([]*domain.Item, error)
	GetItem(userID, itemID string) (*domain.Item, error)
	UpdateItem(userID, itemID string, req *dto.UpdateItemRequest) (*domain.Item, error)
	ListDeadlines(userID string, status string, limit int) ([]*domain.Deadline, error)
	CreateDeadline(userID string, req *dto.CreateDeadlineRequest) (*domain.Deadline, error)
	CompleteDeadline(userID, deadlineID string) error
	CancelDeadline(userID, deadlineID string) error
}

type inboxUsecase struct {
	itemRepo     repository.ItemRepository
	deadlineRepo repository.DeadlineRepository
}

func NewInboxUsecase(itemRepo repository.ItemRepository, deadlineRepo repository.DeadlineRepository) InboxUsecase {
	return &inboxUsecase{
		itemRepo:     itemRepo,
		deadlineRepo: deadlineRepo,
	}
}

func (u *inboxUsecase) ListItems(userID string, query dto.ListItemsQuery) ([]*domain.Item, error) {
	return u.itemRepo.List(userID, repository.ItemFilter{
		Platform:        query.Platform,
		Category:        query.Category,
		ActionType:      query.ActionType,
		UnreadOnly:      query.UnreadOnly,
		ActionOnly:      query.ActionOnly,
		MinPriority:     query.MinPriority,
		IncludeArchived: query.Archived,
		Limit:           query.Limit,
		Offset:          query.Offset,
	})
}

func (u *inboxUsecase) GetItem(userID, itemID string) (*domain.Item, error) {
	return u.itemRepo.FindByID(userID, itemID)
}

func (u *inboxUsecase) UpdateItem(userID, itemID string, req *dto.UpdateItemRequest) (*domain.Item, error) {
	item, err := u.itemRepo.FindByID(userID, itemID)
	if err != nil {
		return nil, err
	}

	if req.IsRead != nil {
		item.IsRead = *req.IsRead
	}
	if req.IsArchived != nil {
		item.IsArchived = *req.IsArchived
	}
	if req.IsStarred != nil {
		item.IsStarred = *req.IsStarred
	}
	if req.SnoozedUntil != nil {
		item.IsSnoozed = req.SnoozedUntil.After(time.Now())
		item.SnoozedUntil = req.SnoozedUntil
	}

	if err := u.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (u *inboxUsecase) ListDeadlines(userID string, status string, limit int) ([]*domain.Deadline, error) {
	var statuses []domain.DeadlineStatus
	if status != "" {
		statuses = append(statuses, domain.DeadlineStatus(status))
	}
	return u.deadlineRepo.ListByUser(userID, statuses, limit)
}

func (u *inboxUsecase) CreateDeadline(userID string, req *dto.CreateDeadlineRequest) (*domain.Deadline, error) {
	deadline := &domain.Deadline{
		UserID: userID,
		ItemID: req.ItemID,
		Title:  domain.Truncate(req.Title, domain.MaxSubjectLen),
		DueAt:  req.DueAt,
		Status: domain.DeadlinePending,
	}
	if err := u.deadlineRepo.Create(deadline); err != nil {
		return nil, err
	}
	return deadline, nil
}

func (u *inboxUsecase) CompleteDeadline(userID, deadlineID string) error {
	return u.deadlineRepo.SetStatus(userID, deadlineID, domain.DeadlineCompleted)
}

func (u *inboxUsecase) CancelDeadline(userID, deadlineID string) error {
	return u.deadlineRepo.SetStatus(userID, deadlineID, domain.DeadlineCancelled)
}
