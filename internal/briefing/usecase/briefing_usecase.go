package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	authrepo "flowstate-backend/internal/auth/repository"
	"flowstate-backend/internal/inbox/domain"
	"flowstate-backend/internal/inbox/repository"
	taskdomain "flowstate-backend/internal/task/domain"
	taskrepo "flowstate-backend/internal/task/repository"
	"flowstate-backend/pkg/ai"
)

const briefingSystem = `You are a personal productivity assistant creating a morning briefing. The briefing should be:
1. Concise but comprehensive
2. Prioritized by importance
3. Actionable with clear next steps

Format the briefing in markdown with these sections:
## Today's Focus
(1-2 most important items requiring attention)

## Upcoming Deadlines
(Deadlines due today or this week)

## Inbox Highlights
(Key messages requiring action, grouped by priority)

## Today's Events
(Calendar events for today)

## Suggested Actions
(2-3 concrete actions to take today)

Keep each section brief. Use bullet points. Be direct and helpful.`

type BriefingUsecase interface {
	GenerateDaily(ctx context.Context, userID string, date time.Time) (*domain.Briefing, error)
	GenerateOnDemand(ctx context.Context, userID string) (*domain.Briefing, error)
	SweepDaily(ctx context.Context, date time.Time)
	Latest(userID string) (*domain.Briefing, error)
	List(userID string, limit int) ([]*domain.Briefing, error)
}

type briefingUsecase struct {
	briefingRepo repository.BriefingRepository
	itemRepo     repository.ItemRepository
	deadlineRepo repository.DeadlineRepository
	taskRepo     taskrepo.TaskRepository
	userRepo     authrepo.UserRepository
	completer    ai.Completer
}

func NewBriefingUsecase(
	briefingRepo repository.BriefingRepository,
	itemRepo repository.ItemRepository,
	deadlineRepo repository.DeadlineRepository,
	taskRepo taskrepo.TaskRepository,
	userRepo authrepo.UserRepository,
	completer ai.Completer,
) BriefingUsecase {
	return &briefingUsecase{
		briefingRepo: briefingRepo,
		itemRepo:     itemRepo,
		deadlineRepo: deadlineRepo,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		completer:    completer,
	}
}

// GenerateDaily creates the morning briefing for one user and day. A
// briefing already generated for that day is returned as-is.
func (u *briefingUsecase) GenerateDaily(ctx context.Context, userID string, date time.Time) (*domain.Briefing, error) {
	existing, err := u.briefingRepo.FindForDate(userID, domain.BriefingDailyMorning, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return u.generate(ctx, userID, domain.BriefingDailyMorning, date)
}

func (u *briefingUsecase) GenerateOnDemand(ctx context.Context, userID string) (*domain.Briefing, error) {
	return u.generate(ctx, userID, domain.BriefingOnDemand, time.Now().UTC())
}

func (u *briefingUsecase) generate(ctx context.Context, userID string, briefingType domain.BriefingType, date time.Time) (*domain.Briefing, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	unread, err := u.itemRepo.TopUnread(userID, dayStart.AddDate(0, 0, -7), 10)
	if err != nil {
		return nil, err
	}
	deadlines, err := u.deadlineRepo.ListByUser(userID,
		[]domain.DeadlineStatus{domain.DeadlinePending, domain.DeadlineOverdue}, 5)
	if err != nil {
		return nil, err
	}
	events, err := u.itemRepo.EventsBetween(userID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	tasks, err := u.taskRepo.ListOpen(userID, 5)
	if err != nil {
		return nil, err
	}

	user := buildBriefingData(date, unread, deadlines, events, tasks)
	content, err := u.completer.Complete(ctx, briefingSystem, user)
	if err != nil {
		return nil, fmt.Errorf("generate briefing: %w", err)
	}

	briefing := &domain.Briefing{
		UserID:       userID,
		BriefingDate: dayStart,
		BriefingType: briefingType,
		Content:      content,
	}
	if err := u.briefingRepo.Create(briefing); err != nil {
		return nil, err
	}
	return briefing, nil
}

func buildBriefingData(date time.Time, unread []*domain.Item, deadlines []*domain.Deadline, events []*domain.Item, tasks []*taskdomain.Task) string {
	var unreadLines strings.Builder
	for _, item := range unread {
		label := "low"
		switch {
		case item.PriorityScore >= 70:
			label = "high"
		case item.PriorityScore >= 50:
			label = "medium"
		}
		preview := item.Summary
		if preview == "" {
			preview = item.Snippet
		}
		if preview == "" {
			preview = item.Subject
		}
		preview = domain.Truncate(preview, 100)
		sender := item.SenderName
		if sender == "" {
			sender = item.SenderEmail
		}
		fmt.Fprintf(&unreadLines, "- [%s priority] [%s] %s: %s\n", label, item.Platform, sender, preview)
	}

	var deadlineLines strings.Builder
	for _, deadline := range deadlines {
		daysUntil := int(deadline.DueAt.Sub(date).Hours() / 24)
		urgency := fmt.Sprintf("in %dd", daysUntil)
		if daysUntil <= 0 {
			urgency = "TODAY"
		}
		fmt.Fprintf(&deadlineLines, "- [%s] %s (due %s)\n", urgency, deadline.Title, deadline.DueAt.Format("Jan 02"))
	}

	var eventLines strings.Builder
	for _, event := range events {
		timeStr := "All day"
		if event.EventStart != nil {
			timeStr = event.EventStart.Format("15:04")
		}
		fmt.Fprintf(&eventLines, "- %s %s\n", timeStr, event.Subject)
	}

	var taskLines strings.Builder
	for _, task := range tasks {
		marker := "todo"
		if task.Status == taskdomain.TaskInProgress {
			marker = "in progress"
		}
		dueStr := ""
		if task.DueAt != nil {
			dueStr = fmt.Sprintf(" (due %s)", task.DueAt.Format("Jan 02"))
		}
		fmt.Fprintf(&taskLines, "- [%s] %s%s\n", marker, task.Title, dueStr)
	}

	return fmt.Sprintf(`Create a morning briefing based on this data:

Date: %s

UNREAD MESSAGES (%d):
%s

UPCOMING DEADLINES (%d):
%s

TODAY'S EVENTS (%d):
%s

PENDING TASKS (%d):
%s`,
		date.Format("Monday, January 02, 2006"),
		len(unread), orDefault(unreadLines.String(), "No unread messages"),
		len(deadlines), orDefault(deadlineLines.String(), "No upcoming deadlines"),
		len(events), orDefault(eventLines.String(), "No events scheduled"),
		len(tasks), orDefault(taskLines.String(), "No pending tasks"))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// SweepDaily generates the morning briefing for every user. Failures are
// logged per user and never stop the sweep.
func (u *briefingUsecase) SweepDaily(ctx context.Context, date time.Time) {
	userIDs, err := u.userRepo.ListIDs()
	if err != nil {
		log.Printf("[Briefing] Failed to list users: %v", err)
		return
	}
	for _, userID := range userIDs {
		if _, err := u.GenerateDaily(ctx, userID, date); err != nil {
			log.Printf("[Briefing] User %s: %v", userID, err)
		}
	}
}

func (u *briefingUsecase) Latest(userID string) (*domain.Briefing, error) {
	return u.briefingRepo.Latest(userID)
}

func (u *briefingUsecase) List(userID string, limit int) ([]*domain.Briefing, error) {
	return u.briefingRepo.ListByUser(userID, limit)
}
