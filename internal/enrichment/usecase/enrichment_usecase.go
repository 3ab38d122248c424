package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"flowstate-backend/internal/inbox/domain"
	"flowstate-backend/internal/inbox/repository"
	"flowstate-backend/pkg/ai"
)

// Confidence recorded after a pipeline run. A step failure keeps the
// partial results but records zero confidence.
const (
	successConfidence = 0.85
	failureConfidence = 0.0
)

// BatchResult reports one backlog batch. Succeeded counts items whose full
// pipeline ran; Failed counts items whose steps broke (persisted with zero
// confidence) plus items that could not be saved at all.
type BatchResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type EnrichmentUsecase interface {
	Enrich(ctx context.Context, item *domain.Item) error
	EnrichBacklog(ctx context.Context, batchSize int) (*BatchResult, error)
}

type enrichmentUsecase struct {
	itemRepo  repository.ItemRepository
	completer ai.Completer
	now       func() time.Time
}

func NewEnrichmentUsecase(itemRepo repository.ItemRepository, completer ai.Completer) EnrichmentUsecase {
	return &enrichmentUsecase{
		itemRepo:  itemRepo,
		completer: completer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enrich runs the five-step pipeline on one item:
// summarize, extract deadlines, classify action, score priority,
// categorize. An item is processed at most once: the claim stamps it
// before any model call, so concurrent runs and replays are no-ops.
func (u *enrichmentUsecase) Enrich(ctx context.Context, item *domain.Item) error {
	_, err := u.enrich(ctx, item)
	return err
}

// enrich returns the step error separately from infrastructure errors. A
// step error is already absorbed into the persisted item (zero confidence);
// only the second return value means nothing was stored.
func (u *enrichmentUsecase) enrich(ctx context.Context, item *domain.Item) (error, error) {
	if item.EnrichedAt != nil {
		return nil, nil
	}

	claimed, err := u.itemRepo.ClaimForEnrichment(item.ID)
	if err != nil {
		return nil, fmt.Errorf("claim item %s: %w", item.ID, err)
	}
	if !claimed {
		return nil, nil
	}

	now := u.now()
	item.EnrichedAt = &now

	confidence := successConfidence
	deadlines, stepErr := u.runSteps(ctx, item)
	if stepErr != nil {
		log.Printf("[Enrichment] Item %s: pipeline stopped: %v", item.ID, stepErr)
		confidence = failureConfidence
	}
	item.Confidence = &confidence

	if err := u.itemRepo.SaveEnrichment(item, deadlines); err != nil {
		return stepErr, fmt.Errorf("save enrichment for item %s: %w", item.ID, err)
	}
	return stepErr, nil
}

// runSteps mutates item in order; whatever a failing step leaves behind
// is persisted as-is by the caller.
func (u *enrichmentUsecase) runSteps(ctx context.Context, item *domain.Item) ([]*domain.Deadline, error) {
	item.ActionRequired = false
	item.ActionType = domain.ActionNone
	item.PriorityScore = 50
	item.Category = domain.CategoryOther

	system, user := summarizerPrompt(item)
	summary, err := u.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	item.Summary = summary

	system, user = deadlineExtractorPrompt(item, u.now())
	rawDeadlines, err := u.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("extract deadlines: %w", err)
	}
	deadlines := parseDeadlines(rawDeadlines)

	system, user = actionClassifierPrompt(item)
	rawAction, err := u.completer.Complete(ctx, system, user)
	if err != nil {
		return deadlines, fmt.Errorf("classify action: %w", err)
	}
	item.ActionRequired, item.ActionType = parseAction(rawAction)

	system, user = priorityScorerPrompt(item)
	rawScore, err := u.completer.Complete(ctx, system, user)
	if err != nil {
		return deadlines, fmt.Errorf("score priority: %w", err)
	}
	item.PriorityScore = parseScore(rawScore)

	system, user = categorizerPrompt(item)
	rawCategory, err := u.completer.Complete(ctx, system, user)
	if err != nil {
		return deadlines, fmt.Errorf("categorize: %w", err)
	}
	item.Category = parseCategory(rawCategory)

	return deadlines, nil
}

// EnrichBacklog processes up to batchSize unenriched items, newest first.
// Per-item failures are recorded on the item and do not stop the batch.
func (u *enrichmentUsecase) EnrichBacklog(ctx context.Context, batchSize int) (*BatchResult, error) {
	items, err := u.itemRepo.ListUnenriched(batchSize)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, item := range items {
		result.Processed++
		stepErr, err := u.enrich(ctx, item)
		if err != nil {
			log.Printf("[Enrichment] Item %s failed: %v", item.ID, err)
			result.Failed++
			continue
		}
		if stepErr != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	if result.Processed > 0 {
		log.Printf("[Enrichment] Batch done: %d succeeded, %d failed of %d",
			result.Succeeded, result.Failed, result.Processed)
	}
	return result, nil
}
