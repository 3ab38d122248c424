package scheduler

import (
	"context"
	"log"
	"time"

	briefingusecase "flowstate-backend/internal/briefing/usecase"
	conndomain "flowstate-backend/internal/connection/domain"
	enrichusecase "flowstate-backend/internal/enrichment/usecase"
	inboxrepo "flowstate-backend/internal/inbox/repository"
	syncusecase "flowstate-backend/internal/sync/usecase"
)

// Config holds the cadences for the background loops.
type Config struct {
	MailInterval     time.Duration
	ChatInterval     time.Duration
	CalendarInterval time.Duration
	EnrichInterval   time.Duration
	EnrichBatchSize  int
	BriefingHourUTC  int
}

// Scheduler drives the periodic sync, enrichment, overdue, and briefing
// loops. Each loop is stateless between ticks; all progress lives in the
// database, so a restart just picks up where the cursors point.
type Scheduler struct {
	cfg          Config
	syncUsecase  syncusecase.SyncUsecase
	enrichment   enrichusecase.EnrichmentUsecase
	briefings    briefingusecase.BriefingUsecase
	deadlineRepo inboxrepo.DeadlineRepository
	stopChan     chan struct{}
}

func NewScheduler(
	cfg Config,
	syncUsecase syncusecase.SyncUsecase,
	enrichment enrichusecase.EnrichmentUsecase,
	briefings briefingusecase.BriefingUsecase,
	deadlineRepo inboxrepo.DeadlineRepository,
) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		syncUsecase:  syncUsecase,
		enrichment:   enrichment,
		briefings:    briefings,
		deadlineRepo: deadlineRepo,
		stopChan:     make(chan struct{}),
	}
}

// Start launches all background loops. Each sync loop runs once
// immediately so a fresh deploy does not wait a full interval.
func (s *Scheduler) Start() {
	log.Printf("[Scheduler] Starting: mail every %s, chat every %s, calendar every %s, enrichment every %s",
		s.cfg.MailInterval, s.cfg.ChatInterval, s.cfg.CalendarInterval, s.cfg.EnrichInterval)

	go s.runSyncLoop(conndomain.PlatformMail, s.cfg.MailInterval)
	go s.runSyncLoop(conndomain.PlatformChat, s.cfg.ChatInterval)
	go s.runSyncLoop(conndomain.PlatformCalendar, s.cfg.CalendarInterval)
	go s.runEnrichmentLoop()
	go s.runOverdueLoop()
	go s.runBriefingLoop()
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("[Scheduler] Stopped")
}

func (s *Scheduler) runSyncLoop(platform conndomain.Platform, interval time.Duration) {
	s.syncPlatform(platform)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.syncPlatform(platform)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) syncPlatform(platform conndomain.Platform) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.syncUsecase.SyncPlatform(ctx, platform)
	if err != nil {
		log.Printf("[Scheduler] %s sweep failed: %v", platform, err)
		return
	}
	if result.Connections > 0 {
		log.Printf("[Scheduler] %s sweep: %d connections, %d ok, %d failed, %d new items",
			platform, result.Connections, result.Succeeded, result.Failed, result.ItemsInserted)
	}
}

func (s *Scheduler) runEnrichmentLoop() {
	ticker := time.NewTicker(s.cfg.EnrichInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.enrichment.EnrichBacklog(ctx, s.cfg.EnrichBatchSize); err != nil {
				log.Printf("[Scheduler] Enrichment batch failed: %v", err)
			}
			cancel()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runOverdueLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			flipped, err := s.deadlineRepo.MarkOverdue(time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] Overdue sweep failed: %v", err)
			} else if flipped > 0 {
				log.Printf("[Scheduler] Marked %d deadlines overdue", flipped)
			}
		case <-s.stopChan:
			return
		}
	}
}

// runBriefingLoop fires the daily briefing sweep once per day at the
// configured UTC hour. The once-per-day check in the briefing usecase
// makes an early or repeated fire harmless.
func (s *Scheduler) runBriefingLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now().UTC()
			if now.Hour() != s.cfg.BriefingHourUTC || now.Minute() != 0 {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			s.briefings.SweepDaily(ctx, now)
			cancel()
		case <-s.stopChan:
			return
		}
	}
}
