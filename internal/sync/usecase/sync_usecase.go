package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	conndomain "flowstate-backend/internal/connection/domain"
	connrepo "flowstate-backend/internal/connection/repository"
	connusecase "flowstate-backend/internal/connection/usecase"
	syncrepo "flowstate-backend/internal/sync/repository"
	"flowstate-backend/pkg/platform"
)

// ErrSyncInProgress is returned when a sync is requested for a connection
// that already has one running.
var ErrSyncInProgress = errors.New("sync already in progress for connection")

// PassResult reports the outcome of one sync pass over one connection.
type PassResult struct {
	ConnectionID  string              `json:"connection_id"`
	Platform      conndomain.Platform `json:"platform"`
	ItemsFetched  int                 `json:"items_fetched"`
	ItemsInserted int                 `json:"items_inserted"`
	FullResync    bool                `json:"full_resync"`
}

// SweepResult aggregates a platform-wide sweep.
type SweepResult struct {
	Platform      conndomain.Platform `json:"platform"`
	Connections   int                 `json:"connections"`
	Succeeded     int                 `json:"succeeded"`
	Failed        int                 `json:"failed"`
	ItemsInserted int                 `json:"items_inserted"`
}

type SyncUsecase interface {
	SyncConnection(ctx context.Context, conn *conndomain.Connection) (*PassResult, error)
	SyncUserPlatform(ctx context.Context, userID string, platformName conndomain.Platform) (*PassResult, error)
	SyncPlatform(ctx context.Context, platformName conndomain.Platform) (*SweepResult, error)
}

type syncUsecase struct {
	connRepo    connrepo.ConnectionRepository
	cursorRepo  connrepo.SyncCursorRepository
	syncRepo    syncrepo.SyncRepository
	connUsecase connusecase.ConnectionUsecase
	clients     map[conndomain.Platform]platform.Client

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSyncUsecase(
	connRepo connrepo.ConnectionRepository,
	cursorRepo connrepo.SyncCursorRepository,
	syncRepo syncrepo.SyncRepository,
	connUsecase connusecase.ConnectionUsecase,
	clients map[conndomain.Platform]platform.Client,
) SyncUsecase {
	return &syncUsecase{
		connRepo:    connRepo,
		cursorRepo:  cursorRepo,
		syncRepo:    syncRepo,
		connUsecase: connUsecase,
		clients:     clients,
		inFlight:    map[string]struct{}{},
	}
}

// acquire claims the per-connection sync slot. At most one pass runs per
// connection at a time; overlapping requests fail fast instead of queuing.
func (u *syncUsecase) acquire(connectionID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, busy := u.inFlight[connectionID]; busy {
		return false
	}
	u.inFlight[connectionID] = struct{}{}
	return true
}

func (u *syncUsecase) release(connectionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.inFlight, connectionID)
}

func (u *syncUsecase) SyncConnection(ctx context.Context, conn *conndomain.Connection) (*PassResult, error) {
	if !u.acquire(conn.ID) {
		return nil, ErrSyncInProgress
	}
	defer u.release(conn.ID)

	client, ok := u.clients[conn.Platform]
	if !ok {
		return nil, fmt.Errorf("no client registered for platform %s", conn.Platform)
	}

	if err := u.connUsecase.EnsureFreshToken(ctx, conn); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	cursor, err := u.cursorRepo.FindOrCreate(conn.ID)
	if err != nil {
		return nil, err
	}

	fetched, err := client.FetchNew(ctx, conn, platform.Cursor{Token: cursor.Token, Metadata: cursor.Metadata})
	if err != nil {
		u.recordFailure(cursor, err)
		return nil, err
	}

	// The cursor only advances together with the items it accounts for.
	if fetched.NextCursor != "" || fetched.FullResync {
		cursor.Token = fetched.NextCursor
	}
	if fetched.Metadata != "" {
		cursor.Metadata = fetched.Metadata
	}
	now := time.Now().UTC()
	cursor.LastSyncAt = &now
	cursor.LastSyncStatus = "success"
	cursor.LastSyncError = ""

	inserted, err := u.syncRepo.CommitPass(cursor, fetched.Items)
	if err != nil {
		return nil, fmt.Errorf("commit sync pass: %w", err)
	}

	if fetched.FullResync {
		log.Printf("[Sync] Connection %s (%s): cursor invalidated, full resync ran", conn.ID, conn.Platform)
	}
	log.Printf("[Sync] Connection %s (%s): %d fetched, %d new", conn.ID, conn.Platform, len(fetched.Items), inserted)

	return &PassResult{
		ConnectionID:  conn.ID,
		Platform:      conn.Platform,
		ItemsFetched:  len(fetched.Items),
		ItemsInserted: inserted,
		FullResync:    fetched.FullResync,
	}, nil
}

func (u *syncUsecase) SyncUserPlatform(ctx context.Context, userID string, platformName conndomain.Platform) (*PassResult, error) {
	conn, err := u.connUsecase.Get(userID, platformName)
	if err != nil {
		return nil, err
	}
	if conn.Status == conndomain.StatusRevoked || conn.Status == conndomain.StatusError {
		return nil, fmt.Errorf("connection is %s, reconnect required", conn.Status)
	}
	return u.SyncConnection(ctx, conn)
}

// SyncPlatform sweeps every syncable connection on the platform. One
// failing connection never blocks the rest.
func (u *syncUsecase) SyncPlatform(ctx context.Context, platformName conndomain.Platform) (*SweepResult, error) {
	conns, err := u.connRepo.FindActiveByPlatform(platformName)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Platform: platformName, Connections: len(conns)}
	for _, conn := range conns {
		pass, err := u.SyncConnection(ctx, conn)
		if err != nil {
			if !errors.Is(err, ErrSyncInProgress) {
				log.Printf("[Sync] Connection %s (%s) failed: %v", conn.ID, platformName, err)
				result.Failed++
			}
			continue
		}
		result.Succeeded++
		result.ItemsInserted += pass.ItemsInserted
	}
	return result, nil
}

// recordFailure stamps the cursor's bookkeeping fields without touching
// the cursor token, so the next pass retries the same window.
func (u *syncUsecase) recordFailure(cursor *conndomain.SyncCursor, cause error) {
	now := time.Now().UTC()
	cursor.LastSyncAt = &now
	cursor.LastSyncStatus = "error"
	cursor.LastSyncError = cause.Error()
	if err := u.cursorRepo.Update(cursor); err != nil {
		log.Printf("[Sync] Failed to record sync error for connection %s: %v", cursor.ConnectionID, err)
	}
}
