package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	conndomain "flowstate-backend/internal/connection/domain"
	connrepo "flowstate-backend/internal/connection/repository"
	connusecase "flowstate-backend/internal/connection/usecase"
	inboxdomain "flowstate-backend/internal/inbox/domain"
	syncrepo "flowstate-backend/internal/sync/repository"
	"flowstate-backend/pkg/platform"
)

// fakeClient serves scripted fetch results keyed by cursor token.
type fakeClient struct {
	platformName conndomain.Platform
	results      map[string]*platform.FetchResult
	fetchErr     error
	refreshErr   error
	fetchCalls   int
	lastCursor   platform.Cursor
}

func (f *fakeClient) Platform() conndomain.Platform { return f.platformName }

func (f *fakeClient) AuthURL(state, redirectURI string) string {
	return "https://auth.example/" + state
}

func (f *fakeClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*platform.TokenResponse, error) {
	return &platform.TokenResponse{AccessToken: "token-" + code}, nil
}

func (f *fakeClient) Refresh(ctx context.Context, refreshToken string) (*platform.TokenResponse, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	expiry := time.Now().Add(time.Hour)
	return &platform.TokenResponse{AccessToken: "refreshed", ExpiresAt: &expiry}, nil
}

func (f *fakeClient) FetchNew(ctx context.Context, conn *conndomain.Connection, cursor platform.Cursor) (*platform.FetchResult, error) {
	f.fetchCalls++
	f.lastCursor = cursor
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if result, ok := f.results[cursor.Token]; ok {
		return result, nil
	}
	return &platform.FetchResult{}, nil
}

type syncFixture struct {
	db     *gorm.DB
	client *fakeClient
	uc     SyncUsecase
	conns  connrepo.ConnectionRepository
	curs   connrepo.SyncCursorRepository
}

func setupSyncTest(t *testing.T, client *fakeClient) *syncFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&conndomain.Connection{}, &conndomain.SyncCursor{},
		&inboxdomain.Item{}, &inboxdomain.Deadline{},
	))

	connRepository := connrepo.NewConnectionRepository(db)
	cursorRepository := connrepo.NewSyncCursorRepository(db)
	clients := map[conndomain.Platform]platform.Client{client.platformName: client}
	connUc := connusecase.NewConnectionUsecase(connRepository, cursorRepository, clients, map[conndomain.Platform]string{})

	return &syncFixture{
		db:     db,
		client: client,
		uc:     NewSyncUsecase(connRepository, cursorRepository, syncrepo.NewSyncRepository(db), connUc, clients),
		conns:  connRepository,
		curs:   cursorRepository,
	}
}

func (fx *syncFixture) seedConnection(t *testing.T, userID string) *conndomain.Connection {
	t.Helper()
	conn := &conndomain.Connection{
		UserID:      userID,
		Platform:    fx.client.platformName,
		AccessToken: "access",
		Status:      conndomain.StatusActive,
	}
	require.NoError(t, fx.conns.Create(conn))
	return conn
}

func mailItem(userID, externalID string) *inboxdomain.Item {
	return &inboxdomain.Item{
		UserID:     userID,
		Platform:   conndomain.PlatformMail,
		ItemType:   inboxdomain.ItemMessage,
		ExternalID: externalID,
		Subject:    "subject " + externalID,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestSyncConnectionInsertsAndAdvancesCursor(t *testing.T) {
	client := &fakeClient{
		platformName: conndomain.PlatformMail,
		results: map[string]*platform.FetchResult{
			"": {
				Items: []*inboxdomain.Item{
					mailItem("user-1", "m1"),
					mailItem("user-1", "m2"),
					mailItem("user-1", "m3"),
				},
				NextCursor: "hist-100",
			},
		},
	}
	fx := setupSyncTest(t, client)
	conn := fx.seedConnection(t, "user-1")

	// Pre-insert one of the fetched ids to exercise dedup.
	existing := mailItem("user-1", "m2")
	existing.ID = uuid.New().String()
	require.NoError(t, fx.db.Create(existing).Error)

	result, err := fx.uc.SyncConnection(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ItemsFetched)
	assert.Equal(t, 2, result.ItemsInserted)

	var count int64
	require.NoError(t, fx.db.Model(&inboxdomain.Item{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	cursor, err := fx.curs.FindOrCreate(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "hist-100", cursor.Token)
	assert.Equal(t, "success", cursor.LastSyncStatus)
	assert.Equal(t, 2, cursor.ItemsSynced)
	assert.NotNil(t, cursor.LastSyncAt)
}

func TestSyncConnectionSecondPassIsIncremental(t *testing.T) {
	client := &fakeClient{
		platformName: conndomain.PlatformMail,
		results: map[string]*platform.FetchResult{
			"": {
				Items:      []*inboxdomain.Item{mailItem("user-1", "m1")},
				NextCursor: "hist-100",
			},
			"hist-100": {
				Items:      []*inboxdomain.Item{mailItem("user-1", "m2")},
				NextCursor: "hist-200",
			},
		},
	}
	fx := setupSyncTest(t, client)
	conn := fx.seedConnection(t, "user-1")

	_, err := fx.uc.SyncConnection(context.Background(), conn)
	require.NoError(t, err)
	result, err := fx.uc.SyncConnection(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, platform.Cursor{Token: "hist-100"}, client.lastCursor)
	assert.Equal(t, 1, result.ItemsInserted)

	cursor, err := fx.curs.FindOrCreate(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "hist-200", cursor.Token)
}

func TestSyncConnectionFetchFailureKeepsCursor(t *testing.T) {
	client := &fakeClient{
		platformName: conndomain.PlatformMail,
		results: map[string]*platform.FetchResult{
			"": {NextCursor: "hist-100"},
		},
	}
	fx := setupSyncTest(t, client)
	conn := fx.seedConnection(t, "user-1")

	_, err := fx.uc.SyncConnection(context.Background(), conn)
	require.NoError(t, err)

	client.fetchErr = fmt.Errorf("%w: 503", platform.ErrPlatformUnavailable)
	_, err = fx.uc.SyncConnection(context.Background(), conn)
	require.Error(t, err)

	cursor, err := fx.curs.FindOrCreate(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "hist-100", cursor.Token)
	assert.Equal(t, "error", cursor.LastSyncStatus)
	assert.NotEmpty(t, cursor.LastSyncError)
}

func TestSyncConnectionRefreshFailureMarksConnection(t *testing.T) {
	client := &fakeClient{
		platformName: conndomain.PlatformMail,
		refreshErr:   fmt.Errorf("%w: invalid_grant", platform.ErrRefreshRejected),
	}
	fx := setupSyncTest(t, client)
	conn := fx.seedConnection(t, "user-1")
	expired := time.Now().Add(-time.Hour)
	conn.TokenExpiresAt = &expired
	conn.RefreshToken = "refresh"
	require.NoError(t, fx.conns.Update(conn))

	_, err := fx.uc.SyncConnection(context.Background(), conn)
	require.ErrorIs(t, err, platform.ErrRefreshRejected)
	assert.Zero(t, client.fetchCalls)

	stored, err := fx.conns.FindByID(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, conndomain.StatusError, stored.Status)
	assert.NotEmpty(t, stored.LastError)
}

func TestSyncConnectionRefreshesExpiredToken(t *testing.T) {
	client := &fakeClient{platformName: conndomain.PlatformMail}
	fx := setupSyncTest(t, client)
	conn := fx.seedConnection(t, "user-1")
	expired := time.Now().Add(-time.Hour)
	conn.TokenExpiresAt = &expired
	conn.RefreshToken = "refresh"
	require.NoError(t, fx.conns.Update(conn))

	_, err := fx.uc.SyncConnection(context.Background(), conn)
	require.NoError(t, err)

	stored, err := fx.conns.FindByID(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.AccessToken)
	assert.Equal(t, conndomain.StatusActive, stored.Status)
}

func TestSyncPlatformIsolatesFailures(t *testing.T) {
	client := &fakeClient{
		platformName: conndomain.PlatformMail,
		results: map[string]*platform.FetchResult{
			"": {
				Items:      []*inboxdomain.Item{mailItem("user-2", "m1")},
				NextCursor: "hist-100",
			},
		},
	}
	fx := setupSyncTest(t, client)

	// user-1's refresh fails; user-2 syncs fine.
	broken := fx.seedConnection(t, "user-1")
	expired := time.Now().Add(-time.Hour)
	broken.TokenExpiresAt = &expired
	require.NoError(t, fx.conns.Update(broken))
	fx.seedConnection(t, "user-2")

	result, err := fx.uc.SyncPlatform(context.Background(), conndomain.PlatformMail)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Connections)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.ItemsInserted)
}

func TestSyncConnectionSingleFlight(t *testing.T) {
	client := &fakeClient{platformName: conndomain.PlatformMail}
	fx := setupSyncTest(t, client)
	conn := fx.seedConnection(t, "user-1")

	impl := fx.uc.(*syncUsecase)
	require.True(t, impl.acquire(conn.ID))

	_, err := fx.uc.SyncConnection(context.Background(), conn)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	impl.release(conn.ID)
	_, err = fx.uc.SyncConnection(context.Background(), conn)
	assert.NoError(t, err)
}
