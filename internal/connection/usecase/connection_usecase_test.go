package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flowstate-backend/internal/connection/domain"
	"flowstate-backend/internal/connection/repository"
	"flowstate-backend/pkg/platform"
)

type stubClient struct {
	platformName domain.Platform
	exchanged    string
	refreshErr   error
}

func (s *stubClient) Platform() domain.Platform { return s.platformName }

func (s *stubClient) AuthURL(state, redirectURI string) string {
	return "https://provider.example/authorize?state=" + state
}

func (s *stubClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*platform.TokenResponse, error) {
	s.exchanged = code
	expiry := time.Now().Add(time.Hour)
	return &platform.TokenResponse{
		AccessToken:   "access-" + code,
		RefreshToken:  "refresh-" + code,
		ExpiresAt:     &expiry,
		ExternalEmail: "user@example.com",
	}, nil
}

func (s *stubClient) Refresh(ctx context.Context, refreshToken string) (*platform.TokenResponse, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	expiry := time.Now().Add(time.Hour)
	return &platform.TokenResponse{AccessToken: "new-access", ExpiresAt: &expiry}, nil
}

func (s *stubClient) FetchNew(ctx context.Context, conn *domain.Connection, cursor platform.Cursor) (*platform.FetchResult, error) {
	return &platform.FetchResult{}, nil
}

type connTestEnv struct {
	uc     ConnectionUsecase
	conns  repository.ConnectionRepository
	curs   repository.SyncCursorRepository
	client *stubClient
}

func setupConnTest(t *testing.T) *connTestEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Connection{}, &domain.SyncCursor{}))

	client := &stubClient{platformName: domain.PlatformMail}
	connRepository := repository.NewConnectionRepository(db)
	cursorRepository := repository.NewSyncCursorRepository(db)
	uc := NewConnectionUsecase(
		connRepository,
		cursorRepository,
		map[domain.Platform]platform.Client{domain.PlatformMail: client},
		map[domain.Platform]string{domain.PlatformMail: "http://localhost/callback"},
	)
	return &connTestEnv{uc: uc, conns: connRepository, curs: cursorRepository, client: client}
}

func TestOAuthFlowCreatesConnection(t *testing.T) {
	env := setupConnTest(t)

	resp, err := env.uc.AuthorizeURL("user-1", domain.PlatformMail)
	require.NoError(t, err)
	assert.Contains(t, resp.AuthURL, resp.State)

	conn, err := env.uc.HandleCallback(context.Background(), resp.State, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "the-code", env.client.exchanged)
	assert.Equal(t, "user-1", conn.UserID)
	assert.Equal(t, domain.StatusActive, conn.Status)
	assert.Equal(t, "access-the-code", conn.AccessToken)
	assert.Equal(t, "user@example.com", conn.ExternalEmail)
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	env := setupConnTest(t)

	resp, err := env.uc.AuthorizeURL("user-1", domain.PlatformMail)
	require.NoError(t, err)

	_, err = env.uc.HandleCallback(context.Background(), resp.State, "the-code")
	require.NoError(t, err)

	_, err = env.uc.HandleCallback(context.Background(), resp.State, "the-code")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.uc.HandleCallback(context.Background(), "never-issued", "the-code")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReconnectResetsCursor(t *testing.T) {
	env := setupConnTest(t)

	resp, err := env.uc.AuthorizeURL("user-1", domain.PlatformMail)
	require.NoError(t, err)
	conn, err := env.uc.HandleCallback(context.Background(), resp.State, "code-1")
	require.NoError(t, err)

	cursor, err := env.curs.FindOrCreate(conn.ID)
	require.NoError(t, err)
	cursor.Token = "hist-500"
	require.NoError(t, env.curs.Update(cursor))

	resp, err = env.uc.AuthorizeURL("user-1", domain.PlatformMail)
	require.NoError(t, err)
	reconnected, err := env.uc.HandleCallback(context.Background(), resp.State, "code-2")
	require.NoError(t, err)

	// Same connection row, fresh cursor.
	assert.Equal(t, conn.ID, reconnected.ID)
	fresh, err := env.curs.FindOrCreate(conn.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Token)
}

func TestEnsureFreshTokenSkipsValidToken(t *testing.T) {
	env := setupConnTest(t)
	future := time.Now().Add(time.Hour)
	conn := &domain.Connection{
		UserID:         "user-1",
		Platform:       domain.PlatformMail,
		AccessToken:    "still-good",
		TokenExpiresAt: &future,
		Status:         domain.StatusActive,
	}
	require.NoError(t, env.conns.Create(conn))

	require.NoError(t, env.uc.EnsureFreshToken(context.Background(), conn))
	assert.Equal(t, "still-good", conn.AccessToken)
}

func TestEnsureFreshTokenNoRefreshToken(t *testing.T) {
	env := setupConnTest(t)
	expired := time.Now().Add(-time.Minute)
	conn := &domain.Connection{
		UserID:         "user-1",
		Platform:       domain.PlatformMail,
		AccessToken:    "stale",
		TokenExpiresAt: &expired,
		Status:         domain.StatusActive,
	}
	require.NoError(t, env.conns.Create(conn))

	err := env.uc.EnsureFreshToken(context.Background(), conn)
	assert.ErrorIs(t, err, platform.ErrNoRefreshToken)

	stored, err := env.conns.FindByID(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.Status)
	assert.NotEmpty(t, stored.LastError)
}

func TestDisconnect(t *testing.T) {
	env := setupConnTest(t)

	resp, err := env.uc.AuthorizeURL("user-1", domain.PlatformMail)
	require.NoError(t, err)
	conn, err := env.uc.HandleCallback(context.Background(), resp.State, "code-1")
	require.NoError(t, err)

	require.NoError(t, env.uc.Disconnect("user-1", domain.PlatformMail))

	stored, err := env.conns.FindByID(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRevoked, stored.Status)
	assert.Empty(t, stored.AccessToken)
	assert.Empty(t, stored.RefreshToken)

	err = env.uc.Disconnect("user-1", domain.PlatformChat)
	assert.ErrorIs(t, err, ErrNotConnected)
}
