package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/connection/domain"
	"flowstate-backend/internal/connection/dto"
	"flowstate-backend/internal/connection/repository"
	"flowstate-backend/pkg/platform"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrInvalidState    = errors.New("invalid or expired oauth state")
	ErrNotConnected    = errors.New("platform not connected")
)

// refreshSkew refreshes tokens slightly before their actual expiry so a
// sync pass never starts with a token about to die mid-flight.
const refreshSkew = 60 * time.Second

type ConnectionUsecase interface {
	AuthorizeURL(userID string, platformName domain.Platform) (*dto.AuthorizeResponse, error)
	HandleCallback(ctx context.Context, state, code string) (*domain.Connection, error)
	List(userID string) ([]*dto.ConnectionResponse, error)
	Get(userID string, platformName domain.Platform) (*domain.Connection, error)
	Disconnect(userID string, platformName domain.Platform) error
	EnsureFreshToken(ctx context.Context, conn *domain.Connection) error
}

type connectionUsecase struct {
	connRepo     repository.ConnectionRepository
	cursorRepo   repository.SyncCursorRepository
	clients      map[domain.Platform]platform.Client
	redirectURIs map[domain.Platform]string
	states       *stateStore
}

func NewConnectionUsecase(
	connRepo repository.ConnectionRepository,
	cursorRepo repository.SyncCursorRepository,
	clients map[domain.Platform]platform.Client,
	redirectURIs map[domain.Platform]string,
) ConnectionUsecase {
	return &connectionUsecase{
		connRepo:     connRepo,
		cursorRepo:   cursorRepo,
		clients:      clients,
		redirectURIs: redirectURIs,
		states:       newStateStore(),
	}
}

func (u *connectionUsecase) client(platformName domain.Platform) (platform.Client, string, error) {
	client, ok := u.clients[platformName]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownPlatform, platformName)
	}
	return client, u.redirectURIs[platformName], nil
}

func (u *connectionUsecase) AuthorizeURL(userID string, platformName domain.Platform) (*dto.AuthorizeResponse, error) {
	client, redirectURI, err := u.client(platformName)
	if err != nil {
		return nil, err
	}

	state := uuid.New().String()
	u.states.Put(state, userID, platformName)

	return &dto.AuthorizeResponse{
		AuthURL: client.AuthURL(state, redirectURI),
		State:   state,
	}, nil
}

// HandleCallback completes the OAuth flow: it validates the state,
// exchanges the code, and upserts the user's connection for the platform.
// Reconnecting an existing connection resets its sync cursor so the next
// pass starts from a full resync.
func (u *connectionUsecase) HandleCallback(ctx context.Context, state, code string) (*domain.Connection, error) {
	pending, ok := u.states.Consume(state)
	if !ok {
		return nil, ErrInvalidState
	}

	client, redirectURI, err := u.client(pending.platform)
	if err != nil {
		return nil, err
	}

	token, err := client.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	conn, err := u.connRepo.FindByUserAndPlatform(pending.userID, pending.platform)
	switch {
	case err == nil:
		conn.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			conn.RefreshToken = token.RefreshToken
		}
		conn.TokenExpiresAt = token.ExpiresAt
		conn.ExternalUserID = token.ExternalUserID
		conn.ExternalEmail = token.ExternalEmail
		conn.Status = domain.StatusActive
		conn.LastError = ""
		if err := u.connRepo.Update(conn); err != nil {
			return nil, err
		}
		if err := u.cursorRepo.DeleteByConnection(conn.ID); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		conn = &domain.Connection{
			UserID:         pending.userID,
			Platform:       pending.platform,
			AccessToken:    token.AccessToken,
			RefreshToken:   token.RefreshToken,
			TokenExpiresAt: token.ExpiresAt,
			ExternalUserID: token.ExternalUserID,
			ExternalEmail:  token.ExternalEmail,
			Status:         domain.StatusActive,
		}
		if err := u.connRepo.Create(conn); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	log.Printf("[Connection] User %s connected platform %s", pending.userID, pending.platform)
	return conn, nil
}

func (u *connectionUsecase) List(userID string) ([]*dto.ConnectionResponse, error) {
	conns, err := u.connRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		resp := &dto.ConnectionResponse{
			ID:            conn.ID,
			Platform:      conn.Platform,
			Status:        conn.Status,
			ExternalEmail: conn.ExternalEmail,
			LastError:     conn.LastError,
			CreatedAt:     conn.CreatedAt,
		}
		if cursor, err := u.cursorRepo.FindOrCreate(conn.ID); err == nil {
			resp.LastSyncAt = cursor.LastSyncAt
			resp.LastSyncStatus = cursor.LastSyncStatus
			resp.ItemsSynced = cursor.ItemsSynced
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (u *connectionUsecase) Get(userID string, platformName domain.Platform) (*domain.Connection, error) {
	conn, err := u.connRepo.FindByUserAndPlatform(userID, platformName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	return conn, err
}

// Disconnect revokes the connection locally: tokens are cleared and the
// cursor deleted, but already-synced items are kept.
func (u *connectionUsecase) Disconnect(userID string, platformName domain.Platform) error {
	conn, err := u.connRepo.FindByUserAndPlatform(userID, platformName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotConnected
	}
	if err != nil {
		return err
	}

	conn.Status = domain.StatusRevoked
	conn.AccessToken = ""
	conn.RefreshToken = ""
	conn.TokenExpiresAt = nil
	if err := u.connRepo.Update(conn); err != nil {
		return err
	}
	return u.cursorRepo.DeleteByConnection(conn.ID)
}

// EnsureFreshToken refreshes the connection's access token when it is at
// or near expiry. A failed refresh marks the connection so the caller and
// subsequent sweeps skip it until the user reconnects; there is no
// automatic retry.
func (u *connectionUsecase) EnsureFreshToken(ctx context.Context, conn *domain.Connection) error {
	if conn.TokenExpiresAt == nil || time.Now().Before(conn.TokenExpiresAt.Add(-refreshSkew)) {
		return nil
	}

	client, _, err := u.client(conn.Platform)
	if err != nil {
		return err
	}

	if conn.RefreshToken == "" {
		return u.markRefreshFailed(conn, platform.ErrNoRefreshToken)
	}

	token, err := client.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		if errors.Is(err, platform.ErrRefreshRejected) || errors.Is(err, platform.ErrAuthRejected) {
			return u.markRefreshFailed(conn, err)
		}
		// Transient failure: leave the connection untouched so the next
		// sweep tries again.
		return err
	}

	conn.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		conn.RefreshToken = token.RefreshToken
	}
	conn.TokenExpiresAt = token.ExpiresAt
	conn.Status = domain.StatusActive
	conn.LastError = ""
	return u.connRepo.Update(conn)
}

func (u *connectionUsecase) markRefreshFailed(conn *domain.Connection, cause error) error {
	conn.Status = domain.StatusError
	conn.LastError = cause.Error()
	if err := u.connRepo.Update(conn); err != nil {
		return err
	}
	log.Printf("[Connection] Refresh failed for connection %s (%s): %v", conn.ID, conn.Platform, cause)
	return cause
}
