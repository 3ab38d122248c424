// Package platform implements the per-platform clients that fetch remote
// items incrementally and normalize them into inbox Items.
package platform

import (
	"context"
	"time"

	conndomain "flowstate-backend/internal/connection/domain"
	inboxdomain "flowstate-backend/internal/inbox/domain"
)

// TokenResponse is the normalized result of an OAuth code exchange or
// token refresh. Optional fields are zero when the platform omits them.
type TokenResponse struct {
	AccessToken    string
	RefreshToken   string
	ExpiresAt      *time.Time
	ExternalUserID string
	ExternalEmail  string
}

// FetchResult is one page-bounded sync pass against a platform.
// NextCursor/Metadata replace the connection's stored cursor after the
// items have been persisted. FullResync reports that the platform
// invalidated the prior cursor and the pass re-fetched from a bounded
// look-back window.
type FetchResult struct {
	Items      []*inboxdomain.Item
	NextCursor string
	Metadata   string
	FullResync bool
}

// Cursor is the stored sync bookmark passed into FetchNew.
type Cursor struct {
	Token    string
	Metadata string
}

// Client is implemented once per platform. Credentials are carried on the
// connection; FetchNew never refreshes them itself.
type Client interface {
	Platform() conndomain.Platform

	// FetchNew returns new items since the cursor, normalized and truncated
	// to the domain caps. Failures are typed: ErrAuthRejected,
	// ErrPlatformUnavailable, ErrMalformedPayload.
	FetchNew(ctx context.Context, conn *conndomain.Connection, cursor Cursor) (*FetchResult, error)

	// AuthURL builds the platform's OAuth authorization URL.
	AuthURL(state, redirectURI string) string

	// ExchangeCode trades an authorization code for tokens.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error)

	// Refresh trades a refresh token for a new access token. Returns
	// ErrRefreshRejected when the platform refuses it.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}
