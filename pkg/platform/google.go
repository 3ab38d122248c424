package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
)

// googleOAuth holds the OAuth plumbing shared by the mail and calendar
// clients, which use the same Google credential pair with different scopes.
type googleOAuth struct {
	clientID     string
	clientSecret string
	scopes       []string
}

func (g *googleOAuth) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURI,
		Scopes:       g.scopes,
	}
}

func (g *googleOAuth) AuthURL(state, redirectURI string) string {
	return g.config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (g *googleOAuth) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	tok, err := g.config(redirectURI).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRejected, err)
	}

	resp := &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		resp.ExpiresAt = &expiry
	}

	// Resolve the external identity for the connection record. Best effort:
	// a failure here does not invalidate the exchanged tokens.
	if id, email, err := g.fetchUserInfo(ctx, tok.AccessToken); err == nil {
		resp.ExternalUserID = id
		resp.ExternalEmail = email
	}

	return resp, nil
}

func (g *googleOAuth) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	src := g.config("").TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyRefreshErr(err)
	}

	resp := &TokenResponse{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		resp.ExpiresAt = &expiry
	}
	return resp, nil
}

func (g *googleOAuth) fetchUserInfo(ctx context.Context, accessToken string) (id, email string, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", err
	}
	return info.ID, info.Email, nil
}

// classifyRefreshErr separates a token endpoint rejection from transport
// trouble. Only an HTTP-level denial (invalid_grant and friends) is terminal;
// network failures and 5xx/429 responses leave the refresh token usable.
func classifyRefreshErr(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		code := 0
		if retrieveErr.Response != nil {
			code = retrieveErr.Response.StatusCode
		}
		if code < http.StatusInternalServerError && code != http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
}

// classifyGoogleErr maps a Google API call failure onto the typed sync
// failures. Cursor invalidation (404 history / 410 sync token) is handled
// by the callers before this runs.
func classifyGoogleErr(err error) error {
	if err == nil {
		return nil
	}
	if code := googleStatusCode(err); code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("%w: %v", ErrAuthRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
}

func googleStatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func unixExpiry(expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := time.Now().Add(time.Duration(expiresIn) * time.Second)
	return &t
}
