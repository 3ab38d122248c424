package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	conndomain "flowstate-backend/internal/connection/domain"
	inboxdomain "flowstate-backend/internal/inbox/domain"
)

const chatHistoryLimit = 100

// ChatClient syncs workspace messages over the Slack-style Web API.
// There is no single incremental cursor; instead the sync metadata holds a
// per-channel watermark of the newest message timestamp already ingested.
type ChatClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client
}

func NewChatClient(clientID, clientSecret, baseURL string) *ChatClient {
	return &ChatClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ChatClient) Platform() conndomain.Platform { return conndomain.PlatformChat }

func (c *ChatClient) AuthURL(state, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("user_scope", "channels:history,channels:read,im:history,im:read,users:read")
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return "https://slack.com/oauth/v2/authorize?" + q.Encode()
}

func (c *ChatClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	var resp chatOAuthResponse
	if err := c.postForm(ctx, "/oauth.v2.access", form, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: token exchange failed: %s", ErrAuthRejected, resp.Error)
	}
	token := resp.AuthedUser
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: no user token in exchange response", ErrAuthRejected)
	}
	return &TokenResponse{
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresAt:      chatExpiry(token.ExpiresIn),
		ExternalUserID: token.ID,
	}, nil
}

func (c *ChatClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	var resp chatOAuthResponse
	if err := c.postForm(ctx, "/oauth.v2.access", form, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: token refresh failed: %s", ErrRefreshRejected, resp.Error)
	}
	token := resp.AuthedUser
	if token.AccessToken == "" {
		// Workspaces without token rotation return the token at the top level.
		return nil, fmt.Errorf("%w: no user token in refresh response", ErrRefreshRejected)
	}
	out := &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    chatExpiry(token.ExpiresIn),
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

func (c *ChatClient) FetchNew(ctx context.Context, conn *conndomain.Connection, cursor Cursor) (*FetchResult, error) {
	watermarks := parseWatermarks(cursor.Metadata)

	channels, err := c.listChannels(ctx, conn.AccessToken)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{}
	userCache := map[string]chatUser{}

	for _, channel := range channels {
		oldest := watermarks[watermarkKey(channel.ID)]
		messages, err := c.channelHistory(ctx, conn.AccessToken, channel.ID, oldest)
		if err != nil {
			return nil, err
		}

		newest := oldest
		for _, msg := range messages {
			if msg.Subtype != "" || msg.User == "" {
				continue
			}
			sender := c.lookupUser(ctx, conn.AccessToken, msg.User, userCache)
			result.Items = append(result.Items, convertChatMessage(conn.UserID, channel, msg, sender))
			if chatTsAfter(msg.Ts, newest) {
				newest = msg.Ts
			}
		}
		if newest != "" {
			watermarks[watermarkKey(channel.ID)] = newest
		}
	}

	meta, err := json.Marshal(watermarks)
	if err != nil {
		return nil, fmt.Errorf("marshal sync metadata: %w", err)
	}
	result.Metadata = string(meta)
	return result, nil
}

type chatChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsIM bool   `json:"is_im"`
}

type chatMessage struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	User     string `json:"user"`
	Text     string `json:"text"`
	Ts       string `json:"ts"`
	ThreadTs string `json:"thread_ts"`
}

type chatUser struct {
	Name  string
	Email string
}

type chatOAuthResponse struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	AuthedUser struct {
		ID           string `json:"id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	} `json:"authed_user"`
}

func (c *ChatClient) listChannels(ctx context.Context, token string) ([]chatChannel, error) {
	q := url.Values{}
	q.Set("types", "public_channel,im")
	q.Set("exclude_archived", "true")
	q.Set("limit", "200")

	var resp struct {
		OK       bool          `json:"ok"`
		Error    string        `json:"error"`
		Channels []chatChannel `json:"channels"`
	}
	if err := c.get(ctx, "/conversations.list", token, q, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, classifyChatErr("conversations.list", resp.Error)
	}
	return resp.Channels, nil
}

func (c *ChatClient) channelHistory(ctx context.Context, token, channelID, oldest string) ([]chatMessage, error) {
	q := url.Values{}
	q.Set("channel", channelID)
	q.Set("limit", strconv.Itoa(chatHistoryLimit))
	if oldest != "" {
		q.Set("oldest", oldest)
	}

	var resp struct {
		OK       bool          `json:"ok"`
		Error    string        `json:"error"`
		Messages []chatMessage `json:"messages"`
	}
	if err := c.get(ctx, "/conversations.history", token, q, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, classifyChatErr("conversations.history", resp.Error)
	}
	return resp.Messages, nil
}

// lookupUser resolves a sender's display name, caching within the pass so
// each sender costs at most one extra call. Failures degrade to the raw ID.
func (c *ChatClient) lookupUser(ctx context.Context, token, userID string, cache map[string]chatUser) chatUser {
	if cached, ok := cache[userID]; ok {
		return cached
	}

	q := url.Values{}
	q.Set("user", userID)

	var resp struct {
		OK   bool `json:"ok"`
		User struct {
			Name    string `json:"name"`
			Profile struct {
				RealName string `json:"real_name"`
				Email    string `json:"email"`
			} `json:"profile"`
		} `json:"user"`
	}
	user := chatUser{Name: userID}
	if err := c.get(ctx, "/users.info", token, q, &resp); err == nil && resp.OK {
		if resp.User.Profile.RealName != "" {
			user.Name = resp.User.Profile.RealName
		} else if resp.User.Name != "" {
			user.Name = resp.User.Name
		}
		user.Email = resp.User.Profile.Email
	}
	cache[userID] = user
	return user
}

func convertChatMessage(userID string, channel chatChannel, msg chatMessage, sender chatUser) *inboxdomain.Item {
	itemType := inboxdomain.ItemMessage
	if channel.IsIM {
		itemType = inboxdomain.ItemDirectMessage
	}

	threadID := msg.ThreadTs
	if threadID == "" {
		threadID = msg.Ts
	}

	return &inboxdomain.Item{
		UserID:      userID,
		Platform:    conndomain.PlatformChat,
		ItemType:    itemType,
		ExternalID:  channel.ID + "_" + msg.Ts,
		ThreadID:    threadID,
		Body:        inboxdomain.Truncate(msg.Text, inboxdomain.MaxBodyLen),
		Snippet:     inboxdomain.Truncate(msg.Text, inboxdomain.MaxSnippetLen),
		SenderName:  inboxdomain.Truncate(sender.Name, inboxdomain.MaxSenderLen),
		SenderEmail: inboxdomain.Truncate(sender.Email, inboxdomain.MaxSenderLen),
		SenderID:    msg.User,
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		ReceivedAt:  chatTsToTime(msg.Ts),
	}
}

func (c *ChatClient) get(ctx context.Context, path, token string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(req, out)
}

func (c *ChatClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *ChatClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrPlatformUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func classifyChatErr(method, code string) error {
	switch code {
	case "invalid_auth", "token_revoked", "token_expired", "account_inactive", "not_authed":
		return fmt.Errorf("%w: %s: %s", ErrAuthRejected, method, code)
	default:
		return fmt.Errorf("%w: %s: %s", ErrPlatformUnavailable, method, code)
	}
}

func watermarkKey(channelID string) string {
	return "channel_" + channelID + "_oldest"
}

func parseWatermarks(metadata string) map[string]string {
	marks := map[string]string{}
	if metadata == "" {
		return marks
	}
	// Corrupt metadata falls back to a clean map; the worst case is
	// refetching messages the dedup key already rejects.
	_ = json.Unmarshal([]byte(metadata), &marks)
	return marks
}

// chatTsAfter reports whether a is a later message timestamp than b.
// Timestamps are "seconds.sequence" strings.
func chatTsAfter(a, b string) bool {
	if b == "" {
		return a != ""
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a > b
	}
	return fa > fb
}

func chatTsToTime(ts string) time.Time {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Now().UTC()
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

func chatExpiry(expiresIn int) *time.Time {
	return unixExpiry(int64(expiresIn))
}
