package platform

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	conndomain "flowstate-backend/internal/connection/domain"
	inboxdomain "flowstate-backend/internal/inbox/domain"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const mailPageSize = 50

// MailClient syncs a user's mail inbox via the Gmail API. The cursor is the
// mailbox history id; when the history id has expired (404), the pass falls
// back to the default inbox page and reports a full resync.
type MailClient struct {
	oauth googleOAuth
	opts  []option.ClientOption
}

// NewMailClient creates a mail platform client. Extra client options are
// applied to every API service built (used by tests to point at a fake).
func NewMailClient(clientID, clientSecret string, opts ...option.ClientOption) *MailClient {
	return &MailClient{
		oauth: googleOAuth{
			clientID:     clientID,
			clientSecret: clientSecret,
			scopes: []string{
				"https://www.googleapis.com/auth/gmail.readonly",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		opts: opts,
	}
}

func (c *MailClient) Platform() conndomain.Platform { return conndomain.PlatformMail }

func (c *MailClient) AuthURL(state, redirectURI string) string {
	return c.oauth.AuthURL(state, redirectURI)
}

func (c *MailClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	return c.oauth.ExchangeCode(ctx, code, redirectURI)
}

func (c *MailClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.oauth.Refresh(ctx, refreshToken)
}

func (c *MailClient) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(src)}, c.opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create mail service: %v", ErrPlatformUnavailable, err)
	}
	return srv, nil
}

// FetchNew lists message ids added since the cursor (or the default inbox
// page on first sync / cursor invalidation), fetches each in full and
// normalizes it. The next cursor is the history id reported by the
// platform, or a freshly issued one after a full pass.
func (c *MailClient) FetchNew(ctx context.Context, conn *conndomain.Connection, cursor Cursor) (*FetchResult, error) {
	srv, err := c.service(ctx, conn.AccessToken)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{}
	var ids []string

	if cursor.Token != "" {
		startID, err := strconv.ParseUint(cursor.Token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad history cursor %q", ErrMalformedPayload, cursor.Token)
		}

		hist, err := srv.Users.History.List("me").
			StartHistoryId(startID).
			HistoryTypes("messageAdded").
			MaxResults(mailPageSize).Do()
		switch {
		case err == nil:
			for _, h := range hist.History {
				for _, added := range h.MessagesAdded {
					if added.Message != nil {
						ids = append(ids, added.Message.Id)
					}
				}
			}
			if hist.HistoryId > 0 {
				result.NextCursor = strconv.FormatUint(hist.HistoryId, 10)
			} else {
				result.NextCursor = cursor.Token
			}
		case googleStatusCode(err) == http.StatusNotFound:
			// History id expired: discard the cursor and fall back to the
			// default inbox page, once.
			result.FullResync = true
		default:
			return nil, classifyGoogleErr(err)
		}
	}

	if cursor.Token == "" || result.FullResync {
		list, err := srv.Users.Messages.List("me").
			LabelIds("INBOX").
			MaxResults(mailPageSize).Do()
		if err != nil {
			return nil, classifyGoogleErr(err)
		}
		for _, m := range list.Messages {
			ids = append(ids, m.Id)
		}

		// Issue a fresh cursor so the next pass is incremental.
		profile, err := srv.Users.GetProfile("me").Do()
		if err != nil {
			return nil, classifyGoogleErr(err)
		}
		result.NextCursor = strconv.FormatUint(profile.HistoryId, 10)
	}

	for _, id := range ids {
		msg, err := srv.Users.Messages.Get("me", id).Format("full").Do()
		if err != nil {
			return nil, classifyGoogleErr(err)
		}
		item := convertMailMessage(msg, conn.UserID)
		if item != nil {
			result.Items = append(result.Items, item)
		}
	}

	return result, nil
}

// convertMailMessage normalizes a Gmail message into an inbox Item.
func convertMailMessage(msg *gmail.Message, userID string) *inboxdomain.Item {
	if msg == nil || msg.Payload == nil {
		return nil
	}

	from := getHeader(msg.Payload.Headers, "From")
	senderName, senderEmail := splitAddress(from)

	body := extractMailBody(msg.Payload)

	receivedAt := time.Now().UTC()
	if msg.InternalDate > 0 {
		receivedAt = time.Unix(msg.InternalDate/1000, 0).UTC()
	}

	return &inboxdomain.Item{
		UserID:       userID,
		Platform:     conndomain.PlatformMail,
		ItemType:     inboxdomain.ItemMessage,
		ExternalID:   msg.Id,
		ThreadID:     msg.ThreadId,
		Subject:      inboxdomain.Truncate(getHeader(msg.Payload.Headers, "Subject"), inboxdomain.MaxSubjectLen),
		Body:         inboxdomain.Truncate(body, inboxdomain.MaxBodyLen),
		Snippet:      inboxdomain.Truncate(msg.Snippet, inboxdomain.MaxSnippetLen),
		SenderName:   inboxdomain.Truncate(senderName, inboxdomain.MaxSenderLen),
		SenderEmail:  inboxdomain.Truncate(senderEmail, inboxdomain.MaxSenderLen),
		RecipientsTo: inboxdomain.Truncate(getHeader(msg.Payload.Headers, "To"), inboxdomain.MaxSnippetLen),
		RecipientsCc: inboxdomain.Truncate(getHeader(msg.Payload.Headers, "Cc"), inboxdomain.MaxSnippetLen),
		ReceivedAt:   receivedAt,
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// splitAddress splits a "Name <email@example.com>" header into its parts.
func splitAddress(from string) (name, email string) {
	email = strings.TrimSpace(from)
	if idx := strings.Index(from, "<"); idx >= 0 {
		name = strings.Trim(strings.TrimSpace(from[:idx]), `"`)
		email = strings.TrimSpace(strings.Trim(from[idx:], "<>"))
	}
	return name, email
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// extractMailBody walks the MIME tree preferring text/plain; an HTML-only
// message is stripped of tags so enrichment gets readable text.
func extractMailBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			if payload.MimeType == "text/html" {
				return stripHTML(string(data))
			}
			return string(data)
		}
	}

	var plainBody, htmlBody string

	var walk func(parts []*gmail.MessagePart)
	walk = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
					switch part.MimeType {
					case "text/plain":
						if plainBody == "" {
							plainBody = string(data)
						}
					case "text/html":
						if htmlBody == "" {
							htmlBody = string(data)
						}
					}
				}
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}
	walk(payload.Parts)

	if plainBody != "" {
		return plainBody
	}
	return stripHTML(htmlBody)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return strings.Join(strings.Fields(s), " ")
}
