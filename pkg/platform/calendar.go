package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	conndomain "flowstate-backend/internal/connection/domain"
	inboxdomain "flowstate-backend/internal/inbox/domain"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// calendarLookback bounds the event window fetched on a full resync.
const calendarLookback = 30 * 24 * time.Hour

// CalendarClient syncs the user's primary calendar. The cursor is the
// platform sync token; a 410 response invalidates it and forces a full
// resync over a bounded window around now.
type CalendarClient struct {
	oauth googleOAuth
	opts  []option.ClientOption
}

func NewCalendarClient(clientID, clientSecret string, opts ...option.ClientOption) *CalendarClient {
	return &CalendarClient{
		oauth: googleOAuth{
			clientID:     clientID,
			clientSecret: clientSecret,
			scopes: []string{
				"https://www.googleapis.com/auth/calendar.readonly",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		opts: opts,
	}
}

func (c *CalendarClient) Platform() conndomain.Platform { return conndomain.PlatformCalendar }

func (c *CalendarClient) AuthURL(state, redirectURI string) string {
	return c.oauth.AuthURL(state, redirectURI)
}

func (c *CalendarClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	return c.oauth.ExchangeCode(ctx, code, redirectURI)
}

func (c *CalendarClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.oauth.Refresh(ctx, refreshToken)
}

func (c *CalendarClient) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(src)}, c.opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create calendar service: %v", ErrPlatformUnavailable, err)
	}
	return srv, nil
}

func (c *CalendarClient) FetchNew(ctx context.Context, conn *conndomain.Connection, cursor Cursor) (*FetchResult, error) {
	srv, err := c.service(ctx, conn.AccessToken)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{}
	syncToken := cursor.Token

	events, err := c.listEvents(srv, syncToken)
	if err != nil {
		if syncToken != "" && googleStatusCode(err) == http.StatusGone {
			// Sync token expired: reset and retry once over the bounded
			// window.
			result.FullResync = true
			events, err = c.listEvents(srv, "")
		}
		if err != nil {
			return nil, classifyGoogleErr(err)
		}
	}

	for _, event := range events.items {
		if event.Status == "cancelled" {
			continue
		}
		if item := convertCalendarEvent(event, conn.UserID); item != nil {
			result.Items = append(result.Items, item)
		}
	}
	result.NextCursor = events.nextSyncToken

	return result, nil
}

type eventPage struct {
	items         []*calendar.Event
	nextSyncToken string
}

// listEvents pages through the primary calendar until the platform issues
// the next sync token (only present on the final page).
func (c *CalendarClient) listEvents(srv *calendar.Service, syncToken string) (*eventPage, error) {
	page := &eventPage{}
	pageToken := ""

	for {
		call := srv.Events.List("primary").SingleEvents(true).MaxResults(100)
		if syncToken != "" {
			call = call.SyncToken(syncToken)
		} else {
			now := time.Now().UTC()
			call = call.
				TimeMin(now.Add(-calendarLookback).Format(time.RFC3339)).
				TimeMax(now.Add(calendarLookback).Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, err
		}

		page.items = append(page.items, resp.Items...)
		if resp.NextSyncToken != "" {
			page.nextSyncToken = resp.NextSyncToken
		}
		if resp.NextPageToken == "" {
			return page, nil
		}
		pageToken = resp.NextPageToken
	}
}

// convertCalendarEvent normalizes a calendar event into an inbox Item.
// An event where the user still needs to respond is an invite.
func convertCalendarEvent(event *calendar.Event, userID string) *inboxdomain.Item {
	if event == nil || event.Id == "" {
		return nil
	}

	itemType := inboxdomain.ItemEvent
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "needsAction" {
			itemType = inboxdomain.ItemEventInvite
			break
		}
	}

	var senderName, senderEmail string
	if event.Organizer != nil {
		senderName = event.Organizer.DisplayName
		senderEmail = event.Organizer.Email
	}

	subject := event.Summary
	if subject == "" {
		subject = "(No Title)"
	}

	start := parseEventTime(event.Start)
	receivedAt := time.Now().UTC()
	if start != nil {
		receivedAt = *start
	}

	return &inboxdomain.Item{
		UserID:        userID,
		Platform:      conndomain.PlatformCalendar,
		ItemType:      itemType,
		ExternalID:    event.Id,
		Subject:       inboxdomain.Truncate(subject, inboxdomain.MaxSubjectLen),
		Body:          inboxdomain.Truncate(event.Description, inboxdomain.MaxBodyLen),
		Snippet:       inboxdomain.Truncate(event.Summary, inboxdomain.MaxSnippetLen),
		SenderName:    inboxdomain.Truncate(senderName, inboxdomain.MaxSenderLen),
		SenderEmail:   inboxdomain.Truncate(senderEmail, inboxdomain.MaxSenderLen),
		EventStart:    start,
		EventEnd:      parseEventTime(event.End),
		EventLocation: inboxdomain.Truncate(event.Location, inboxdomain.MaxSubjectLen),
		ReceivedAt:    receivedAt,
	}
}

func parseEventTime(t *calendar.EventDateTime) *time.Time {
	if t == nil {
		return nil
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return &parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return &parsed
		}
	}
	return nil
}
