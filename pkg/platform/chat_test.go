package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conndomain "flowstate-backend/internal/connection/domain"
	inboxdomain "flowstate-backend/internal/inbox/domain"
)

type chatFixture struct {
	channels      []map[string]any
	history       map[string][]map[string]any
	oldestSeen    map[string]string
	userInfoCalls int
}

func newChatServer(t *testing.T, fx *chatFixture) *httptest.Server {
	t.Helper()
	fx.oldestSeen = map[string]string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channels": fx.channels})
	})
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		channel := r.URL.Query().Get("channel")
		fx.oldestSeen[channel] = r.URL.Query().Get("oldest")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "messages": fx.history[channel]})
	})
	mux.HandleFunc("/users.info", func(w http.ResponseWriter, r *http.Request) {
		fx.userInfoCalls++
		userID := r.URL.Query().Get("user")
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"user": map[string]any{
				"name":    userID,
				"profile": map[string]any{"real_name": "User " + userID, "email": userID + "@example.com"},
			},
		})
	})
	return httptest.NewServer(mux)
}

func testConn() *conndomain.Connection {
	return &conndomain.Connection{
		ID:          "conn-1",
		UserID:      "user-1",
		Platform:    conndomain.PlatformChat,
		AccessToken: "xoxp-test",
		Status:      conndomain.StatusActive,
	}
}

func TestChatFetchNew(t *testing.T) {
	fx := &chatFixture{
		channels: []map[string]any{
			{"id": "C1", "name": "general"},
			{"id": "D1", "name": "", "is_im": true},
		},
		history: map[string][]map[string]any{
			"C1": {
				{"type": "message", "user": "U1", "text": "standup at 10", "ts": "1717200010.000100"},
				{"type": "message", "user": "U1", "text": "another one", "ts": "1717200020.000200"},
				{"type": "message", "subtype": "channel_join", "user": "U2", "ts": "1717200030.000300"},
			},
			"D1": {
				{"type": "message", "user": "U2", "text": "hey, got a minute?", "ts": "1717200040.000400"},
			},
		},
	}
	server := newChatServer(t, fx)
	defer server.Close()

	client := NewChatClient("cid", "secret", server.URL)
	result, err := client.FetchNew(context.Background(), testConn(), Cursor{})
	require.NoError(t, err)

	// Join messages are skipped.
	require.Len(t, result.Items, 3)
	assert.Equal(t, "C1_1717200010.000100", result.Items[0].ExternalID)
	assert.Equal(t, inboxdomain.ItemMessage, result.Items[0].ItemType)
	assert.Equal(t, "User U1", result.Items[0].SenderName)
	assert.Equal(t, inboxdomain.ItemDirectMessage, result.Items[2].ItemType)

	// Same sender is resolved once per pass.
	assert.Equal(t, 2, fx.userInfoCalls)

	// Watermarks advance to the newest ingested timestamp per channel.
	var marks map[string]string
	require.NoError(t, json.Unmarshal([]byte(result.Metadata), &marks))
	assert.Equal(t, "1717200020.000200", marks["channel_C1_oldest"])
	assert.Equal(t, "1717200040.000400", marks["channel_D1_oldest"])
}

func TestChatFetchNewPassesWatermarks(t *testing.T) {
	fx := &chatFixture{
		channels: []map[string]any{{"id": "C1", "name": "general"}},
		history:  map[string][]map[string]any{"C1": {}},
	}
	server := newChatServer(t, fx)
	defer server.Close()

	meta, _ := json.Marshal(map[string]string{"channel_C1_oldest": "1717200020.000200"})

	client := NewChatClient("cid", "secret", server.URL)
	result, err := client.FetchNew(context.Background(), testConn(), Cursor{Metadata: string(meta)})
	require.NoError(t, err)

	assert.Equal(t, "1717200020.000200", fx.oldestSeen["C1"])

	// An empty pass keeps the existing watermark.
	var marks map[string]string
	require.NoError(t, json.Unmarshal([]byte(result.Metadata), &marks))
	assert.Equal(t, "1717200020.000200", marks["channel_C1_oldest"])
}

func TestChatFetchNewAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid_auth"})
	}))
	defer server.Close()

	client := NewChatClient("cid", "secret", server.URL)
	_, err := client.FetchNew(context.Background(), testConn(), Cursor{})
	assert.ErrorIs(t, err, ErrAuthRejected)
}

func TestChatFetchNewMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer server.Close()

	client := NewChatClient("cid", "secret", server.URL)
	_, err := client.FetchNew(context.Background(), testConn(), Cursor{})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestChatFetchNewServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewChatClient("cid", "secret", server.URL)
	_, err := client.FetchNew(context.Background(), testConn(), Cursor{})
	assert.ErrorIs(t, err, ErrPlatformUnavailable)
}

func TestChatTsAfter(t *testing.T) {
	assert.True(t, chatTsAfter("1717200020.000200", "1717200010.000100"))
	assert.False(t, chatTsAfter("1717200010.000100", "1717200020.000200"))
	assert.True(t, chatTsAfter("1717200010.000100", ""))
}
