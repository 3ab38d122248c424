package platform

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"

	inboxdomain "flowstate-backend/internal/inbox/domain"
)

func TestSplitAddress(t *testing.T) {
	name, email := splitAddress(`"Alice Tran" <alice@example.com>`)
	assert.Equal(t, "Alice Tran", name)
	assert.Equal(t, "alice@example.com", email)

	name, email = splitAddress("bob@example.com")
	assert.Equal(t, "", name)
	assert.Equal(t, "bob@example.com", email)

	name, email = splitAddress("Bob <bob@example.com>")
	assert.Equal(t, "Bob", name)
	assert.Equal(t, "bob@example.com", email)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello World", stripHTML("<p>Hello</p> <b>World</b>"))
	assert.Equal(t, "a < b & c", stripHTML("a &lt; b &amp; c"))
	assert.Equal(t, "spaced out", stripHTML("spaced&nbsp;&nbsp;out"))
}

func TestExtractMailBodyPrefersPlainText(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}

	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encode("<p>html version</p>")},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encode("plain version")},
			},
		},
	}

	assert.Equal(t, "plain version", extractMailBody(payload))
}

func TestExtractMailBodyFallsBackToHTML(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body: &gmail.MessagePartBody{
					Data: base64.URLEncoding.EncodeToString([]byte("<div>only html</div>")),
				},
			},
		},
	}

	assert.Equal(t, "only html", extractMailBody(payload))
}

func TestConvertMailMessage(t *testing.T) {
	longBody := strings.Repeat("x", inboxdomain.MaxBodyLen+500)

	msg := &gmail.Message{
		Id:           "msg-1",
		ThreadId:     "thread-1",
		Snippet:      "a preview",
		InternalDate: 1717200000000,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Carol <carol@example.com>"},
				{Name: "Subject", Value: "Quarterly report"},
				{Name: "To", Value: "me@example.com"},
			},
			Body: &gmail.MessagePartBody{
				Data: base64.URLEncoding.EncodeToString([]byte(longBody)),
			},
		},
	}

	item := convertMailMessage(msg, "user-1")
	assert.NotNil(t, item)
	assert.Equal(t, "user-1", item.UserID)
	assert.Equal(t, "msg-1", item.ExternalID)
	assert.Equal(t, "thread-1", item.ThreadID)
	assert.Equal(t, inboxdomain.ItemMessage, item.ItemType)
	assert.Equal(t, "Carol", item.SenderName)
	assert.Equal(t, "carol@example.com", item.SenderEmail)
	assert.Equal(t, "Quarterly report", item.Subject)
	assert.Len(t, item.Body, inboxdomain.MaxBodyLen)
	assert.Equal(t, time.Unix(1717200000, 0).UTC(), item.ReceivedAt)
}

func TestConvertMailMessageNilPayload(t *testing.T) {
	assert.Nil(t, convertMailMessage(&gmail.Message{Id: "x"}, "user-1"))
}
