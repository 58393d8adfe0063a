package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskrelayhq/taskrelay/internal/chat"
)

func TestBuildMentionEvent(t *testing.T) {
	t.Parallel()

	msg := chat.Message{
		Body:              "@5218123970836 nueva tarea",
		ChatID:            "1203630@g.us",
		ChatName:          "Soporte",
		SenderID:          "5218000000001@c.us",
		SenderDisplayName: "Ana",
		SentAtEpochSecs:   1756700000,
	}
	att := &chat.Attachment{MimeType: "image/png", Bytes: []byte{1}, Extension: "png"}

	event := BuildMentionEvent(msg, att)
	assert.Equal(t, VariantMention, event.Variant)
	assert.Equal(t, "1203630@g.us", event.ChatID)
	assert.Equal(t, "Soporte", event.ChatName)
	assert.Equal(t, "5218000000001@c.us", event.SenderID)
	assert.Equal(t, "5218000000001", event.SenderNumber)
	assert.Equal(t, "Ana", event.SenderName)
	assert.Equal(t, int64(1756700000), event.Timestamp)
	assert.Equal(t, int64(1756700000000), event.DateMillis)
	assert.Same(t, att, event.Attachment)
}

func TestBuildMentionEventNameFallsBackToNumber(t *testing.T) {
	t.Parallel()

	msg := chat.Message{Body: "x", SenderID: "5218000000002@c.us", SentAtEpochSecs: 1}
	event := BuildMentionEvent(msg, nil)
	assert.Equal(t, "5218000000002", event.SenderName)
	assert.Nil(t, event.Attachment)
}

func TestBuildDirectEvent(t *testing.T) {
	t.Parallel()

	msg := chat.Message{
		Body:              "SEMSA necesito ayuda",
		SenderID:          "5218000000003@c.us",
		SenderDisplayName: "Luis",
		SentAtEpochSecs:   1756700123,
	}
	event := BuildDirectEvent(msg)
	assert.Equal(t, VariantDirect, event.Variant)
	assert.Equal(t, "Luis", event.SenderName)
	assert.Equal(t, int64(1756700123000), event.DateMillis)
	assert.Empty(t, event.ChatID)
}

func TestExtensionForMime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jpg", ExtensionForMime("image/jpeg"))
	assert.Equal(t, "png", ExtensionForMime("image/png"))
	assert.Equal(t, "txt", ExtensionForMime("text/plain; charset=utf-8"))
	assert.Equal(t, "webm", ExtensionForMime("video/webm"))
	assert.Equal(t, "bin", ExtensionForMime("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, "bin", ExtensionForMime("application/ld+json"))
	assert.Equal(t, "bin", ExtensionForMime("octet-stream"))
}
