package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestToMessageGroupText(t *testing.T) {
	t.Parallel()

	m := &tgbotapi.Message{
		MessageID: 7,
		Text:      "@relay_bot crea un ticket",
		Date:      1756700000,
		Chat:      &tgbotapi.Chat{ID: -100200, Type: "group", Title: "Soporte"},
		From:      &tgbotapi.User{ID: 42, FirstName: "Ana", LastName: "López"},
	}

	msg := toMessage(m)
	assert.Equal(t, "@relay_bot crea un ticket", msg.Body)
	assert.Equal(t, "-100200", msg.ChatID)
	assert.Equal(t, "Soporte", msg.ChatName)
	assert.True(t, msg.IsGroup)
	assert.Equal(t, "42", msg.SenderID)
	assert.Equal(t, "Ana López", msg.SenderDisplayName)
	assert.Equal(t, int64(1756700000), msg.SentAtEpochSecs)
	assert.False(t, msg.HasAttachment)
}

func TestToMessageCaptionAndAttachment(t *testing.T) {
	t.Parallel()

	m := &tgbotapi.Message{
		Caption: "mira la foto",
		Chat:    &tgbotapi.Chat{ID: 5, Type: "private"},
		From:    &tgbotapi.User{ID: 9, UserName: "luis"},
		Photo:   []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}

	msg := toMessage(m)
	assert.Equal(t, "mira la foto", msg.Body)
	assert.False(t, msg.IsGroup)
	assert.Equal(t, "luis", msg.SenderDisplayName)
	assert.True(t, msg.HasAttachment)

	fileID, mimeType := fileRef(m)
	assert.Equal(t, "large", fileID)
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestFileRefDocument(t *testing.T) {
	t.Parallel()

	m := &tgbotapi.Message{
		Document: &tgbotapi.Document{FileID: "doc-1", MimeType: "application/pdf"},
	}
	fileID, mimeType := fileRef(m)
	assert.Equal(t, "doc-1", fileID)
	assert.Equal(t, "application/pdf", mimeType)
}
