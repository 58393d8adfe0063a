// Package telegram implements the chat collaborator on the Telegram Bot
// API: long-poll inbound messages, text delivery, and attachment download.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/taskrelayhq/taskrelay/internal/chat"
)

// Client is a Telegram-backed chat.Client.
type Client struct {
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
	http   *http.Client
}

// NewClient authenticates against the Bot API.
func NewClient(log *slog.Logger, botToken string) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger := log.With(slog.String("adapter", "telegram"))
	logger.Info("telegram bot authorized", slog.String("username", bot.Self.UserName))
	return &Client{
		logger: logger,
		bot:    bot,
		http:   &http.Client{},
	}, nil
}

// Ready reports whether the bot session is usable.
func (c *Client) Ready() bool {
	return c.bot != nil
}

// Send delivers text to a chat.
func (c *Client) Send(ctx context.Context, channelID, text string) (chat.Receipt, error) {
	if !c.Ready() {
		return chat.Receipt{}, chat.ErrNotReady
	}
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return chat.Receipt{}, fmt.Errorf("invalid telegram chat id %q: %w", channelID, err)
	}
	sent, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return chat.Receipt{}, fmt.Errorf("telegram send: %w", err)
	}
	return chat.Receipt{MessageID: strconv.Itoa(sent.MessageID)}, nil
}

// Listen long-polls for updates and feeds each inbound message to the
// handler. Blocks until the context is canceled.
func (c *Client) Listen(ctx context.Context, handler chat.Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			handler.HandleMessage(ctx, toMessage(update.Message))
		}
	}
}

func toMessage(m *tgbotapi.Message) chat.Message {
	body := m.Text
	if body == "" {
		body = m.Caption
	}

	msg := chat.Message{
		Body:            body,
		ChatID:          strconv.FormatInt(m.Chat.ID, 10),
		ChatName:        m.Chat.Title,
		IsGroup:         m.Chat.IsGroup() || m.Chat.IsSuperGroup(),
		SentAtEpochSecs: int64(m.Date),
		HasAttachment:   hasAttachment(m),
		Ref:             m,
	}
	if m.From != nil {
		msg.SenderID = strconv.FormatInt(m.From.ID, 10)
		msg.SenderDisplayName = displayName(m.From)
	}
	return msg
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.UserName
}

func hasAttachment(m *tgbotapi.Message) bool {
	return len(m.Photo) > 0 || m.Document != nil || m.Voice != nil || m.Audio != nil || m.Video != nil
}

// DownloadAttachment fetches the media carried by a message.
func (c *Client) DownloadAttachment(ctx context.Context, msg chat.Message) (*chat.Attachment, error) {
	m, ok := msg.Ref.(*tgbotapi.Message)
	if !ok || !hasAttachment(m) {
		return nil, nil
	}

	fileID, mimeType := fileRef(m)
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve telegram file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download telegram file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read telegram file: %w", err)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return &chat.Attachment{MimeType: mimeType, Bytes: data}, nil
}

// fileRef picks the richest media reference on the message. Photos come as
// size variants; the last entry is the largest.
func fileRef(m *tgbotapi.Message) (fileID, mimeType string) {
	switch {
	case len(m.Photo) > 0:
		return m.Photo[len(m.Photo)-1].FileID, "image/jpeg"
	case m.Document != nil:
		return m.Document.FileID, m.Document.MimeType
	case m.Voice != nil:
		return m.Voice.FileID, m.Voice.MimeType
	case m.Audio != nil:
		return m.Audio.FileID, m.Audio.MimeType
	case m.Video != nil:
		return m.Video.FileID, m.Video.MimeType
	default:
		return "", ""
	}
}
