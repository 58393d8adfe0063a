// Package whatsapp implements the chat collaborator on the WhatsApp
// Business Cloud API: webhook inbound, text delivery, and media download.
package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskrelayhq/taskrelay/internal/chat"
	"github.com/taskrelayhq/taskrelay/internal/config"
)

const defaultAPIBase = "https://graph.facebook.com/v21.0"

// Client is a WhatsApp-Cloud-backed chat.Client. Inbound messages arrive on
// the webhook routes mounted by Register.
type Client struct {
	logger  *slog.Logger
	cfg     config.WhatsAppConfig
	http    *http.Client
	apiBase string
	handler chat.Handler
}

// NewClient creates the WhatsApp client. The handler may be set later,
// before the webhook routes receive traffic.
func NewClient(log *slog.Logger, cfg config.WhatsAppConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		logger:  log.With(slog.String("adapter", "whatsapp")),
		cfg:     cfg,
		http:    &http.Client{},
		apiBase: defaultAPIBase,
	}
}

// SetHandler wires the inbound message consumer.
func (c *Client) SetHandler(h chat.Handler) {
	c.handler = h
}

// Ready reports whether the client can deliver messages.
func (c *Client) Ready() bool {
	return c.cfg.AccessToken != "" && c.cfg.PhoneNumberID != ""
}

// Send delivers text to a phone or group target.
func (c *Client) Send(ctx context.Context, channelID, text string) (chat.Receipt, error) {
	if !c.Ready() {
		return chat.Receipt{}, chat.ErrNotReady
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                channelID,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return chat.Receipt{}, err
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return chat.Receipt{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Receipt{}, fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return chat.Receipt{}, fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, body)
	}

	var decoded struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(body, &decoded)
	receipt := chat.Receipt{}
	if len(decoded.Messages) > 0 {
		receipt.MessageID = decoded.Messages[0].ID
	}
	return receipt, nil
}

// Register mounts the webhook verification and inbound routes.
func (c *Client) Register(e *echo.Echo) {
	path := c.cfg.WebhookPath
	if path == "" {
		path = "/webhook/whatsapp"
	}
	e.GET(path, c.handleVerification)
	e.POST(path, c.handleIncoming)
}

// handleVerification answers the platform's subscription challenge.
func (c *Client) handleVerification(ec echo.Context) error {
	mode := ec.QueryParam("hub.mode")
	token := ec.QueryParam("hub.verify_token")
	challenge := ec.QueryParam("hub.challenge")

	if mode == "subscribe" && token == c.cfg.VerifyToken {
		c.logger.Info("whatsapp webhook verified")
		return ec.String(http.StatusOK, challenge)
	}
	c.logger.Warn("whatsapp webhook verification failed", slog.String("mode", mode))
	return echo.NewHTTPError(http.StatusForbidden, "verification failed")
}

func (c *Client) handleIncoming(ec echo.Context) error {
	body, err := io.ReadAll(ec.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body")
	}

	if c.cfg.AppSecret != "" {
		signature := ec.Request().Header.Get("X-Hub-Signature-256")
		if !c.verifySignature(body, signature) {
			c.logger.Warn("whatsapp invalid signature")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
		}
	}

	for _, msg := range parseInbound(body) {
		if c.handler != nil {
			c.handler.HandleMessage(ec.Request().Context(), msg)
		}
	}
	return ec.String(http.StatusOK, "EVENT_RECEIVED")
}

func (c *Client) verifySignature(body []byte, header string) bool {
	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.AppSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(provided))
}

type mediaRef struct {
	ID       string
	MimeType string
}

type inboundEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *inboundMedia `json:"image"`
	Document *inboundMedia `json:"document"`
	Audio    *inboundMedia `json:"audio"`
	Video    *inboundMedia `json:"video"`
}

type inboundMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

func parseInbound(body []byte) []chat.Message {
	var envelope inboundEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	var out []chat.Message
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			names := map[string]string{}
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, im := range change.Value.Messages {
				out = append(out, toMessage(im, names[im.From]))
			}
		}
	}
	return out
}

func toMessage(im inboundMessage, senderName string) chat.Message {
	msg := chat.Message{
		ChatID:            im.From,
		SenderID:          im.From,
		SenderDisplayName: senderName,
	}
	if ts, err := strconv.ParseInt(im.Timestamp, 10, 64); err == nil {
		msg.SentAtEpochSecs = ts
	}
	if im.Text != nil {
		msg.Body = im.Text.Body
	}

	if media := firstMedia(im); media != nil {
		msg.HasAttachment = true
		msg.Ref = mediaRef{ID: media.ID, MimeType: media.MimeType}
		if msg.Body == "" {
			msg.Body = media.Caption
		}
	}
	return msg
}

func firstMedia(im inboundMessage) *inboundMedia {
	for _, media := range []*inboundMedia{im.Image, im.Document, im.Audio, im.Video} {
		if media != nil {
			return media
		}
	}
	return nil
}

// DownloadAttachment resolves a media ID to its temporary URL and fetches
// the bytes.
func (c *Client) DownloadAttachment(ctx context.Context, msg chat.Message) (*chat.Attachment, error) {
	ref, ok := msg.Ref.(mediaRef)
	if !ok {
		return nil, nil
	}

	var meta struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", c.apiBase, ref.ID), &meta); err != nil {
		return nil, fmt.Errorf("resolve media url: %w", err)
	}

	data, err := c.get(ctx, meta.URL)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = ref.MimeType
	}
	return &chat.Attachment{MimeType: mimeType, Bytes: data}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	raw, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
