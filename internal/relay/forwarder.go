package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/taskrelayhq/taskrelay/internal/normalize"
)

// ErrNoDirectEndpoint is returned when a direct-keyword event arrives but
// no direct automation URL is configured.
var ErrNoDirectEndpoint = errors.New("no direct automation endpoint configured")

// Forwarder posts outbound events to the automation endpoint. Every call is
// attempted exactly once; a failure is reported, never retried.
type Forwarder struct {
	logger     *slog.Logger
	client     *http.Client
	mentionURL string
	directURL  string
}

// NewForwarder creates a Forwarder. The mention URL is required; the direct
// URL may be empty, in which case direct events report ErrNoDirectEndpoint.
func NewForwarder(log *slog.Logger, client *http.Client, mentionURL, directURL string) *Forwarder {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Forwarder{
		logger:     log.With(slog.String("service", "forwarder")),
		client:     client,
		mentionURL: mentionURL,
		directURL:  directURL,
	}
}

// Forward sends the event to the endpoint matching its variant and runs the
// response body through the normalizer. Mention events go out as a
// multipart form with an optional binary file part; direct events as JSON.
func (f *Forwarder) Forward(ctx context.Context, event Event) (normalize.Result, error) {
	switch event.Variant {
	case VariantMention:
		return f.forwardMention(ctx, event)
	case VariantDirect:
		return f.forwardDirect(ctx, event)
	default:
		return normalize.Result{}, fmt.Errorf("unknown event variant %q", event.Variant)
	}
}

func (f *Forwarder) forwardMention(ctx context.Context, event Event) (normalize.Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"groupId", event.ChatID},
		{"groupName", event.ChatName},
		{"senderJid", event.SenderID},
		{"senderNumber", event.SenderNumber},
		{"senderName", event.SenderName},
		{"message", event.Message},
		{"timestamp", strconv.FormatInt(event.Timestamp, 10)},
		{"messageDateMs", strconv.FormatInt(event.DateMillis, 10)},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return normalize.Result{}, fmt.Errorf("write form field %s: %w", field.name, err)
		}
	}

	if att := event.Attachment; att != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="archivo.%s"`, att.Extension))
		header.Set("Content-Type", att.MimeType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return normalize.Result{}, fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(att.Bytes); err != nil {
			return normalize.Result{}, fmt.Errorf("write file part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return normalize.Result{}, fmt.Errorf("finalize form: %w", err)
	}

	return f.post(ctx, f.mentionURL, writer.FormDataContentType(), &buf)
}

func (f *Forwarder) forwardDirect(ctx context.Context, event Event) (normalize.Result, error) {
	if strings.TrimSpace(f.directURL) == "" {
		return normalize.Result{}, ErrNoDirectEndpoint
	}

	payload := map[string]any{
		"from":          event.SenderID,
		"name":          event.SenderName,
		"message":       event.Message,
		"timestamp":     event.Timestamp,
		"messageDateMs": event.DateMillis,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("encode direct payload: %w", err)
	}
	return f.post(ctx, f.directURL, "application/json", bytes.NewReader(raw))
}

func (f *Forwarder) post(ctx context.Context, url, contentType string, body io.Reader) (normalize.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.client.Do(req)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("post automation event: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("read automation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalize.Result{}, fmt.Errorf("automation endpoint returned %d", resp.StatusCode)
	}

	f.logger.Debug("automation response received",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)))
	return normalize.Normalize(raw), nil
}
