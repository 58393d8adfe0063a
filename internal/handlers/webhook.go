package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskrelayhq/taskrelay/internal/chat"
	"github.com/taskrelayhq/taskrelay/internal/completion"
)

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// WebhookHandler receives task-tracker completion callbacks, authenticates
// them when a secret is configured, and delivers the resulting notification
// to the chat platform. Delivery is attempted once; a failed send is
// reported to the caller, not retried.
type WebhookHandler struct {
	logger     *slog.Logger
	processor  *completion.Processor
	chatClient chat.Client

	path            string
	signatureSecret string
	signatureHeader string
}

// NewWebhookHandler creates the completion webhook handler. An empty secret
// disables signature verification entirely.
func NewWebhookHandler(log *slog.Logger, processor *completion.Processor, chatClient chat.Client, path, signatureSecret, signatureHeader string) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(path) == "" {
		path = "/webhook"
	}
	if strings.TrimSpace(signatureHeader) == "" {
		signatureHeader = "X-Signature"
	}
	return &WebhookHandler{
		logger:          log.With(slog.String("handler", "webhook")),
		processor:       processor,
		chatClient:      chatClient,
		path:            path,
		signatureSecret: signatureSecret,
		signatureHeader: signatureHeader,
	}
}

// Register registers the webhook route.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST(h.path, h.Handle)
}

// Handle godoc
// @Summary Task-tracker completion webhook
// @Description Receives completion events and notifies the mapped chat channel
// @Accept json
// @Produce json
// @Success 200 {object} Ack
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} Ack
// @Failure 503 {object} Ack
// @Router /webhook [post]
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body: "+err.Error())
	}
	if int64(len(body)) > webhookMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	}

	// The HMAC is computed over the exact raw bytes, so authentication runs
	// before any parsing. Missing signature fails closed.
	if h.signatureSecret != "" {
		signature := c.Request().Header.Get(h.signatureHeader)
		if signature == "" {
			h.logger.Warn("webhook without signature header")
			return echo.NewHTTPError(http.StatusBadRequest, "missing signature")
		}
		if !completion.VerifySignature(body, signature, h.signatureSecret) {
			h.logger.Warn("webhook signature mismatch")
			action := completion.Rejected(completion.ReasonInvalidSignature)
			return c.JSON(http.StatusUnauthorized, Ack{OK: false, Note: action.Reason})
		}
	}

	action, err := h.processor.Process(body)
	if err != nil {
		h.logger.Warn("webhook body unparseable", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}

	switch action.Outcome {
	case completion.OutcomeNoOp:
		return c.JSON(http.StatusOK, Ack{OK: true, Note: action.Reason})
	case completion.OutcomeNotify:
		return h.deliver(c, action)
	default:
		return c.JSON(http.StatusOK, Ack{OK: true, Note: action.Reason})
	}
}

func (h *WebhookHandler) deliver(c echo.Context, action completion.Action) error {
	if !h.chatClient.Ready() {
		h.logger.Warn("chat client not ready, dropping notification", slog.String("channel", action.Channel))
		return c.JSON(http.StatusServiceUnavailable, Ack{OK: false, Note: "chat client not ready"})
	}

	ctx := c.Request().Context()
	if _, err := h.chatClient.Send(ctx, action.Channel, action.Message); err != nil {
		h.logger.Error("notification delivery failed",
			slog.String("channel", action.Channel),
			slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, Ack{OK: false, Error: err.Error()})
	}

	h.logger.Info("completion notified", slog.String("channel", action.Channel))
	return c.JSON(http.StatusOK, Ack{OK: true, SentTo: action.Channel})
}
