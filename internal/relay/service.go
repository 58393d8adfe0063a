package relay

import (
	"context"
	"log/slog"

	"github.com/taskrelayhq/taskrelay/internal/chat"
	"github.com/taskrelayhq/taskrelay/internal/dates"
	"github.com/taskrelayhq/taskrelay/internal/normalize"
)

// Options configure message classification.
type Options struct {
	// MentionTokens are the literal substrings that mark the bot as
	// addressed in a group chat.
	MentionTokens []string
	// TriggerKeyword activates the direct route, matched case-insensitively.
	TriggerKeyword string
}

// Disposition reports what happened to one inbound message. Failures are
// carried here so callers observe them structurally instead of scraping
// logs.
type Disposition struct {
	Route     Route
	Forwarded bool
	Replied   bool
	Err       error
}

// Service drives the inbound half of the bridge: classify, build, forward,
// reply.
type Service struct {
	logger    *slog.Logger
	opts      Options
	client    chat.Client
	forwarder *Forwarder
}

// NewService creates the relay pipeline service.
func NewService(log *slog.Logger, opts Options, client chat.Client, forwarder *Forwarder) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:    log.With(slog.String("service", "relay")),
		opts:      opts,
		client:    client,
		forwarder: forwarder,
	}
}

// HandleMessage implements chat.Handler. Each message is handled once, with no
// retry on any failure.
func (s *Service) HandleMessage(ctx context.Context, msg chat.Message) {
	d := s.Relay(ctx, msg)
	if d.Err != nil {
		s.logger.Error("message handling failed",
			slog.String("route", string(d.Route)),
			slog.String("chat_id", msg.ChatID),
			slog.Any("error", d.Err))
	}
}

// Relay runs one message through the pipeline and reports the
// outcome.
func (s *Service) Relay(ctx context.Context, msg chat.Message) Disposition {
	route := Classify(msg, s.opts.MentionTokens, s.opts.TriggerKeyword)
	d := Disposition{Route: route}

	switch route {
	case RouteGroupMention:
		s.handleMention(ctx, msg, &d)
	case RouteDirect:
		s.handleDirect(ctx, msg, &d)
	}
	return d
}

func (s *Service) handleMention(ctx context.Context, msg chat.Message, d *Disposition) {
	s.logger.Info("group mention detected", slog.String("chat_id", msg.ChatID))

	var attachment *chat.Attachment
	if msg.HasAttachment {
		att, err := s.client.DownloadAttachment(ctx, msg)
		if err != nil {
			d.Err = err
			return
		}
		attachment = att
		if attachment != nil && attachment.Extension == "" {
			attachment.Extension = ExtensionForMime(attachment.MimeType)
		}
	}

	result, err := s.forwarder.Forward(ctx, BuildMentionEvent(msg, attachment))
	if err != nil {
		d.Err = err
		return
	}
	d.Forwarded = true

	if _, err := s.client.Send(ctx, msg.ChatID, FormatTicketReply(result)); err != nil {
		d.Err = err
		return
	}
	d.Replied = true
}

func (s *Service) handleDirect(ctx context.Context, msg chat.Message, d *Disposition) {
	s.logger.Info("direct keyword detected", slog.String("sender_id", msg.SenderID))

	// The direct route is forward-only; the automation response is not
	// relayed back to the sender.
	if _, err := s.forwarder.Forward(ctx, BuildDirectEvent(msg)); err != nil {
		d.Err = err
		return
	}
	d.Forwarded = true
}

// FormatTicketReply renders the confirmation sent back to the group after a
// mention forward. Every field degrades to a placeholder so the reply is
// always displayable, even when the automation response was pure noise.
func FormatTicketReply(res normalize.Result) string {
	title := res.Title
	if title == "" {
		if res.Raw != "" {
			title = "Sin título (ver raw)"
		} else {
			title = "Sin título"
		}
	}

	description := res.Description
	if description == "" {
		description = res.Raw
	}
	if description == "" {
		description = "Sin descripción"
	}

	dueDate := "Sin fecha límite"
	if res.DueDate != "" {
		dueDate = dates.FromString(res.DueDate)
	}

	return "✅ *Nuevo ticket creado*\n\n" +
		"📋 *Título:* " + title + "\n" +
		"📝 *Descripción:* " + description + "\n" +
		"📅 *Fecha límite:* " + dueDate
}
