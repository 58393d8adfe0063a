// Package completion consumes task-tracker webhooks: it authenticates them,
// decides whether a payload marks a finished task, resolves which chat
// channel the owning company maps to, and renders the notification text.
package completion

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/taskrelayhq/taskrelay/internal/dates"
)

// Outcome tags what the caller should do with a processed webhook.
type Outcome string

const (
	OutcomeRejected Outcome = "rejected"
	OutcomeNoOp     Outcome = "noop"
	OutcomeNotify   Outcome = "notify"
)

const (
	ReasonInvalidSignature = "invalid-signature"
	ReasonNotCompletion    = "not-a-completion-event"
	ReasonNoMapping        = "no-mapping-for-company"
)

// Action is the processor verdict. Channel and Message are set only for
// OutcomeNotify.
type Action struct {
	Outcome Outcome
	Reason  string
	Channel string
	Message string
}

// Rejected builds a rejection action, used by callers that refuse a request
// before the payload is ever inspected.
func Rejected(reason string) Action {
	return Action{Outcome: OutcomeRejected, Reason: reason}
}

// Event is the normalized view of one completion webhook. Ephemeral, scoped
// to a single request.
type Event struct {
	SubjectName       string
	SubjectID         string
	CompanyKey        string
	CompletedAtMillis int64
	Completed         bool
}

// MappingLookup resolves a company key to a destination channel.
type MappingLookup interface {
	Get(companyKey string) (string, bool)
}

// Processor turns verified webhook bodies into delivery actions.
type Processor struct {
	logger   *slog.Logger
	mappings MappingLookup
}

// NewProcessor creates a Processor backed by the given mapping lookup.
func NewProcessor(log *slog.Logger, mappings MappingLookup) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		logger:   log.With(slog.String("service", "completion")),
		mappings: mappings,
	}
}

// Process parses an authenticated webhook body and decides the action. The
// returned error covers only an unparseable body; every recognized-but-
// uninteresting payload is a NoOp, not a failure.
func (p *Processor) Process(body []byte) (Action, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Action{}, fmt.Errorf("decode webhook body: %w", err)
	}

	payload := decoded
	if nested, ok := decoded["payload"].(map[string]any); ok {
		payload = nested
	}

	event := ExtractEvent(payload)
	p.logger.Debug("webhook parsed",
		slog.String("company_key", event.CompanyKey),
		slog.Bool("completed", event.Completed))

	if !event.Completed {
		return Action{Outcome: OutcomeNoOp, Reason: ReasonNotCompletion}, nil
	}

	channel, ok := "", false
	if event.CompanyKey != "" {
		channel, ok = p.mappings.Get(event.CompanyKey)
	}
	if !ok {
		p.logger.Warn("no channel mapped for company", slog.String("company_key", event.CompanyKey))
		return Action{Outcome: OutcomeNoOp, Reason: ReasonNoMapping}, nil
	}

	return Action{
		Outcome: OutcomeNotify,
		Channel: channel,
		Message: formatNotification(payload, event),
	}, nil
}

// ExtractEvent pulls the completion facts out of a webhook payload. Field
// precedence is fixed: the company key is the first UUID-shaped value in
// `fields`, then `custom_fields`; the done timestamp is read from
// `time_mgmt.date_done`, then top-level `date_done`.
func ExtractEvent(payload map[string]any) Event {
	event := Event{
		SubjectName: stringField(payload, "name"),
		SubjectID:   stringField(payload, "id"),
		CompanyKey:  findCompanyKey(payload),
	}
	event.CompletedAtMillis, event.Completed = doneMillis(payload)
	return event
}

func findCompanyKey(payload map[string]any) string {
	for _, listKey := range []string{"fields", "custom_fields"} {
		list, ok := payload[listKey].([]any)
		if !ok {
			continue
		}
		for _, entry := range list {
			field, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			value, ok := field["value"].(string)
			if ok && IsCompanyKey(value) {
				return value
			}
		}
	}
	return ""
}

// IsCompanyKey reports whether a value is a canonical 8-4-4-4-12 UUID.
func IsCompanyKey(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// doneMillis locates the completion marker. A zero or empty nested marker
// falls through to the top-level one. The event counts as completed only
// when the marker is present, not the literal "null", and positive.
func doneMillis(payload map[string]any) (int64, bool) {
	raw := any(nil)
	if tm, ok := payload["time_mgmt"].(map[string]any); ok {
		raw = tm["date_done"]
	}
	if isBlank(raw) {
		raw = payload["date_done"]
	}
	if raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case string:
		if v == "null" {
			return 0, false
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || ms <= 0 {
			return 0, false
		}
		return ms, true
	case float64:
		if v <= 0 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	default:
		return false
	}
}

func formatNotification(payload map[string]any, event Event) string {
	name := event.SubjectName
	if name == "" {
		name = event.SubjectID
	}
	if name == "" {
		name = "Tarea sin nombre"
	}

	description := stringField(payload, "text_content")
	if description == "" {
		description = stringField(payload, "content")
	}
	if description == "" {
		description = "Sin descripción"
	}
	description = strings.ReplaceAll(description, "\n", " ")

	return "✅ *Tarea completada*\n\n" +
		"📌 *Tarea:* " + name + "\n" +
		"📝 *Descripción:* " + description + "\n" +
		"📅 *Completada el:* " + dates.FromMillis(event.CompletedAtMillis)
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
