package relay

import (
	"strings"

	"github.com/taskrelayhq/taskrelay/internal/chat"
)

// Variant tags which route an outbound event was built for.
type Variant string

const (
	VariantMention Variant = "mention"
	VariantDirect  Variant = "direct"
)

// Event is the payload forwarded to the automation endpoint. Built once per
// classified message and consumed exactly once. The mention variant carries
// the group identity and the sender's display name; the direct variant
// carries the sender identity only.
type Event struct {
	Variant      Variant
	ChatID       string
	ChatName     string
	SenderID     string
	SenderNumber string
	SenderName   string
	Message      string
	Timestamp    int64
	DateMillis   int64
	Attachment   *chat.Attachment
}

// BuildMentionEvent assembles the group-mention payload. The chat platform
// supplies whole-second timestamps; downstream consumers format dates from
// milliseconds, so both are carried.
func BuildMentionEvent(msg chat.Message, attachment *chat.Attachment) Event {
	return Event{
		Variant:      VariantMention,
		ChatID:       msg.ChatID,
		ChatName:     msg.ChatName,
		SenderID:     msg.SenderID,
		SenderNumber: senderNumber(msg.SenderID),
		SenderName:   senderName(msg),
		Message:      msg.Body,
		Timestamp:    msg.SentAtEpochSecs,
		DateMillis:   msg.SentAtEpochSecs * 1000,
		Attachment:   attachment,
	}
}

// BuildDirectEvent assembles the direct-keyword payload.
func BuildDirectEvent(msg chat.Message) Event {
	return Event{
		Variant:    VariantDirect,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderDisplayName,
		Message:    msg.Body,
		Timestamp:  msg.SentAtEpochSecs,
		DateMillis: msg.SentAtEpochSecs * 1000,
	}
}

// senderNumber strips the platform suffix from a sender JID
// ("5218...@c.us" -> "5218...").
func senderNumber(senderID string) string {
	if i := strings.IndexByte(senderID, '@'); i >= 0 {
		return senderID[:i]
	}
	return senderID
}

func senderName(msg chat.Message) string {
	if msg.SenderDisplayName != "" {
		return msg.SenderDisplayName
	}
	return senderNumber(msg.SenderID)
}

// Known MIME subtypes mapped to file extensions; anything unrecognized
// falls back to a generic binary extension.
var mimeExtensions = map[string]string{
	"jpeg":         "jpg",
	"png":          "png",
	"gif":          "gif",
	"webp":         "webp",
	"pdf":          "pdf",
	"plain":        "txt",
	"mp4":          "mp4",
	"mpeg":         "mp3",
	"ogg":          "ogg",
	"zip":          "zip",
	"msword":       "doc",
	"vnd.ms-excel": "xls",
}

// ExtensionForMime derives a file extension from a MIME type.
func ExtensionForMime(mimeType string) string {
	_, subtype, found := strings.Cut(mimeType, "/")
	if !found {
		return "bin"
	}
	if semi := strings.IndexByte(subtype, ';'); semi >= 0 {
		subtype = subtype[:semi]
	}
	subtype = strings.TrimSpace(strings.ToLower(subtype))
	if ext, ok := mimeExtensions[subtype]; ok {
		return ext
	}
	if subtype != "" && !strings.ContainsAny(subtype, ".+") {
		return subtype
	}
	return "bin"
}
