// Package chat defines the contract between the relay pipeline and the chat
// platform it rides on. The pipeline only ever sees these types; platform
// sessions, pairing, and transport live in the adapter packages.
package chat

import (
	"context"
	"errors"
)

// ErrNotReady is returned by Send when the platform session cannot deliver
// yet. Callers report it upward instead of queueing.
var ErrNotReady = errors.New("chat client not ready")

// Message is one inbound chat message. Immutable; one value per event.
type Message struct {
	Body              string
	ChatID            string
	ChatName          string
	IsGroup           bool
	SenderID          string
	SenderDisplayName string
	SentAtEpochSecs   int64
	HasAttachment     bool

	// Ref is adapter-private state needed to fetch the attachment later
	// (file IDs, media URLs). Opaque to the pipeline.
	Ref any
}

// Attachment is raw media pulled from a message, held only for the duration
// of one forward.
type Attachment struct {
	MimeType  string
	Bytes     []byte
	Extension string
}

// Receipt acknowledges one delivered message.
type Receipt struct {
	MessageID string
}

// Client is the platform surface the pipeline consumes.
type Client interface {
	// Send delivers text to a channel. Returns ErrNotReady when the
	// session is not able to deliver.
	Send(ctx context.Context, channelID, text string) (Receipt, error)
	// DownloadAttachment fetches the media attached to a message, or nil
	// when the message carries none.
	DownloadAttachment(ctx context.Context, msg Message) (*Attachment, error)
	// Ready reports whether Send can currently deliver.
	Ready() bool
}

// Handler consumes inbound messages emitted by an adapter.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message)
}
