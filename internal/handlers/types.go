// Package handlers exposes the bridge's HTTP surface: the task-tracker
// completion webhook, the company-to-channel mapping administration, and a
// liveness probe.
package handlers

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Ack is the acknowledgment body returned by the webhook and mapping
// endpoints.
type Ack struct {
	OK     bool   `json:"ok"`
	Note   string `json:"note,omitempty"`
	SentTo string `json:"sentTo,omitempty"`
	Error  string `json:"error,omitempty"`
}
