// Package mapping persists the company-to-channel routing table. The table
// maps a company key (a UUID issued by the task tracker) to the chat channel
// that should receive that company's notifications.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

var ErrEmptyKey = errors.New("company key is empty")

// Store is a file-backed company-to-channel map. The backing file is a
// pretty-printed JSON object, rewritten in full on every mutation so that a
// committed mapping survives a crash. Administrative edits may touch the
// file out-of-band, so read paths that must be current call Reload first.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]string
}

// NewStore creates a store bound to the given file path and loads whatever
// is already there. A missing or unreadable file yields an empty table
// rather than an error: a corrupt map must not keep the process down.
func NewStore(log *slog.Logger, path string) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		path:    path,
		logger:  log.With(slog.String("service", "mapping")),
		entries: map[string]string{},
	}
	s.Reload()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the in-memory table with the current file contents.
func (s *Store) Reload() {
	entries := s.load()
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

func (s *Store) load() map[string]string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("mapping file unreadable, using empty table", slog.String("path", s.path), slog.Any("error", err))
		}
		return map[string]string{}
	}
	if len(raw) == 0 {
		return map[string]string{}
	}
	entries := map[string]string{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("mapping file malformed, using empty table", slog.String("path", s.path), slog.Any("error", err))
		return map[string]string{}
	}
	return entries
}

// Get returns the channel mapped to the given company key.
func (s *Store) Get(companyKey string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.entries[companyKey]
	return channel, ok
}

// Set maps a company key to a channel and persists the table before
// acknowledging. On a write failure the previous in-memory state is
// restored and the mutation reported as uncommitted.
func (s *Store) Set(companyKey, channelID string) error {
	if companyKey == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.entries[companyKey]
	s.entries[companyKey] = channelID
	if err := s.persist(); err != nil {
		if existed {
			s.entries[companyKey] = previous
		} else {
			delete(s.entries, companyKey)
		}
		return fmt.Errorf("persist mapping: %w", err)
	}
	s.logger.Info("mapping saved", slog.String("company_key", companyKey), slog.String("channel_id", channelID))
	return nil
}

// Snapshot returns a copy of the current table.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}
