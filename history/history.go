// Package history persists finished transcripts in an append-style JSON
// store: newest-first listing, pagination, atomic temp-file writes, and
// automatic recovery from a corrupted file.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/pipeline"
)

const historyFileName = "transcript_history.json"

// MaxPageSize caps a single List page.
const MaxPageSize = 200

// Entry is one recorded transcription event.
type Entry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	// Timestamp is RFC 3339 with millisecond precision, UTC.
	Timestamp    string  `json:"timestamp"`
	DurationSecs float64 `json:"durationSecs,omitempty"`
	Language     string  `json:"language,omitempty"`
	Provider     string  `json:"provider"`
}

// NewEntry builds an Entry with a fresh id and the current timestamp.
func NewEntry(text string, durationSecs float64, language, provider string) Entry {
	return Entry{
		ID:           uuid.NewString(),
		Text:         text,
		Timestamp:    time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		DurationSecs: durationSecs,
		Language:     language,
		Provider:     provider,
	}
}

// Store is a JSON-file transcript history store.
type Store struct {
	filePath string
	ioLock   sync.Mutex
	log      *logger.Logger
}

// NewStore creates a Store under dataDir, initializing the file if absent.
func NewStore(dataDir string) (*Store, error) {
	return NewStoreWithFilePath(filepath.Join(dataDir, historyFileName))
}

// NewStoreWithFilePath creates a Store over an explicit file path.
func NewStoreWithFilePath(filePath string) (*Store, error) {
	if err := ensureHistoryFile(filePath); err != nil {
		return nil, err
	}
	return &Store{
		filePath: filePath,
		log:      logger.WithComponent("history"),
	}, nil
}

// Add inserts an entry, keeping newest-first order.
func (s *Store) Add(entry Entry) error {
	if err := validateEntry(&entry); err != nil {
		return err
	}

	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		return err
	}

	insertAt := sort.Search(len(entries), func(i int) bool {
		return entries[i].Timestamp < entry.Timestamp
	})
	entries = append(entries, Entry{})
	copy(entries[insertAt+1:], entries[insertAt:])
	entries[insertAt] = entry

	return s.writeEntries(entries)
}

// RecordTranscription implements pipeline.Sink.
func (s *Store) RecordTranscription(event pipeline.CompletedTranscription) error {
	return s.Add(NewEntry(event.Text, event.DurationSecs, event.Language, event.Provider))
}

// List returns up to limit entries (capped at MaxPageSize) starting at
// offset, newest first.
func (s *Store) List(limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		return nil, err
	}

	if offset >= len(entries) {
		return []Entry{}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

// Get returns the entry with the given id, or nil if absent.
func (s *Store) Get(id string) (*Entry, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Delete removes the entry with the given id and reports whether it
// existed.
func (s *Store) Delete(id string) (bool, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		return false, err
	}

	kept := entries[:0]
	for _, entry := range entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	return true, s.writeEntries(kept)
}

// Clear removes all entries.
func (s *Store) Clear() error {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	return s.writeEntries([]Entry{})
}

func (s *Store) readEntries() ([]Entry, error) {
	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript history file: %w", err)
	}
	if len(raw) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		if err := s.recoverMalformedFile(fmt.Sprintf("parse transcript history file: %v", err)); err != nil {
			return nil, err
		}
		return []Entry{}, nil
	}

	for i := range entries {
		if err := validateEntry(&entries[i]); err != nil {
			if err := s.recoverMalformedFile(fmt.Sprintf("validate transcript history file: %v", err)); err != nil {
				return nil, err
			}
			return []Entry{}, nil
		}
	}

	if !sort.SliceIsSorted(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	}) {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Timestamp > entries[j].Timestamp
		})
	}

	return entries, nil
}

func (s *Store) writeEntries(entries []Entry) error {
	serialized, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize transcript history entries: %w", err)
	}

	tempPath := tempFilePathFor(s.filePath)
	if err := os.WriteFile(tempPath, serialized, 0o600); err != nil {
		return fmt.Errorf("write transcript history temp file %q: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize transcript history file: %w", err)
	}
	return nil
}

// recoverMalformedFile backs up the unreadable file and resets the store
// to an empty history so one bad write never bricks the feature.
func (s *Store) recoverMalformedFile(reason string) error {
	backupPath := fmt.Sprintf("%s.corrupt-%d-%d.bak", s.filePath, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(s.filePath, backupPath); err != nil {
		return fmt.Errorf("backup malformed history file: %w", err)
	}
	if err := s.writeEntries([]Entry{}); err != nil {
		return err
	}
	s.log.Warn("recovered malformed history file",
		logger.Fields("backup", backupPath, "reason", reason))
	return nil
}

func ensureHistoryFile(filePath string) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte("[]"), 0o600); err != nil {
			return fmt.Errorf("initialize history file: %w", err)
		}
	}
	return nil
}

func tempFilePathFor(filePath string) string {
	dir, name := filepath.Split(filePath)
	return filepath.Join(dir, fmt.Sprintf(".%s.%d.%d.tmp", name, os.Getpid(), time.Now().UnixNano()))
}

func validateEntry(entry *Entry) error {
	switch {
	case entry.ID == "":
		return fmt.Errorf("history entry id cannot be empty")
	case entry.Text == "":
		return fmt.Errorf("history entry text cannot be empty")
	case entry.Timestamp == "":
		return fmt.Errorf("history entry timestamp cannot be empty")
	case entry.Provider == "":
		return fmt.Errorf("history entry provider cannot be empty")
	}
	return nil
}

var _ pipeline.Sink = (*Store)(nil)
