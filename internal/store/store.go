// Package store persists user state (master resume, application log, tailoring history and
// API-key overrides) in a single JSON file.
package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
)

const (
	dirName  = ".job_bot"
	fileName = "saved_state.json"
)

// State is the on-disk document. Key names match files written by earlier releases.
type State struct {
	MasterName  string            `json:"master_name,omitempty"`
	MasterText  string            `json:"master_text,omitempty"`
	MasterBytes string            `json:"master_bytes,omitempty"`
	AppLog      []LogEntry        `json:"app_log,omitempty"`
	History     []HistoryEntry    `json:"history_meta,omitempty"`
	UserKeys    map[string]string `json:"user_keys,omitempty"`
}

// HistoryEntry records one tailoring run. Generated files are not persisted.
type HistoryEntry struct {
	Company   string             `json:"company"`
	Slug      string             `json:"slug"`
	JobTitle  string             `json:"job_title"`
	Timestamp string             `json:"timestamp"`
	Score     *int               `json:"score"`
	Data      *ai.TailoredResume `json:"data,omitempty"`
}

// MasterResume is the resume reused across tailoring runs.
type MasterResume struct {
	Name string
	Text string
	Data []byte
}

type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// DefaultPath returns ~/.job_bot/saved_state.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger, now: time.Now}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the state. A missing or unreadable file yields an empty state.
func (s *Store) Load() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update applies fn to the current state and writes the result back.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	if err := fn(state); err != nil {
		return err
	}

	return s.write(state)
}

// Clear removes the state file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

func (s *Store) SetMasterResume(resume MasterResume) error {
	return s.Update(func(state *State) error {
		state.MasterName = resume.Name
		state.MasterText = resume.Text
		state.MasterBytes = base64.StdEncoding.EncodeToString(resume.Data)
		return nil
	})
}

// MasterResume returns the saved resume, if any.
func (s *Store) MasterResume() (MasterResume, bool) {
	state := s.Load()
	if state.MasterName == "" {
		return MasterResume{}, false
	}

	data, err := base64.StdEncoding.DecodeString(state.MasterBytes)
	if err != nil {
		s.logger.Warn("ignoring undecodable master resume bytes", zap.Error(err))
		data = nil
	}

	return MasterResume{Name: state.MasterName, Text: state.MasterText, Data: data}, true
}

// UpsertHistory replaces the entry with the same slug in place or inserts a new one at the front.
func (s *Store) UpsertHistory(entry HistoryEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().Format("2006-01-02 15:04")
	}

	return s.Update(func(state *State) error {
		for i := range state.History {
			if state.History[i].Slug == entry.Slug {
				state.History[i] = entry
				return nil
			}
		}
		state.History = append([]HistoryEntry{entry}, state.History...)
		return nil
	})
}

func (s *Store) History() []HistoryEntry {
	return s.Load().History
}

// SetUserKeys stores API-key overrides by credential name. Blank values are dropped.
func (s *Store) SetUserKeys(keys map[string]string) error {
	return s.Update(func(state *State) error {
		state.UserKeys = make(map[string]string, len(keys))
		for name, key := range keys {
			if key != "" {
				state.UserKeys[name] = key
			}
		}
		return nil
	})
}

func (s *Store) UserKeys() map[string]string {
	keys := s.Load().UserKeys
	if keys == nil {
		return map[string]string{}
	}
	return keys
}

func (s *Store) load() *State {
	state := &State{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("state file is unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return state
	}

	if len(data) == 0 {
		return state
	}

	if err := json.Unmarshal(data, state); err != nil {
		s.logger.Warn("state file is corrupt, starting empty", zap.String("path", s.path), zap.Error(err))
		return &State{}
	}

	if migrateLog(state.AppLog) {
		if err := s.write(state); err != nil {
			s.logger.Warn("could not persist migrated log entries", zap.Error(err))
		}
	}

	return state
}

// write replaces the file atomically through a temp file in the same directory.
func (s *Store) write(state *State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "saved_state_*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(file.Name())

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		file.Close()
		return fmt.Errorf("encode state: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(file.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	s.logger.Debug("state saved", zap.String("path", s.path))

	return nil
}
