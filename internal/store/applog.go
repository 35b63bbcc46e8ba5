package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

const StatusApplied = "Applied"

// Statuses lists the application stages in pipeline order.
var Statuses = []string{
	StatusApplied, "Phone Screen", "1st Interview",
	"2nd Interview", "Final Round", "Verbal Offer",
	"Offer Received", "Rejected", "No Response",
}

// WorkTypes lists the accepted work arrangements.
var WorkTypes = []string{"Hybrid", "Remote", "On-site"}

var (
	ErrNotFound     = errors.New("log entry not found")
	ErrInvalidEntry = errors.New("invalid log entry")
)

type LogEntry struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	WorkType string `json:"work_type"`
	FitPct   int    `json:"fit_pct"`
	Status   string `json:"status"`
}

// LogPatch changes selected fields of an entry; nil fields are left alone.
type LogPatch struct {
	Date     *string `json:"date,omitempty"`
	JobTitle *string `json:"job_title,omitempty"`
	Company  *string `json:"company,omitempty"`
	Location *string `json:"location,omitempty"`
	WorkType *string `json:"work_type,omitempty"`
	FitPct   *int    `json:"fit_pct,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// AddLogEntry validates entry, fills defaults and appends it to the log.
func (s *Store) AddLogEntry(entry LogEntry) (LogEntry, error) {
	entry.JobTitle = strings.TrimSpace(entry.JobTitle)
	entry.Company = strings.TrimSpace(entry.Company)
	if entry.JobTitle == "" && entry.Company == "" {
		return LogEntry{}, fmt.Errorf("%w: enter at least a job title or company", ErrInvalidEntry)
	}
	if entry.Date == "" {
		entry.Date = s.now().Format("2006-01-02")
	}
	if entry.Status == "" {
		entry.Status = StatusApplied
	}
	if err := validate(entry); err != nil {
		return LogEntry{}, err
	}
	entry.ID = uuid.NewString()

	err := s.Update(func(state *State) error {
		state.AppLog = append(state.AppLog, entry)
		return nil
	})
	if err != nil {
		return LogEntry{}, err
	}

	return entry, nil
}

// UpdateLogEntry applies patch to the entry with the given id.
func (s *Store) UpdateLogEntry(id string, patch LogPatch) (LogEntry, error) {
	var updated LogEntry

	err := s.Update(func(state *State) error {
		idx := slices.IndexFunc(state.AppLog, func(e LogEntry) bool { return e.ID == id })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		entry := state.AppLog[idx]
		apply(&entry, patch)
		if err := validate(entry); err != nil {
			return err
		}

		state.AppLog[idx] = entry
		updated = entry
		return nil
	})

	return updated, err
}

func (s *Store) DeleteLogEntry(id string) error {
	return s.Update(func(state *State) error {
		idx := slices.IndexFunc(state.AppLog, func(e LogEntry) bool { return e.ID == id })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		state.AppLog = slices.Delete(state.AppLog, idx, idx+1)
		return nil
	})
}

func (s *Store) ClearLog() error {
	return s.Update(func(state *State) error {
		state.AppLog = nil
		return nil
	})
}

func (s *Store) Log() []LogEntry {
	return s.Load().AppLog
}

// LogEntry returns the application log entry with the given id.
func (s *Store) LogEntry(id string) (LogEntry, error) {
	for _, entry := range s.Log() {
		if entry.ID == id {
			return entry, nil
		}
	}
	return LogEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func apply(entry *LogEntry, patch LogPatch) {
	if patch.Date != nil {
		entry.Date = *patch.Date
	}
	if patch.JobTitle != nil {
		entry.JobTitle = strings.TrimSpace(*patch.JobTitle)
	}
	if patch.Company != nil {
		entry.Company = strings.TrimSpace(*patch.Company)
	}
	if patch.Location != nil {
		entry.Location = *patch.Location
	}
	if patch.WorkType != nil {
		entry.WorkType = *patch.WorkType
	}
	if patch.FitPct != nil {
		entry.FitPct = *patch.FitPct
	}
	if patch.Status != nil {
		entry.Status = *patch.Status
	}
}

func validate(entry LogEntry) error {
	if !slices.Contains(Statuses, entry.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, entry.Status)
	}
	if entry.WorkType != "" && !slices.Contains(WorkTypes, entry.WorkType) {
		return fmt.Errorf("%w: unknown work type %q", ErrInvalidEntry, entry.WorkType)
	}
	if entry.FitPct < 0 || entry.FitPct > 100 {
		return fmt.Errorf("%w: fit %% must be between 0 and 100", ErrInvalidEntry)
	}
	return nil
}

// migrateLog fills fields missing from entries written by older releases and reports whether
// anything changed.
func migrateLog(entries []LogEntry) bool {
	changed := false
	for i := range entries {
		if entries[i].Status == "" {
			entries[i].Status = StatusApplied
			changed = true
		}
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
			changed = true
		}
	}
	return changed
}
