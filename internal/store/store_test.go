package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := New(filepath.Join(t.TempDir(), "nested", fileName), zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestLoadMissingAndCorruptFiles(t *testing.T) {
	s := newTestStore(t)

	if state := s.Load(); state.MasterName != "" || len(state.AppLog) != 0 {
		t.Fatalf("expected empty state for missing file, got %+v", state)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if state := s.Load(); state.MasterName != "" {
		t.Fatalf("expected empty state for corrupt file, got %+v", state)
	}

	if err := s.SetUserKeys(map[string]string{"GROQ_API_KEY": "k"}); err != nil {
		t.Fatalf("a corrupt file must not block writes: %v", err)
	}
	if s.UserKeys()["GROQ_API_KEY"] != "k" {
		t.Fatal("expected key to be saved over the corrupt file")
	}
}

func TestMasterResumeRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.MasterResume(); ok {
		t.Fatal("expected no master resume")
	}

	in := MasterResume{Name: "resume.docx", Text: "Jane Doe", Data: []byte{0x50, 0x4b, 0x03, 0x04}}
	if err := s.SetMasterResume(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := s.MasterResume()
	if !ok || out.Name != in.Name || out.Text != in.Text || string(out.Data) != string(in.Data) {
		t.Fatalf("unexpected master resume %+v", out)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.MasterResume(); ok {
		t.Fatal("expected state to be cleared")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clearing twice must succeed: %v", err)
	}
}

func TestLogLifecycle(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.AddLogEntry(LogEntry{JobTitle: " Go Engineer ", Company: "Acme", WorkType: "Remote", FitPct: 82})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == "" || entry.Date != "2025-03-14" || entry.Status != StatusApplied || entry.JobTitle != "Go Engineer" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	status := "Phone Screen"
	updated, err := s.UpdateLogEntry(entry.ID, LogPatch{Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != status || updated.Company != "Acme" {
		t.Fatalf("unexpected update %+v", updated)
	}

	bad := "Ghosted"
	if _, err := s.UpdateLogEntry(entry.ID, LogPatch{Status: &bad}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	if s.Log()[0].Status != status {
		t.Fatal("a rejected patch must not be saved")
	}

	if _, err := s.UpdateLogEntry("missing", LogPatch{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteLogEntry(entry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Log()) != 0 {
		t.Fatal("expected entry to be deleted")
	}
}

func TestAddLogEntryValidation(t *testing.T) {
	s := newTestStore(t)

	cases := []LogEntry{
		{Location: "Berlin"},
		{Company: "Acme", FitPct: 101},
		{Company: "Acme", WorkType: "Office"},
	}
	for _, entry := range cases {
		if _, err := s.AddLogEntry(entry); !errors.Is(err, ErrInvalidEntry) {
			t.Fatalf("expected ErrInvalidEntry for %+v, got %v", entry, err)
		}
	}
	if len(s.Log()) != 0 {
		t.Fatal("invalid entries must not be saved")
	}
}

func TestLoadMigratesOldEntries(t *testing.T) {
	s := newTestStore(t)

	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	legacy := `{"app_log": [{"date": "2024-01-02", "job_title": "SRE", "company": "Initech", "fit_pct": 60}]}`
	if err := os.WriteFile(s.Path(), []byte(legacy), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	first := s.Log()
	if len(first) != 1 || first[0].Status != StatusApplied || first[0].ID == "" {
		t.Fatalf("expected migrated entry, got %+v", first)
	}

	second := s.Log()
	if second[0].ID != first[0].ID {
		t.Fatal("migrated ids must be stable across loads")
	}
}

func TestUpsertHistory(t *testing.T) {
	s := newTestStore(t)
	score := 77

	for _, entry := range []HistoryEntry{
		{Company: "Acme", Slug: "acme", JobTitle: "Go Engineer"},
		{Company: "Initech", Slug: "initech", JobTitle: "SRE"},
		{Company: "Acme", Slug: "acme", JobTitle: "Staff Go Engineer", Score: &score, Data: &ai.TailoredResume{Name: "Jane"}},
	} {
		if err := s.UpsertHistory(entry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected two entries, got %d", len(history))
	}
	if history[0].Slug != "initech" || history[1].JobTitle != "Staff Go Engineer" {
		t.Fatalf("expected acme replaced in place, got %+v", history)
	}
	if history[1].Score == nil || *history[1].Score != 77 || history[1].Data.Name != "Jane" {
		t.Fatalf("unexpected replaced entry %+v", history[1])
	}
	if history[0].Timestamp != "2025-03-14 09:30" {
		t.Fatalf("unexpected timestamp %q", history[0].Timestamp)
	}
}

func TestSetUserKeysDropsBlanks(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetUserKeys(map[string]string{"GROQ_API_KEY": "k", "GEMINI_API_KEY": ""}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys := s.UserKeys()
	if len(keys) != 1 || keys["GROQ_API_KEY"] != "k" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestLogEntryLookup(t *testing.T) {
	s := newTestStore(t)

	added, err := s.AddLogEntry(LogEntry{JobTitle: "SRE", Company: "Initech"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := s.LogEntry(added.ID)
	if err != nil || got.Company != "Initech" || got.JobTitle != "SRE" {
		t.Fatalf("unexpected lookup result %+v, %v", got, err)
	}

	if _, err := s.LogEntry("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
