package server

import (
	"fmt"
	"net/http"

	"github.com/spigell/job-bot/internal/document"
	"github.com/spigell/job-bot/internal/store"
	"github.com/spigell/job-bot/internal/tailor"
)

func (s *Server) handleListLog(w http.ResponseWriter, _ *http.Request) {
	entries := s.deps.Store.Log()
	if entries == nil {
		entries = []store.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddLog(w http.ResponseWriter, r *http.Request) {
	var entry store.LogEntry
	if err := decodeBody(w, r, &entry); err != nil {
		s.fail(w, r, err)
		return
	}

	added, err := s.deps.Store.AddLogEntry(entry)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	var patch store.LogPatch
	if err := decodeBody(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.deps.Store.UpdateLogEntry(r.PathValue("id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteLogEntry(r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearLog(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.ClearLog(); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportLog(w http.ResponseWriter, r *http.Request) {
	entries := s.deps.Store.Log()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		data, err := document.BuildLogCSV(entries)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeFile(w, document.CSVContentType, "application_log.csv", data)
	case "docx":
		data, err := document.BuildLogDOCX(entries)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeFile(w, document.DOCXContentType, "application_log.docx", data)
	default:
		s.fail(w, r, fmt.Errorf("%w: unknown export format %q", tailor.ErrInvalidInput, format))
	}
}
