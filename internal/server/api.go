package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/document"
	"github.com/spigell/job-bot/internal/jobpost"
	"github.com/spigell/job-bot/internal/resumeparse"
	"github.com/spigell/job-bot/internal/store"
	"github.com/spigell/job-bot/internal/tailor"
)

type providerView struct {
	dispatch.Provider
	Configured    bool       `json:"configured"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

type providersResponse struct {
	Providers       []providerView `json:"providers"`
	RecentlyLimited []string       `json:"recently_limited"`
	KeyNames        []string       `json:"key_names"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.get(w, r)
	creds := session.Credentials()
	now := s.now()

	registry := s.deps.Dispatcher.Registry()
	views := make([]providerView, 0, len(registry.All()))
	for _, p := range registry.All() {
		view := providerView{Provider: p, Configured: creds.Get(p.ID) != ""}
		if until, ok := session.CooldownUntil(p.ID, now); ok {
			view.CooldownUntil = &until
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, providersResponse{
		Providers:       views,
		RecentlyLimited: session.RecentlyLimited(),
		KeyNames:        registry.KeyNames(),
	})
}

type keysRequest struct {
	Keys map[string]string `json:"keys"`
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	known := s.deps.Dispatcher.Registry().KeyNames()
	for name := range req.Keys {
		if !slices.Contains(known, name) {
			s.fail(w, r, fmt.Errorf("%w: unknown key name %q", tailor.ErrInvalidInput, name))
			return
		}
	}

	if err := s.deps.Store.SetUserKeys(req.Keys); err != nil {
		s.fail(w, r, err)
		return
	}
	s.sessions.refresh()

	s.handleProviders(w, r)
}

type scoreRequest struct {
	Resume   string `json:"resume"`
	Job      string `json:"job"`
	Provider string `json:"provider"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.get(w, r)

	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.deps.Tailor.Score(r.Context(), session, tailor.ScoreRequest{
		Resume:   s.resumeText(req.Resume),
		Job:      req.Job,
		Provider: req.Provider,
	})
	if err != nil {
		s.failDispatch(w, r, session, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type tailorRequest struct {
	Resume      string   `json:"resume"`
	Job         string   `json:"job"`
	JobTitle    string   `json:"job_title"`
	Temperature *float64 `json:"temperature"`
	Provider    string   `json:"provider"`
	Condense    bool     `json:"condense"`
	Score       *int     `json:"score"`
}

type tailorResponse struct {
	*tailor.TailorResult
	Company string `json:"company"`
	Slug    string `json:"slug"`
}

func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.get(w, r)

	var req tailorRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	temperature := tailor.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	res, err := s.deps.Tailor.Tailor(r.Context(), session, tailor.TailorRequest{
		Resume:      s.resumeText(req.Resume),
		Job:         req.Job,
		Temperature: temperature,
		Provider:    req.Provider,
	})
	if err != nil {
		s.failDispatch(w, r, session, err)
		return
	}
	if req.Condense {
		res.Resume = tailor.Condense(res.Resume)
	}

	lines := jobpost.Lines(req.Job)
	company := jobpost.CompanyName(lines)
	slug := jobpost.SlugFromLines(lines)

	err = s.deps.Store.UpsertHistory(store.HistoryEntry{
		Company:  company,
		Slug:     slug,
		JobTitle: strings.TrimSpace(req.JobTitle),
		Score:    req.Score,
		Data:     res.Resume,
	})
	if err != nil {
		s.logger.Warn("could not save tailoring history", zap.String("slug", slug), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, tailorResponse{TailorResult: res, Company: company, Slug: slug})
}

// resumeText falls back to the saved master resume when the request carries none.
func (s *Server) resumeText(text string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	if master, ok := s.deps.Store.MasterResume(); ok {
		return master.Text
	}
	return ""
}

type resumeResponse struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	master, ok := s.deps.Store.MasterResume()
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: no master resume saved", store.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, resumeResponse{Name: master.Name, Text: master.Text})
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: expected a multipart upload in field \"file\": %v", tailor.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: read upload: %v", tailor.ErrInvalidInput, err))
		return
	}

	text, err := resumeparse.Extract(data, header.Filename)
	if err != nil {
		if !errors.Is(err, resumeparse.ErrUnsupportedFormat) {
			err = fmt.Errorf("%w: %v", tailor.ErrInvalidInput, err)
		}
		s.fail(w, r, err)
		return
	}

	if err := s.deps.Store.SetMasterResume(store.MasterResume{Name: header.Filename, Text: text, Data: data}); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("master resume saved", zap.String("name", header.Filename), zap.Int("length", len([]rune(text))))

	writeJSON(w, http.StatusOK, resumeResponse{Name: header.Filename, Text: text})
}

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	Text    string `json:"text"`
	Company string `json:"company"`
	Slug    string `json:"slug"`
}

func (s *Server) handleFetchJob(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	text, err := s.deps.Jobs.Fetch(r.Context(), req.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	lines := jobpost.Lines(text)
	writeJSON(w, http.StatusOK, fetchResponse{
		Text:    text,
		Company: jobpost.CompanyName(lines),
		Slug:    jobpost.SlugFromLines(lines),
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var resume ai.TailoredResume
	if err := decodeBody(w, r, &resume); err != nil {
		s.fail(w, r, err)
		return
	}

	slug := "tailored"
	if q := strings.TrimSpace(r.URL.Query().Get("slug")); q != "" {
		slug = jobpost.Slug(q)
	}

	s.renderResume(w, r, &resume, slug, r.PathValue("format"))
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	history := s.deps.Store.History()
	if history == nil {
		history = []store.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleHistoryDocument(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	history := s.deps.Store.History()
	idx := slices.IndexFunc(history, func(e store.HistoryEntry) bool { return e.Slug == slug })
	if idx < 0 {
		s.fail(w, r, fmt.Errorf("%w: no history entry %q", store.ErrNotFound, slug))
		return
	}

	entry := history[idx]
	if entry.Data == nil {
		s.fail(w, r, fmt.Errorf("%w: history entry %q has no resume data", store.ErrNotFound, slug))
		return
	}

	s.renderResume(w, r, entry.Data, slug, r.PathValue("format"))
}

func (s *Server) renderResume(w http.ResponseWriter, r *http.Request, resume *ai.TailoredResume, slug, format string) {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch format {
	case "docx":
		data, err = document.BuildDOCX(resume)
		contentType = document.DOCXContentType
	case "pdf":
		data, err = document.BuildPDF(resume)
		contentType = document.PDFContentType
	default:
		s.fail(w, r, fmt.Errorf("%w: unknown document format %q", tailor.ErrInvalidInput, format))
		return
	}
	if err != nil {
		s.fail(w, r, fmt.Errorf("build %s: %w", format, err))
		return
	}

	writeFile(w, contentType, fmt.Sprintf("resume_%s.%s", slug, format), data)
}
