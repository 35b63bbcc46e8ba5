package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/tailor"
)

type questionsRequest struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	// LogID picks company and role from an application log entry.
	LogID    string `json:"log_id"`
	Count    int    `json:"count"`
	Research bool   `json:"research"`
	Provider string `json:"provider"`
}

type questionsResponse struct {
	*tailor.QuestionsResult
	Researched bool `json:"researched"`
}

func (s *Server) handleInterviewQuestions(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.get(w, r)

	var req questionsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if id := strings.TrimSpace(req.LogID); id != "" {
		entry, err := s.deps.Store.LogEntry(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		req.Company, req.Role = entry.Company, entry.JobTitle
	}

	var webContext string
	if req.Research && s.deps.Research != nil && (strings.TrimSpace(req.Company) != "" || strings.TrimSpace(req.Role) != "") {
		webContext = s.deps.Research.ResearchInterview(r.Context(), req.Company, req.Role)
		s.logger.Debug("interview research", zap.Bool("found", webContext != ""))
	}

	res, err := s.deps.Tailor.Questions(r.Context(), session, tailor.QuestionsRequest{
		Company:    req.Company,
		Role:       req.Role,
		Count:      req.Count,
		WebContext: webContext,
		Provider:   req.Provider,
	})
	if err != nil {
		s.failDispatch(w, r, session, err)
		return
	}

	writeJSON(w, http.StatusOK, questionsResponse{QuestionsResult: res, Researched: webContext != ""})
}

type rateRequest struct {
	Company  string `json:"company"`
	Role     string `json:"role"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Provider string `json:"provider"`
}

func (s *Server) handleInterviewRate(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.get(w, r)

	var req rateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.deps.Tailor.Rate(r.Context(), session, tailor.RateRequest(req))
	if err != nil {
		s.failDispatch(w, r, session, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
