// Package httpapi exposes the session engine over a small JSON API, the Go
// counterpart of the original web chat front ends. The transport carries only
// the UI call contract: prompts out, answers in.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/session"
)

// Server wires the session manager into HTTP handlers.
type Server struct {
	manager *session.Manager
	// defaultJob is used when a create request carries no inline job config.
	defaultJob *jobconfig.JobConfig
	logger     *zap.Logger
}

func NewServer(manager *session.Manager, defaultJob *jobconfig.JobConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{manager: manager, defaultJob: defaultJob, logger: logger}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/answer", s.submitAnswer)
			r.Delete("/", s.cancelSession)
		})
	})

	return r
}

type createSessionRequest struct {
	// Job optionally overrides the server's default job configuration. It is
	// decoded leniently from whatever document the client sent.
	Job map[string]any `json:"job,omitempty"`
}

type turnResponse struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt,omitempty"`
	Done      bool   `json:"done"`
	Report    string `json:"report,omitempty"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	job := s.defaultJob
	if len(req.Job) > 0 {
		decoded, err := jobconfig.FromMap(req.Job)
		if err != nil {
			s.writeManagerError(w, err)
			return
		}
		job = decoded
	}
	if job == nil {
		writeError(w, http.StatusBadRequest, "no job config provided and no default configured")
		return
	}

	id, turn, err := s.manager.Create(job)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, turnResponse{
		SessionID: id,
		Prompt:    turn.Prompt,
		Done:      turn.Done,
		Report:    turn.Report,
	})
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := s.manager.SubmitAnswer(id, req.Answer)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		SessionID: id,
		Prompt:    turn.Prompt,
		Done:      turn.Done,
		Report:    turn.Report,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	state, err := s.manager.GetState(id)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	if err := s.manager.Cancel(id); err != nil {
		s.writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrAlreadyCompleted),
		errors.Is(err, session.ErrNoPendingQuestion),
		errors.Is(err, session.ErrCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, jobconfig.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("unhandled session error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
