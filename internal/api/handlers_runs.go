package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/chat"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleSubmitRun queues an extraction. The body takes the same strict
// arguments as the tool.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	args, err := chat.ParseArgs(body)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := s.jobs.Submit(args.ProfileURL, browser.Credentials{Email: args.Email, Password: args.Password})
	if err != nil {
		if job == nil {
			writeError(w, err)
			return
		}
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/runs/%s", job.ID),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleResolveChallenge(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err := job.ResolveChallenge(); err != nil {
		if errors.Is(err, pipeline.ErrNotAwaitingChallenge) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "resumed": true})
}
