package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provider":     s.cfg.ModelProvider,
		"model":        s.cfg.ModelName(),
		"stats":        s.stats.Snapshot(),
		"by_operation": s.stats.ByOperation(),
	})
}
