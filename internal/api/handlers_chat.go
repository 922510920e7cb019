package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/profilex/internal/chat"
	"github.com/dgallion1/profilex/internal/llm"
)

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	resp, err := s.chat.Chat(r.Context(), req.Messages)
	if err != nil {
		s.log.Error("chat.failed", "error", err, "kind", llm.KindOf(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTool invokes the extraction tool directly. A failed run answers 502
// with the tool result as body.
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
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

	res := s.tools.Invoke(r.Context(), args)
	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, res)
}
