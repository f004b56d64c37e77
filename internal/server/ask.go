package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/veridianlabs/lexrag/internal/rag"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

// Asker is the query service consumed by the HTTP layer.
type Asker interface {
	Ask(ctx context.Context, req *rag.AskRequest) (*rag.Answer, error)
	AskStream(ctx context.Context, req *rag.AskRequest, emit rag.EmitFunc) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleAsk serves POST /api/ask. With stream=false it replies with one JSON
// answer; with stream=true it replies with newline-delimited StagedEvent
// records. Validation failures are rejected before any store interaction.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req rag.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.audit.LogQueryRequest(req.Query, req.K, req.Rerank, req.Stream)
	start := time.Now()

	if req.Stream {
		s.streamAsk(w, r, &req, start)
		return
	}

	ans, err := s.asker.Ask(r.Context(), &req)
	if err != nil {
		s.queryError(w, err)
		return
	}
	s.metrics.RecordQuery(false, len(ans.Contexts) == 0, nil, time.Since(start))
	s.audit.LogQueryAnswer(time.Since(start), len(ans.Answer), len(ans.Contexts))
	writeJSON(w, http.StatusOK, ans)
}

// streamAsk writes staged events as NDJSON, flushing after every event so
// first-token latency is not hidden by buffering. A dropped client cancels
// the request context, which stops token emission.
func (s *Server) streamAsk(w http.ResponseWriter, r *http.Request, req *rag.AskRequest, start time.Time) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	s.metrics.ActiveStreams.Inc()
	defer s.metrics.ActiveStreams.Dec()

	enc := json.NewEncoder(w)
	var answerLen, contextCount, tokens int
	err := s.asker.AskStream(r.Context(), req, func(ev rag.StagedEvent) error {
		if ev.Stage == rag.StageToken {
			tokens++
		} else {
			answerLen = len(ev.Data)
			contextCount = len(ev.Contexts)
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	s.metrics.TokensStreamedTotal.Add(float64(tokens))

	if err != nil {
		// Headers are gone; all that is left is to log and account.
		s.metrics.RecordQuery(true, false, err, time.Since(start))
		s.audit.LogQueryError(err)
		s.logger.Error("streaming query failed", "error", err)
		return
	}
	s.metrics.RecordQuery(true, contextCount == 0, nil, time.Since(start))
	s.audit.LogQueryAnswer(time.Since(start), answerLen, contextCount)
}

func (s *Server) queryError(w http.ResponseWriter, err error) {
	s.metrics.QueryErrorsTotal.Inc()
	s.audit.LogQueryError(err)
	s.logger.Error("query failed", "error", err)

	status := http.StatusInternalServerError
	if errors.Is(err, vectorstore.ErrUnavailable) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var _ Asker = (*rag.Service)(nil)
