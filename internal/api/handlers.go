package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/service"
)

// maxRequestBody caps request bodies at 1 MiB.
const maxRequestBody = 1 << 20

type askRequest struct {
	Question string `json:"question"`
}

type askHistoryRequest struct {
	Question string              `json:"question"`
	History  []conversation.Turn `json:"history,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type loadRequest struct {
	Paths []string `json:"paths"`
}

type structuredRequest struct {
	Question string          `json:"question"`
	Format   json.RawMessage `json:"format"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.Ask(ctx, req.Question))
}

func (s *Server) handleAskWithHistory(w http.ResponseWriter, r *http.Request) {
	var req askHistoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.AskWithHistory(ctx, req.Question, req.History))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.Search(ctx, req.Query, req.Limit))
}

func (s *Server) handleLoadDocuments(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.LoadDocuments(ctx, req.Paths))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.ListDocuments(ctx))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	source := r.URL.Query().Get("source")
	writeJSON(w, http.StatusOK, s.svc.DeleteBySource(ctx, source))
}

func (s *Server) handleStructured(w http.ResponseWriter, r *http.Request) {
	var req structuredRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.GetStructured(ctx, req.Question, string(req.Format)))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.Stats(ctx))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, s.svc.Reset(ctx))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ClearHistory())
}

// decodeJSON strictly decodes one JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	// Trailing content after the object is also malformed.
	if dec.More() {
		return errors.New("invalid request body: unexpected trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, service.Envelope{Success: false, Error: err.Error()})
}
