package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/memory"
	"github.com/wardenhq/warden/internal/policy"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if r.URL.Query().Get("detail") == "true" {
		resp["components"] = map[string]string{
			"graph":       s.graphURI,
			"memory_mode": s.memoryMode,
			"namespace":   s.namespace,
			"user_id":     s.userID,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type declareRequest struct {
	Text string `json:"text"`
}

// handleDeclareConstraint parses a free-text declaration into a typed
// constraint and persists it memory-first, then mirrors it into the graph.
// A parse failure is the caller's problem (400 with a corrective example);
// an upstream write failure is ours (502, nothing partially acknowledged).
func (s *Server) handleDeclareConstraint(w http.ResponseWriter, r *http.Request) {
	var req declareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	con, err := policy.ParseConstraint(req.Text)
	if err != nil {
		var perr *policy.ParseError
		if errors.As(err, &perr) {
			writeError(w, http.StatusBadRequest, perr.Code, perr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rec := con.Record()
	if err := s.store.Put(r.Context(), s.userID, rec); err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Str("constraint_id", con.ID).Msg("constraint_store_error")
		writeError(w, upstreamStatus(err), "memory_unavailable", "failed to persist constraint")
		return
	}
	if err := s.facts.UpsertConstraint(r.Context(), s.userID, con); err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Str("constraint_id", con.ID).Msg("constraint_mirror_error")
		writeError(w, http.StatusBadGateway, "graph_unavailable", "constraint stored but not yet mirrored to the graph")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"constraint": rec,
	})
}

func (s *Server) handleListConstraints(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context(), s.userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Msg("constraint_list_error")
		writeError(w, upstreamStatus(err), "memory_unavailable", "failed to list constraints")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"constraints": records,
		"count":       len(records),
	})
}

type evaluateRequest struct {
	Text string `json:"text"`
}

// handleEvaluateAction runs one request through the firewall. The decision
// is only returned once the action and any violation edges are durably in
// the graph; an upstream failure yields 502 and no partial decision.
func (s *Server) handleEvaluateAction(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	records, err := s.store.List(r.Context(), s.userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Msg("constraint_list_error")
		writeError(w, upstreamStatus(err), "memory_unavailable", "failed to load constraints")
		return
	}

	decision, err := s.engine.Evaluate(r.Context(), s.userID, req.Text, records)
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Msg("evaluate_error")
		writeError(w, http.StatusBadGateway, "graph_unavailable", "failed to evaluate action")
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	actionID := chi.URLParam(r, "id")
	explanations, err := s.facts.ExplainViolations(r.Context(), s.userID, actionID)
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Str("action_id", actionID).Msg("explain_error")
		writeError(w, http.StatusBadGateway, "graph_unavailable", "failed to query violations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"action_id":  actionID,
		"violations": explanations,
	})
}

// upstreamStatus maps a memory store failure to a status: the remote
// service being unreachable is a gateway problem, anything else is ours.
func upstreamStatus(err error) int {
	if errors.Is(err, memory.ErrUnavailable) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
