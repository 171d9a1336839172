package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bhulekh-reconcile/internal/match"
	"github.com/bhulekh-reconcile/internal/store"
	"github.com/bhulekh-reconcile/internal/verify"
)

// MatchesHandler serves stored matches and the verification entry
// point.
type MatchesHandler struct {
	Store    *store.Store
	Verifier *verify.Verifier
	Log      zerolog.Logger
}

// List handles GET /api/matches with status/confidence filters and
// pagination.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := store.MatchFilter{
		Status:     query.Get("status"),
		Confidence: query.Get("confidence"),
		Limit:      parseIntParam(query.Get("limit"), 100),
		Offset:     parseIntParam(query.Get("offset"), 0),
	}

	if filter.Status != "" {
		if _, err := match.ParseStatus(filter.Status); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	matches, err := h.Store.ListMatches(r.Context(), filter)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to list matches")
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []match.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// Get handles GET /api/matches/{id}.
func (h *MatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	m, err := h.Store.GetMatch(r.Context(), id)
	if errors.Is(err, verify.ErrMatchNotFound) {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Str("match_id", id).Msg("failed to get match")
		writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// History handles GET /api/matches/{id}/history, returning the
// verification audit trail.
func (h *MatchesHandler) History(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entries, err := h.Store.AuditTrail(r.Context(), id)
	if err != nil {
		h.Log.Error().Err(err).Str("match_id", id).Msg("failed to get audit trail")
		writeError(w, http.StatusInternalServerError, "failed to get audit trail")
		return
	}
	if entries == nil {
		entries = []verify.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// verifyRequest carries a human verification outcome.
type verifyRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// Verify handles POST /api/matches/{id}/verify. The acting user is
// identified by the X-Actor-ID header; who is authorized to set it is
// the access-control layer's concern.
func (h *MatchesHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	actor := r.Header.Get("X-Actor-ID")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "X-Actor-ID header is required")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := match.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.Verifier.Verify(r.Context(), id, target, actor, time.Now().UTC(), req.RejectionReason)
	switch {
	case errors.Is(err, verify.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, "match not found")
		return
	case errors.Is(err, verify.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, verify.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "match was modified concurrently, re-fetch and retry")
		return
	case err != nil:
		h.Log.Error().Err(err).Str("match_id", id).Msg("failed to verify match")
		writeError(w, http.StatusInternalServerError, "failed to verify match")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// parseIntParam parses an integer query parameter with a default.
func parseIntParam(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
