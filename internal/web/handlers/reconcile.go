package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bhulekh-reconcile/internal/config"
	"github.com/bhulekh-reconcile/internal/match"
	"github.com/bhulekh-reconcile/internal/store"
)

// ReconcileHandler runs reconciliation and reports run statistics.
type ReconcileHandler struct {
	Store    *store.Store
	Matching config.MatchingConfig
	Log      zerolog.Logger
}

// reconcileRequest selects the data and tunes the run. Zero values
// fall back to the configured defaults.
type reconcileRequest struct {
	Village          string  `json:"village,omitempty"`
	Algorithm        string  `json:"algorithm,omitempty"`
	AreaTolerancePct float64 `json:"area_tolerance_pct,omitempty"`
}

// reconcileResponse reports one run: the persisted matches and the
// aggregate counts the reporting layer consumes.
type reconcileResponse struct {
	TotalParcels     int           `json:"total_parcels"`
	TotalRecords     int           `json:"total_records"`
	MatchesFound     int           `json:"matches_found"`
	PartialMatches   int           `json:"partial_matches"`
	Mismatches       int           `json:"mismatches"`
	ProcessingTimeMS int64         `json:"processing_time_ms"`
	Matches          []match.Match `json:"matches"`
}

// Run handles POST /api/reconcile: it loads parcels and textual
// records, runs the matching engine, persists one new match per
// candidate and returns the outcome.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	algorithm, err := match.ParseAlgorithm(req.Algorithm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	parcels, err := h.Store.Parcels(ctx, req.Village)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to load parcels")
		writeError(w, http.StatusInternalServerError, "failed to load parcels")
		return
	}

	records, err := h.Store.TextRecords(ctx, req.Village)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to load text records")
		writeError(w, http.StatusInternalServerError, "failed to load text records")
		return
	}

	engine := match.NewEngine(
		h.Matching.Scorer(algorithm, req.AreaTolerancePct),
		h.Matching.Classifier(),
		h.Matching.Workers,
	)
	result := engine.Run(parcels, records)

	matches, err := h.Store.InsertMatches(ctx, algorithm, result.Candidates)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to store matches")
		writeError(w, http.StatusInternalServerError, "failed to store matches")
		return
	}

	h.Log.Info().
		Str("algorithm", string(algorithm)).
		Int("parcels", result.Summary.TotalParcels).
		Int("records", result.Summary.TotalRecords).
		Int("candidates", len(result.Candidates)).
		Dur("duration", result.Summary.ProcessingTime).
		Msg("reconciliation run completed")

	writeJSON(w, http.StatusOK, reconcileResponse{
		TotalParcels:     result.Summary.TotalParcels,
		TotalRecords:     result.Summary.TotalRecords,
		MatchesFound:     result.Summary.ByStatus[match.StatusMatched],
		PartialMatches:   result.Summary.ByStatus[match.StatusPartial],
		Mismatches:       result.Summary.ByStatus[match.StatusMismatch],
		ProcessingTimeMS: result.Summary.ProcessingTime.Milliseconds(),
		Matches:          matches,
	})
}

// Stats handles GET /api/reconcile/stats.
func (h *ReconcileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.StatusCounts(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to load match statistics")
		writeError(w, http.StatusInternalServerError, "failed to load statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
