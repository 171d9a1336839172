// Package match implements the reconciliation engine: similarity
// scoring between spatial parcels and textual land records, candidate
// selection, and confidence classification.
package match

import (
	"fmt"
	"time"
)

// SpatialParcel is a geometry-bearing parcel digitized from survey
// data. Only the attributes used for reconciliation are carried; the
// geometry itself never reaches the engine.
type SpatialParcel struct {
	ID        string  `json:"id"`
	PlotID    string  `json:"plot_id"`
	OwnerName string  `json:"owner_name"`
	Area      float64 `json:"area"` // square meters
}

// TextualRecord is an ownership/area record transcribed from paper
// land registers (jamabandi). Area is declared in square meters after
// upstream unit conversion.
type TextualRecord struct {
	ID        string  `json:"id"`
	PlotID    string  `json:"plot_id"`
	OwnerName string  `json:"owner_name"`
	Area      float64 `json:"area"`
}

// Status is the lifecycle state of a match. The machine assigns
// matched/partial/mismatch; verified and rejected are terminal and
// human-assigned; pending is the entry state for manually created
// matches.
type Status string

const (
	StatusPending  Status = "pending"
	StatusMatched  Status = "matched"
	StatusPartial  Status = "partial"
	StatusMismatch Status = "mismatch"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusMatched, StatusPartial, StatusMismatch,
		StatusVerified, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// Confidence expresses how trustworthy an automated match is. The
// empty value means no confidence has been assigned (manually created
// pending matches).
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Algorithm selects how the total score is computed.
type Algorithm string

const (
	AlgorithmLevenshtein Algorithm = "levenshtein"
	AlgorithmJaroWinkler Algorithm = "jaro_winkler"
	AlgorithmCosine      Algorithm = "cosine"
	AlgorithmCombined    Algorithm = "combined"
)

// ParseAlgorithm validates an algorithm name. The empty string maps
// to the combined default.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "":
		return AlgorithmCombined, nil
	case AlgorithmLevenshtein, AlgorithmJaroWinkler, AlgorithmCosine, AlgorithmCombined:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unknown matching algorithm %q", s)
}

// Scores holds the independent similarity signals for one
// parcel/record pair, each in [0,100] and rounded to two decimals.
type Scores struct {
	NameScore  float64 `json:"name_score"`
	AreaScore  float64 `json:"area_score"`
	IDScore    float64 `json:"id_score"`
	TotalScore float64 `json:"total_score"`
}

// Candidate is the best-scoring textual record found for one spatial
// parcel, already classified. Exactly one Candidate is produced per
// parcel whenever the record pool is non-empty.
type Candidate struct {
	SpatialID string `json:"spatial_id"`
	TextualID string `json:"textual_id"`
	Scores
	Status     Status     `json:"status"`
	Confidence Confidence `json:"confidence,omitempty"`
}

// Match is a persisted reconciliation outcome: a Candidate plus its
// verification lifecycle. Status verified/rejected requires VerifiedBy
// and VerifiedAt; machine-assigned statuses leave them unset. Version
// backs the optimistic concurrency check on verification.
type Match struct {
	ID              string     `json:"id"`
	SpatialID       string     `json:"spatial_id"`
	TextualID       string     `json:"textual_id"`
	NameScore       float64    `json:"name_score"`
	AreaScore       float64    `json:"area_score"`
	IDScore         float64    `json:"id_score"`
	TotalScore      float64    `json:"total_score"`
	Status          Status     `json:"status"`
	Confidence      Confidence `json:"confidence,omitempty"`
	Algorithm       Algorithm  `json:"algorithm,omitempty"`
	VerifiedBy      string     `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Summary aggregates one reconciliation run for the caller's
// reporting layer; the engine itself never interprets it.
type Summary struct {
	TotalParcels   int            `json:"total_parcels"`
	TotalRecords   int            `json:"total_records"`
	ByStatus       map[Status]int `json:"by_status"`
	ProcessingTime time.Duration  `json:"processing_time"`
}

// Result is the output of a reconciliation run.
type Result struct {
	Candidates []Candidate `json:"candidates"`
	Summary    Summary     `json:"summary"`
}
