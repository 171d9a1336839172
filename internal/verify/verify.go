// Package verify implements the human-adjudication lifecycle of a
// match: the transition rules from machine-assigned statuses to the
// terminal verified/rejected states, and the audit trail every
// transition must leave behind.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bhulekh-reconcile/internal/match"
)

var (
	// ErrInvalidTransition signals a verification call against a match
	// already in a terminal state, or an unrecognized target status.
	// The match is left unchanged.
	ErrInvalidTransition = errors.New("invalid match status transition")

	// ErrConcurrentModification signals a verification race lost
	// against another verifier; the caller should re-fetch and retry.
	ErrConcurrentModification = errors.New("match modified concurrently")

	// ErrMatchNotFound signals an unknown match id.
	ErrMatchNotFound = errors.New("match not found")
)

// Entry is the audit record produced by every successful transition.
type Entry struct {
	MatchID     string       `json:"match_id"`
	PriorStatus match.Status `json:"prior_status"`
	NewStatus   match.Status `json:"new_status"`
	Actor       string       `json:"actor"`
	Reason      string       `json:"reason,omitempty"`
	At          time.Time    `json:"at"`
}

// Transition applies a verification outcome to a match in place. Only
// verified and rejected are valid targets, and nothing transitions out
// of a terminal state: verification is final, and a changed outcome
// requires a new reconciliation run and a new match. A rejection
// reason is optional even for rejected. The prior-status precondition
// makes the operation safe to retry after a lost concurrency race.
func Transition(m *match.Match, target match.Status, actor string, at time.Time, reason string) (Entry, error) {
	if target != match.StatusVerified && target != match.StatusRejected {
		return Entry{}, fmt.Errorf("%w: %q is not a verification outcome", ErrInvalidTransition, target)
	}
	if m.Status.Terminal() {
		return Entry{}, fmt.Errorf("%w: match %s is already %s", ErrInvalidTransition, m.ID, m.Status)
	}
	if actor == "" {
		return Entry{}, fmt.Errorf("%w: verification requires an actor", ErrInvalidTransition)
	}

	entry := Entry{
		MatchID:     m.ID,
		PriorStatus: m.Status,
		NewStatus:   target,
		Actor:       actor,
		Reason:      reason,
		At:          at,
	}

	m.Status = target
	m.VerifiedBy = actor
	m.VerifiedAt = &at
	if reason != "" {
		m.RejectionReason = reason
	}
	m.UpdatedAt = at

	return entry, nil
}

// Store is the persistence contract the verifier needs: fetching a
// match and atomically applying a verification under an optimistic
// version check, recording the audit entry in the same transaction.
type Store interface {
	GetMatch(ctx context.Context, id string) (*match.Match, error)
	ApplyVerification(ctx context.Context, m *match.Match, priorVersion int64, entry Entry) error
}

// Verifier applies verification actions against stored matches.
type Verifier struct {
	store Store
	log   zerolog.Logger
}

// NewVerifier creates a verifier.
func NewVerifier(store Store, log zerolog.Logger) *Verifier {
	return &Verifier{store: store, log: log}
}

// Verify transitions the identified match to the target status on
// behalf of an actor. The persistence layer enforces the
// compare-and-swap discipline: a lost race surfaces
// ErrConcurrentModification so the caller can re-fetch and retry.
func (v *Verifier) Verify(ctx context.Context, matchID string, target match.Status, actor string, at time.Time, reason string) (*match.Match, error) {
	m, err := v.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	priorVersion := m.Version
	entry, err := Transition(m, target, actor, at, reason)
	if err != nil {
		return nil, err
	}

	if err := v.store.ApplyVerification(ctx, m, priorVersion, entry); err != nil {
		return nil, err
	}

	v.log.Info().
		Str("match_id", m.ID).
		Str("prior_status", string(entry.PriorStatus)).
		Str("new_status", string(entry.NewStatus)).
		Str("actor", actor).
		Msg("match verification applied")

	return m, nil
}
