// Package store persists parcels, textual records, reconciliation
// matches and the verification audit trail in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/bhulekh-reconcile/internal/config"
	"github.com/bhulekh-reconcile/internal/match"
	"github.com/bhulekh-reconcile/internal/verify"
)

// Store wraps the database connection.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and tunes the connection pool.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS parcels (
			id            text PRIMARY KEY,
			plot_id       text NOT NULL,
			owner_name    text NOT NULL,
			area_sqm      numeric(15,4) NOT NULL,
			village       text,
			khata_number  text,
			khasra_number text,
			created_at    timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS text_records (
			id            text PRIMARY KEY,
			plot_id       text NOT NULL,
			owner_name    text NOT NULL,
			area_declared numeric(15,4) NOT NULL,
			village       text,
			khata_number  text,
			khasra_number text,
			created_at    timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id               text PRIMARY KEY,
			parcel_id        text NOT NULL,
			text_record_id   text NOT NULL,
			name_score       numeric(5,2) NOT NULL,
			area_score       numeric(5,2) NOT NULL,
			id_score         numeric(5,2) NOT NULL,
			total_score      numeric(5,2) NOT NULL,
			status           text NOT NULL,
			confidence       text,
			algorithm        text,
			verified_by      text,
			verified_at      timestamptz,
			rejection_reason text,
			version          bigint NOT NULL DEFAULT 1,
			created_at       timestamptz NOT NULL,
			updated_at       timestamptz NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches (status)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_parcel ON matches (parcel_id)`,
		`CREATE TABLE IF NOT EXISTS match_audit (
			audit_id     bigserial PRIMARY KEY,
			match_id     text NOT NULL,
			prior_status text NOT NULL,
			new_status   text NOT NULL,
			actor        text NOT NULL,
			reason       text,
			created_at   timestamptz NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_audit_match ON match_audit (match_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Parcels loads spatial parcels, optionally filtered by village.
func (s *Store) Parcels(ctx context.Context, village string) ([]match.SpatialParcel, error) {
	query := `SELECT id, plot_id, owner_name, area_sqm FROM parcels`
	var args []interface{}
	if village != "" {
		query += ` WHERE village = $1`
		args = append(args, village)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels: %w", err)
	}
	defer rows.Close()

	var parcels []match.SpatialParcel
	for rows.Next() {
		var p match.SpatialParcel
		if err := rows.Scan(&p.ID, &p.PlotID, &p.OwnerName, &p.Area); err != nil {
			return nil, fmt.Errorf("failed to scan parcel: %w", err)
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

// TextRecords loads textual records, optionally filtered by village.
func (s *Store) TextRecords(ctx context.Context, village string) ([]match.TextualRecord, error) {
	query := `SELECT id, plot_id, owner_name, area_declared FROM text_records`
	var args []interface{}
	if village != "" {
		query += ` WHERE village = $1`
		args = append(args, village)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query text records: %w", err)
	}
	defer rows.Close()

	var records []match.TextualRecord
	for rows.Next() {
		var r match.TextualRecord
		if err := rows.Scan(&r.ID, &r.PlotID, &r.OwnerName, &r.Area); err != nil {
			return nil, fmt.Errorf("failed to scan text record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertMatches stores the candidates of one reconciliation run as new
// match rows. Re-running reconciliation always produces new rows; the
// caller owns any deduplication policy.
func (s *Store) InsertMatches(ctx context.Context, algorithm match.Algorithm, candidates []match.Candidate) ([]match.Match, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	matches := make([]match.Match, 0, len(candidates))

	for _, c := range candidates {
		m := match.Match{
			ID:         uuid.NewString(),
			SpatialID:  c.SpatialID,
			TextualID:  c.TextualID,
			NameScore:  c.NameScore,
			AreaScore:  c.AreaScore,
			IDScore:    c.IDScore,
			TotalScore: c.TotalScore,
			Status:     c.Status,
			Confidence: c.Confidence,
			Algorithm:  algorithm,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO matches (
				id, parcel_id, text_record_id,
				name_score, area_score, id_score, total_score,
				status, confidence, algorithm, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, m.ID, m.SpatialID, m.TextualID,
			m.NameScore, m.AreaScore, m.IDScore, m.TotalScore,
			string(m.Status), nullable(string(m.Confidence)), string(m.Algorithm),
			m.Version, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert match: %w", err)
		}

		matches = append(matches, m)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit matches: %w", err)
	}
	return matches, nil
}

// GetMatch fetches a single match by id.
func (s *Store) GetMatch(ctx context.Context, id string) (*match.Match, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, parcel_id, text_record_id,
			name_score, area_score, id_score, total_score,
			status, confidence, algorithm,
			verified_by, verified_at, rejection_reason,
			version, created_at, updated_at
		FROM matches WHERE id = $1
	`, id)

	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, verify.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// MatchFilter restricts ListMatches.
type MatchFilter struct {
	Status     string
	Confidence string
	Limit      int
	Offset     int
}

// ListMatches returns matches newest first, filtered and paginated.
func (s *Store) ListMatches(ctx context.Context, filter MatchFilter) ([]match.Match, error) {
	query := `
		SELECT id, parcel_id, text_record_id,
			name_score, area_score, id_score, total_score,
			status, confidence, algorithm,
			verified_by, verified_at, rejection_reason,
			version, created_at, updated_at
		FROM matches WHERE 1=1`

	var args []interface{}
	argIndex := 1
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.Confidence != "" {
		query += fmt.Sprintf(" AND confidence = $%d", argIndex)
		args = append(args, filter.Confidence)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// ApplyVerification persists a verification outcome under an
// optimistic version check and records the audit entry in the same
// transaction. A version mismatch on an existing match surfaces
// verify.ErrConcurrentModification.
func (s *Store) ApplyVerification(ctx context.Context, m *match.Match, priorVersion int64, entry verify.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE matches
		SET status = $2, verified_by = $3, verified_at = $4,
			rejection_reason = $5, version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $7
	`, m.ID, string(m.Status), m.VerifiedBy, m.VerifiedAt,
		nullable(m.RejectionReason), m.UpdatedAt, priorVersion)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check match existence: %w", err)
		}
		if exists {
			return verify.ErrConcurrentModification
		}
		return verify.ErrMatchNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO match_audit (match_id, prior_status, new_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.MatchID, string(entry.PriorStatus), string(entry.NewStatus),
		entry.Actor, nullable(entry.Reason), entry.At); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}

	m.Version = priorVersion + 1
	return nil
}

// AuditTrail returns the verification history of a match, newest first.
func (s *Store) AuditTrail(ctx context.Context, matchID string) ([]verify.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, prior_status, new_status, actor, COALESCE(reason, ''), created_at
		FROM match_audit
		WHERE match_id = $1
		ORDER BY created_at DESC, audit_id DESC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []verify.Entry
	for rows.Next() {
		var e verify.Entry
		var prior, next string
		if err := rows.Scan(&e.MatchID, &prior, &next, &e.Actor, &e.Reason, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.PriorStatus = match.Status(prior)
		e.NewStatus = match.Status(next)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes stored matches for the reporting layer.
type Stats struct {
	Total        int            `json:"total_matches"`
	ByStatus     map[string]int `json:"by_status"`
	AverageScore float64        `json:"average_score"`
}

// StatusCounts aggregates match counts per status and the average
// total score.
func (s *Store) StatusCounts(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM matches GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(total_score), 0) FROM matches`).Scan(&stats.AverageScore); err != nil {
		return nil, fmt.Errorf("failed to query average score: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*match.Match, error) {
	var m match.Match
	var status, algorithm string
	var confidence, verifiedBy, reason sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.SpatialID, &m.TextualID,
		&m.NameScore, &m.AreaScore, &m.IDScore, &m.TotalScore,
		&status, &confidence, &algorithm,
		&verifiedBy, &verifiedAt, &reason,
		&m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = match.Status(status)
	m.Algorithm = match.Algorithm(algorithm)
	if confidence.Valid {
		m.Confidence = match.Confidence(confidence.String)
	}
	if verifiedBy.Valid {
		m.VerifiedBy = verifiedBy.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		m.VerifiedAt = &t
	}
	if reason.Valid {
		m.RejectionReason = reason.String
	}
	return &m, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
