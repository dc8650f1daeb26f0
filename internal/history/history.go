// Package history keeps an append-only SQLite ledger of playback attempts.
// The daemon feeds it from the player's outcome hook and prunes it on a
// retention schedule.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/earconlabs/earcon/internal/errors"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/pkg/earcon"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Record is one playback attempt as stored in the ledger.
type Record struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Set    string    `json:"set,omitempty"`
	Name   string    `json:"name"`
	Ext    string    `json:"ext,omitempty"`
	OK     bool      `json:"ok"`
	Reason string    `json:"reason,omitempty"`
	Source string    `json:"source,omitempty"`
}

// FromOutcome builds a ledger record from a player outcome. The caller
// supplies the source tag (api, binding, cli).
func FromOutcome(out earcon.Outcome, source string) *Record {
	return &Record{
		ID:     uuid.New().String(),
		At:     time.Now().UTC(),
		Kind:   string(out.Locator.Kind),
		Set:    string(out.Locator.Set),
		Name:   out.Locator.Name,
		Ext:    string(out.Locator.Ext),
		OK:     out.OK,
		Reason: string(out.Reason),
		Source: source,
	}
}

// Store provides SQLite-backed persistence for the playback ledger.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open creates the ledger database at path, configuring WAL mode and
// running the schema migration.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if log != nil {
		log.Info("playback ledger opened", "path", path)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// recordColumns is the ordered list of columns selected in ledger queries.
// Must match the scan order in scanRecord.
const recordColumns = `id, played_at, kind, set_name, name, ext, ok, reason, source`

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var r Record
	var (
		playedAt string
		ok       int
	)

	err := scanner.Scan(
		&r.ID,
		&playedAt,
		&r.Kind,
		&r.Set,
		&r.Name,
		&r.Ext,
		&ok,
		&r.Reason,
		&r.Source,
	)
	if err != nil {
		return nil, err
	}

	r.At, err = parseTime(playedAt)
	if err != nil {
		return nil, err
	}
	r.OK = ok != 0
	return &r, nil
}

// Append inserts a record. IDs are assigned by the caller (FromOutcome).
func (s *Store) Append(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback_events (
			id, played_at, kind, set_name, name, ext, ok, reason, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		formatTime(rec.At),
		rec.Kind,
		rec.Set,
		rec.Name,
		rec.Ext,
		boolToInt(rec.OK),
		rec.Reason,
		rec.Source,
	)
	if err != nil {
		return fmt.Errorf("append playback record: %w", err)
	}
	return nil
}

// ListParams narrows a List call.
type ListParams struct {
	Limit        int
	Offset       int
	OnlyFailures bool
}

// List returns records, newest first.
func (s *Store) List(ctx context.Context, params ListParams) ([]*Record, error) {
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + recordColumns + ` FROM playback_events`
	if params.OnlyFailures {
		query += ` WHERE ok = 0`
	}
	query += ` ORDER BY played_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Get retrieves one record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM playback_events WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("playback record %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Prune deletes records older than the cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM playback_events WHERE played_at < ?`, formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune playback records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if s.log != nil && n > 0 {
		s.log.Info("pruned playback records", "count", n, "olderThan", olderThan)
	}
	return n, nil
}

// Stats summarizes the ledger.
type Stats struct {
	Total    int64            `json:"total"`
	Failures int64            `json:"failures"`
	ByReason map[string]int64 `json:"byReason"`
}

// Stats counts totals, failures and the failure breakdown by reason.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByReason: make(map[string]int64)}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), 0) FROM playback_events`)
	if err := row.Scan(&stats.Total, &stats.Failures); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT reason, COUNT(*) FROM playback_events WHERE ok = 0 GROUP BY reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var count int64
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, err
		}
		stats.ByReason[reason] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
