package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertScoreSQL = `INSERT INTO risk_scores (
        country,
        score_date,
        score
    ) VALUES (
        $1,$2,$3
    )
    ON CONFLICT (country, score_date) DO UPDATE
    SET score = EXCLUDED.score;`

	listScoresBetweenSQL = `SELECT
        country,
        score_date,
        score,
        created_at
    FROM risk_scores
    WHERE country = $1
      AND score_date >= $2
      AND score_date < $3
    ORDER BY score_date;`

	listRecentScoresSQL = `SELECT
        country,
        score_date,
        score,
        created_at
    FROM risk_scores
    WHERE country = $1
    ORDER BY score_date DESC
    LIMIT $2;`

	countScoresSQL = `SELECT COUNT(*) FROM risk_scores WHERE country = $1;`

	upsertEventSQL = `INSERT INTO risk_events (
        country,
        event_date,
        score,
        delta,
        dominant
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (country, event_date) DO UPDATE
    SET score    = EXCLUDED.score,
        delta    = EXCLUDED.delta,
        dominant = EXCLUDED.dominant
    RETURNING id, country, event_date, score, delta, dominant, created_at;`

	listRecentEventsSQL = `SELECT
        id,
        country,
        event_date,
        score,
        delta,
        dominant,
        created_at
    FROM risk_events
    WHERE country = $1
    ORDER BY event_date DESC
    LIMIT $2;`

	deleteEventsBeforeSQL = `DELETE FROM risk_events WHERE event_date < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ScoreStore defines operations for risk score persistence.
type ScoreStore interface {
	UpsertScores(ctx context.Context, rows []ScoreRow) error
	ListScoresBetween(ctx context.Context, country string, from, to time.Time) ([]ScoreRow, error)
	ListRecentScores(ctx context.Context, country string, limit int) ([]ScoreRow, error)
	CountScores(ctx context.Context, country string) (int64, error)
}

// EventStore defines operations for event auditing.
type EventStore interface {
	UpsertEvent(ctx context.Context, event EventRow) (EventRow, error)
	ListRecentEvents(ctx context.Context, country string, limit int) ([]EventRow, error)
	DeleteEventsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to risk scores and events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertScores persists the full scored series for a country in one batch.
func (s *Store) UpsertScores(ctx context.Context, rows []ScoreRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertScoreSQL, row.Country, row.ScoreDate, row.Score)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert risk score: %w", execErr)
		}
	}
	return nil
}

// ListScoresBetween lists scores within a date window.
func (s *Store) ListScoresBetween(ctx context.Context, country string, from, to time.Time) ([]ScoreRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listScoresBetweenSQL, country, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list scores between: %w", queryErr)
	}
	defer rows.Close()

	return scanScoreRows(rows, 0)
}

// ListRecentScores lists the most recent scores ordered by descending date.
func (s *Store) ListRecentScores(ctx context.Context, country string, limit int) ([]ScoreRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentScoresSQL, country, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent scores: %w", queryErr)
	}
	defer rows.Close()

	return scanScoreRows(rows, limit)
}

// CountScores counts stored scores for a country.
func (s *Store) CountScores(ctx context.Context, country string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countScoresSQL, country).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count scores: %w", scanErr)
	}
	return count, nil
}

// UpsertEvent persists a detected event.
func (s *Store) UpsertEvent(ctx context.Context, event EventRow) (EventRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return EventRow{}, err
	}

	row := pool.QueryRow(ctx, upsertEventSQL,
		event.Country,
		event.EventDate,
		event.Score,
		event.Delta,
		event.Dominant,
	)

	var rec EventRow
	if scanErr := row.Scan(
		&rec.ID,
		&rec.Country,
		&rec.EventDate,
		&rec.Score,
		&rec.Delta,
		&rec.Dominant,
		&rec.CreatedAt,
	); scanErr != nil {
		return EventRow{}, fmt.Errorf("upsert event: %w", scanErr)
	}
	return rec, nil
}

// ListRecentEvents lists most recent events.
func (s *Store) ListRecentEvents(ctx context.Context, country string, limit int) ([]EventRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentEventsSQL, country, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]EventRow, 0, limit)
	for rows.Next() {
		var rec EventRow
		if err := rows.Scan(
			&rec.ID,
			&rec.Country,
			&rec.EventDate,
			&rec.Score,
			&rec.Delta,
			&rec.Dominant,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// DeleteEventsBefore deletes historical events.
func (s *Store) DeleteEventsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteEventsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete events before: %w", execErr)
	}
	return nil
}

func scanScoreRows(rows pgx.Rows, hint int) ([]ScoreRow, error) {
	scores := make([]ScoreRow, 0, hint)
	for rows.Next() {
		var rec ScoreRow
		if err := rows.Scan(
			&rec.Country,
			&rec.ScoreDate,
			&rec.Score,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		scores = append(scores, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return scores, nil
}
