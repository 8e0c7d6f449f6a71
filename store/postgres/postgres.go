// Package postgres is the production record store, backed by pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pool to the given database and verifies it is
// reachable.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) CreateSession(ctx context.Context, userID, scenarioID string) (store.Session, error) {
	if _, err := s.GetScenario(ctx, scenarioID); err != nil {
		return store.Session{}, err
	}

	session := store.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ScenarioID: scenarioID,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, scenario_id) VALUES ($1, $2, $3) RETURNING started_at`,
		session.ID, userID, scenarioID,
	).Scan(&session.StartedAt)
	if err != nil {
		return store.Session{}, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (store.Session, error) {
	var session store.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, scenario_id, started_at, ended_at FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&session.ID, &session.UserID, &session.ScenarioID, &session.StartedAt, &session.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Session{}, fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	return session, nil
}

func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET ended_at = now() WHERE id = $1 AND ended_at IS NULL`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already ended (fine) or missing (not fine).
		if _, err := s.GetSession(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) InsertTurns(ctx context.Context, sessionID string, turns []transcript.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, turn := range turns {
		batch.Queue(
			`INSERT INTO turns (session_id, position, speaker, text) VALUES ($1, $2, $3, $4)`,
			sessionID, i, string(turn.Speaker), turn.Text,
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert turns: %w", err)
	}
	return nil
}

func (s *Store) GetTurns(ctx context.Context, sessionID string) ([]transcript.Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT speaker, text FROM turns WHERE session_id = $1 ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}
	defer rows.Close()

	var turns []transcript.Turn
	for rows.Next() {
		var speaker string
		var turn transcript.Turn
		if err := rows.Scan(&speaker, &turn.Text); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Speaker = transcript.Speaker(speaker)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (s *Store) SaveReport(ctx context.Context, sessionID string, score int, report analysis.CoachingReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (session_id, score, report) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET score = EXCLUDED.score, report = EXCLUDED.report, created_at = now()`,
		sessionID, score, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, sessionID string) (analysis.CoachingReport, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM reports WHERE session_id = $1`,
		sessionID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return analysis.CoachingReport{}, fmt.Errorf("report for session %q: %w", sessionID, store.ErrNotFound)
	}
	if err != nil {
		return analysis.CoachingReport{}, fmt.Errorf("failed to read report: %w", err)
	}

	var report analysis.CoachingReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return analysis.CoachingReport{}, fmt.Errorf("failed to decode report: %w", err)
	}
	return report, nil
}

func (s *Store) GetScenario(ctx context.Context, scenarioID string) (scenario.Scenario, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM scenarios WHERE id = $1`,
		scenarioID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return scenario.Scenario{}, fmt.Errorf("scenario %q: %w", scenarioID, store.ErrNotFound)
	}
	if err != nil {
		return scenario.Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}

	var record scenario.Scenario
	if err := json.Unmarshal(payload, &record); err != nil {
		return scenario.Scenario{}, fmt.Errorf("failed to decode scenario: %w", err)
	}
	return record, nil
}

func (s *Store) ListScenarios(ctx context.Context) ([]scenario.Scenario, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []scenario.Scenario
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		var record scenario.Scenario
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("failed to decode scenario: %w", err)
		}
		scenarios = append(scenarios, record)
	}
	return scenarios, rows.Err()
}

func (s *Store) UpsertScenario(ctx context.Context, record scenario.Scenario) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenarios (id, name, payload) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, payload = EXCLUDED.payload, updated_at = now()`,
		record.ID, record.Name, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scenario: %w", err)
	}
	return nil
}

func (s *Store) GetGlobalOverrides(ctx context.Context) (scenario.GlobalOverrides, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM global_overrides WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return scenario.GlobalOverrides{}, nil
	}
	if err != nil {
		return scenario.GlobalOverrides{}, fmt.Errorf("failed to read overrides: %w", err)
	}

	var overrides scenario.GlobalOverrides
	if err := json.Unmarshal(payload, &overrides); err != nil {
		return scenario.GlobalOverrides{}, fmt.Errorf("failed to decode overrides: %w", err)
	}
	return overrides, nil
}

func (s *Store) SetGlobalOverrides(ctx context.Context, overrides scenario.GlobalOverrides) error {
	payload, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO global_overrides (id, payload) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save overrides: %w", err)
	}
	return nil
}
