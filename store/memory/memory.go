// Package memory is an in-process record store used by tests and by the
// terminal client when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	sessions  map[string]store.Session
	turns     map[string][]transcript.Turn
	reports   map[string]analysis.CoachingReport
	scenarios map[string]scenario.Scenario
	overrides scenario.GlobalOverrides

	now func() time.Time
}

type Option func(*Store)

// WithClock injects the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:  map[string]store.Session{},
		turns:     map[string][]transcript.Turn{},
		reports:   map[string]analysis.CoachingReport{},
		scenarios: map[string]scenario.Scenario{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreateSession(_ context.Context, userID, scenarioID string) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenarios[scenarioID]; !ok {
		return store.Session{}, fmt.Errorf("scenario %q: %w", scenarioID, store.ErrNotFound)
	}

	session := store.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ScenarioID: scenarioID,
		StartedAt:  s.now(),
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return store.Session{}, fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}
	return session, nil
}

func (s *Store) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}
	if session.EndedAt != nil {
		return nil
	}

	endedAt := s.now()
	session.EndedAt = &endedAt
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) InsertTurns(_ context.Context, sessionID string, turns []transcript.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}

	s.turns[sessionID] = append(s.turns[sessionID], turns...)
	return nil
}

func (s *Store) GetTurns(_ context.Context, sessionID string) ([]transcript.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]transcript.Turn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	return turns, nil
}

func (s *Store) SaveReport(_ context.Context, sessionID string, _ int, report analysis.CoachingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session %q: %w", sessionID, store.ErrNotFound)
	}

	s.reports[sessionID] = report
	return nil
}

func (s *Store) GetReport(_ context.Context, sessionID string) (analysis.CoachingReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[sessionID]
	if !ok {
		return analysis.CoachingReport{}, fmt.Errorf("report for session %q: %w", sessionID, store.ErrNotFound)
	}
	return report, nil
}

func (s *Store) GetScenario(_ context.Context, scenarioID string) (scenario.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.scenarios[scenarioID]
	if !ok {
		return scenario.Scenario{}, fmt.Errorf("scenario %q: %w", scenarioID, store.ErrNotFound)
	}
	return record, nil
}

func (s *Store) ListScenarios(_ context.Context) ([]scenario.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scenarios := make([]scenario.Scenario, 0, len(s.scenarios))
	for _, record := range s.scenarios {
		scenarios = append(scenarios, record)
	}
	return scenarios, nil
}

func (s *Store) UpsertScenario(_ context.Context, record scenario.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.scenarios[record.ID] = record
	return nil
}

func (s *Store) GetGlobalOverrides(_ context.Context) (scenario.GlobalOverrides, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.overrides.Snapshot(), nil
}

func (s *Store) SetGlobalOverrides(_ context.Context, overrides scenario.GlobalOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides = overrides.Snapshot()
	return nil
}
