// Package store defines the record store the training service persists
// through: sessions, reconciled turns, coaching reports, and the admin-owned
// scenario and override records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Session is one realtime call as persisted. Created when a call begins,
// mutated once when it ends, immutable afterward.
type Session struct {
	ID         string
	UserID     string
	ScenarioID string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// Ended reports whether the session's end timestamp has been set.
func (s Session) Ended() bool {
	return s.EndedAt != nil
}

// Store is the persistence boundary. A report row never exists without an
// ended session; turn rows never exist without a session.
type Store interface {
	CreateSession(ctx context.Context, userID, scenarioID string) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// EndSession sets the end timestamp. Ending an already-ended session is
	// a no-op.
	EndSession(ctx context.Context, sessionID string) error

	// InsertTurns appends the final reconciled transcript, preserving order.
	InsertTurns(ctx context.Context, sessionID string, turns []transcript.Turn) error
	GetTurns(ctx context.Context, sessionID string) ([]transcript.Turn, error)

	// SaveReport is an idempotent upsert keyed by session id: regenerating a
	// report replaces the previous row.
	SaveReport(ctx context.Context, sessionID string, score int, report analysis.CoachingReport) error
	GetReport(ctx context.Context, sessionID string) (analysis.CoachingReport, error)

	GetScenario(ctx context.Context, scenarioID string) (scenario.Scenario, error)
	ListScenarios(ctx context.Context) ([]scenario.Scenario, error)
	UpsertScenario(ctx context.Context, s scenario.Scenario) error

	GetGlobalOverrides(ctx context.Context) (scenario.GlobalOverrides, error)
	SetGlobalOverrides(ctx context.Context, overrides scenario.GlobalOverrides) error
}
