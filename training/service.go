// Package training coordinates the persisted lifecycle of a call: session
// records, the persona instructions handed to the realtime transport, and the
// post-call analysis that turns a transcript into a coaching report.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/persona"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/internal/metrics"
	"github.com/callgym/callgym-core/store"
)

// ErrNotOwner is returned when a caller addresses a session that belongs to
// someone else.
var ErrNotOwner = errors.New("session belongs to a different user")

type Service struct {
	store    store.Store
	pipeline *analysis.Pipeline
	clock    func() time.Time
}

type Option func(*Service)

// WithClock injects the time source used for duration accounting.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

func NewService(st store.Store, pipeline *analysis.Pipeline, opts ...Option) *Service {
	s := &Service{
		store:    st,
		pipeline: pipeline,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CallSetup is everything a client needs to run one realtime call: the
// persisted session record and the rendered agent configuration. Instructions
// and Overrides are a use-time snapshot; admin edits after this point do not
// apply to the call.
type CallSetup struct {
	Session      store.Session
	Scenario     scenario.Scenario
	Overrides    scenario.GlobalOverrides
	Instructions string
	Voice        string
}

// StartSession creates the session record and renders the persona prompt for
// its scenario.
func (s *Service) StartSession(ctx context.Context, userID, scenarioID string) (CallSetup, error) {
	ctx, span := tracer.Start(ctx, "start training session")
	defer span.End()
	span.SetAttributes(attribute.String("scenario.id", scenarioID))

	record, err := s.store.GetScenario(ctx, scenarioID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CallSetup{}, err
	}

	overrides, err := s.store.GetGlobalOverrides(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CallSetup{}, fmt.Errorf("failed to snapshot overrides: %w", err)
	}

	session, err := s.store.CreateSession(ctx, userID, scenarioID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CallSetup{}, fmt.Errorf("failed to create session: %w", err)
	}
	span.SetAttributes(attribute.String("session.id", session.ID))
	metrics.RecordSessionStarted()

	return CallSetup{
		Session:      session,
		Scenario:     record,
		Overrides:    overrides,
		Instructions: persona.BuildPrompt(record, overrides),
		Voice:        record.Voice,
	}, nil
}

// EndSession closes the session, persists its reconciled transcript, and runs
// analysis. Ending a session twice does not duplicate turns or re-run
// analysis; the stored report is returned instead.
func (s *Service) EndSession(ctx context.Context, userID, sessionID string, turns []transcript.Turn) (analysis.CoachingReport, error) {
	ctx, span := tracer.Start(ctx, "end training session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return analysis.CoachingReport{}, err
	}
	if session.UserID != userID {
		span.SetStatus(codes.Error, ErrNotOwner.Error())
		return analysis.CoachingReport{}, ErrNotOwner
	}

	if session.Ended() {
		report, err := s.store.GetReport(ctx, sessionID)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return analysis.CoachingReport{}, err
		}
		// Ended but never analyzed; recover from the stored transcript.
		logger.WarnContext(ctx, "regenerating report for ended session", "session_id", sessionID)
		turns, err = s.store.GetTurns(ctx, sessionID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return analysis.CoachingReport{}, err
		}
	} else {
		if err := s.store.EndSession(ctx, sessionID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return analysis.CoachingReport{}, fmt.Errorf("failed to end session: %w", err)
		}
		if err := s.store.InsertTurns(ctx, sessionID, turns); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return analysis.CoachingReport{}, fmt.Errorf("failed to persist transcript: %w", err)
		}
		metrics.RecordSessionEnded(s.clock().Sub(session.StartedAt).Seconds())
	}

	record, err := s.store.GetScenario(ctx, session.ScenarioID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return analysis.CoachingReport{}, err
	}
	overrides, err := s.store.GetGlobalOverrides(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return analysis.CoachingReport{}, fmt.Errorf("failed to snapshot overrides: %w", err)
	}

	report := s.pipeline.Analyze(ctx, turns, record, overrides)
	metrics.RecordReportScore(report.OverallScore)

	if err := s.store.SaveReport(ctx, sessionID, report.OverallScore, report); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return analysis.CoachingReport{}, fmt.Errorf("failed to save report: %w", err)
	}
	return report, nil
}

// Report fetches a previously generated coaching report, enforcing ownership.
func (s *Service) Report(ctx context.Context, userID, sessionID string) (analysis.CoachingReport, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return analysis.CoachingReport{}, err
	}
	if session.UserID != userID {
		return analysis.CoachingReport{}, ErrNotOwner
	}
	return s.store.GetReport(ctx, sessionID)
}

// ListScenarios exposes the scenario catalogue for pickers.
func (s *Service) ListScenarios(ctx context.Context) ([]scenario.Scenario, error) {
	return s.store.ListScenarios(ctx)
}
