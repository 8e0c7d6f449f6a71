package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/store"
)

func seedScenario(t *testing.T, s *Store) scenario.Scenario {
	t.Helper()
	record := scenario.Scenario{ID: "scn-1", Name: "Cold Lead Callback"}
	if err := s.UpsertScenario(context.Background(), record); err != nil {
		t.Fatalf("failed to seed scenario: %v", err)
	}
	return record
}

func TestCreateSessionRequiresScenario(t *testing.T) {
	s := NewStore()

	if _, err := s.CreateSession(context.Background(), "user-1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEndSessionSetsTimestampOnce(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewStore(WithClock(func() time.Time { return now }))
	seedScenario(t, s)

	session, err := s.CreateSession(context.Background(), "user-1", "scn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Ended() {
		t.Fatalf("expected new session to be open")
	}

	firstEnd := now.Add(time.Minute)
	now = firstEnd
	if err := s.EndSession(context.Background(), session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A duplicate end must not move the timestamp.
	now = now.Add(time.Hour)
	if err := s.EndSession(context.Background(), session.ID); err != nil {
		t.Fatalf("expected duplicate end to be a no-op, got %v", err)
	}

	stored, err := s.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.EndedAt == nil || !stored.EndedAt.Equal(firstEnd) {
		t.Fatalf("expected end timestamp %v, got %v", firstEnd, stored.EndedAt)
	}
}

func TestInsertAndReadTurnsPreservesOrder(t *testing.T) {
	s := NewStore()
	seedScenario(t, s)
	session, _ := s.CreateSession(context.Background(), "user-1", "scn-1")

	turns := []transcript.Turn{
		{Speaker: transcript.SpeakerProspect, Text: "Hello?"},
		{Speaker: transcript.SpeakerRep, Text: "Hi, this is Alex."},
	}
	if err := s.InsertTurns(context.Background(), session.ID, turns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := s.GetTurns(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 || stored[0].Text != "Hello?" || stored[1].Text != "Hi, this is Alex." {
		t.Fatalf("unexpected turns: %v", stored)
	}
}

func TestSaveReportUpserts(t *testing.T) {
	s := NewStore()
	seedScenario(t, s)
	session, _ := s.CreateSession(context.Background(), "user-1", "scn-1")

	first := analysis.CoachingReport{Summary: "first run", OverallScore: 40}
	if err := s.SaveReport(context.Background(), session.ID, first.OverallScore, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := analysis.CoachingReport{Summary: "second run", OverallScore: 70}
	if err := s.SaveReport(context.Background(), session.ID, second.OverallScore, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := s.GetReport(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Summary != "second run" || stored.OverallScore != 70 {
		t.Fatalf("expected the most recent report to win, got %+v", stored)
	}
}

func TestGetReportMissing(t *testing.T) {
	s := NewStore()

	if _, err := s.GetReport(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGlobalOverridesAreSnapshotted(t *testing.T) {
	s := NewStore()

	original := scenario.GlobalOverrides{
		CoachingNotes:      "be strict",
		ObjectionResponses: map[string]string{"price": "value framing"},
	}
	if err := s.SetGlobalOverrides(context.Background(), original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := s.GetGlobalOverrides(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the returned copy must not leak into the stored record.
	snapshot.ObjectionResponses["price"] = "mutated"

	again, _ := s.GetGlobalOverrides(context.Background())
	if again.ObjectionResponses["price"] != "value framing" {
		t.Fatalf("expected stored overrides unchanged, got %q", again.ObjectionResponses["price"])
	}
}

func TestUpsertScenarioAssignsID(t *testing.T) {
	s := NewStore()

	if err := s.UpsertScenario(context.Background(), scenario.Scenario{Name: "No ID"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scenarios, err := s.ListScenarios(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].ID == "" {
		t.Fatalf("expected one scenario with a generated id, got %v", scenarios)
	}
}
