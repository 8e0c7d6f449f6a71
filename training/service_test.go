package training

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/llms"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/store"
	"github.com/callgym/callgym-core/store/memory"
)

const wellFormedReport = `{
	"summary": "Solid discovery, weak close.",
	"overall_score": 72,
	"strengths": ["rapport"],
	"areas_to_improve": ["closing"],
	"objections_detected": [],
	"missed_opportunities": [],
	"drills": [
		{"title": "A", "description": "a", "goal": "a"},
		{"title": "B", "description": "b", "goal": "b"},
		{"title": "C", "description": "c", "goal": "c"}
	],
	"next_session_plan": "Practice closes."
}`

type generatorStub struct {
	calls    int
	response string
	err      error
}

func (g *generatorStub) PromptJSON(_ context.Context, _ string, _ ...llms.StructuredPromptOption) (string, error) {
	g.calls++
	return g.response, g.err
}

func newService(t *testing.T, generator *generatorStub) (*Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	if err := st.UpsertScenario(context.Background(), scenario.Scenario{
		ID:          "scn-1",
		Name:        "Cold Lead Callback",
		ProductType: "life insurance",
		Voice:       "verse",
	}); err != nil {
		t.Fatalf("failed to seed scenario: %v", err)
	}
	return NewService(st, analysis.NewPipeline(generator)), st
}

func TestStartSessionRendersSetup(t *testing.T) {
	svc, _ := newService(t, &generatorStub{response: wellFormedReport})

	setup, err := svc.StartSession(context.Background(), "user-1", "scn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup.Session.ID == "" || setup.Session.UserID != "user-1" {
		t.Fatalf("unexpected session record: %+v", setup.Session)
	}
	if setup.Voice != "verse" {
		t.Fatalf("expected the scenario voice, got %q", setup.Voice)
	}
	if !strings.Contains(setup.Instructions, "life insurance") {
		t.Fatalf("expected persona instructions to mention the product")
	}
}

func TestStartSessionUnknownScenario(t *testing.T) {
	svc, _ := newService(t, &generatorStub{response: wellFormedReport})

	if _, err := svc.StartSession(context.Background(), "user-1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEndSessionAnalyzesAndPersists(t *testing.T) {
	generator := &generatorStub{response: wellFormedReport}
	svc, st := newService(t, generator)

	setup, _ := svc.StartSession(context.Background(), "user-1", "scn-1")
	turns := []transcript.Turn{
		{Speaker: transcript.SpeakerProspect, Text: "Hello?"},
		{Speaker: transcript.SpeakerRep, Text: "Hi, this is Alex."},
	}

	report, err := svc.EndSession(context.Background(), "user-1", setup.Session.ID, turns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverallScore != 72 {
		t.Fatalf("expected generated report, got %+v", report)
	}

	stored, err := st.GetReport(context.Background(), setup.Session.ID)
	if err != nil || stored.OverallScore != 72 {
		t.Fatalf("expected report persisted, got %+v err %v", stored, err)
	}
	session, _ := st.GetSession(context.Background(), setup.Session.ID)
	if !session.Ended() {
		t.Fatalf("expected session marked ended")
	}
	persisted, _ := st.GetTurns(context.Background(), setup.Session.ID)
	if len(persisted) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(persisted))
	}
}

func TestEndSessionTwiceReturnsStoredReport(t *testing.T) {
	generator := &generatorStub{response: wellFormedReport}
	svc, st := newService(t, generator)

	setup, _ := svc.StartSession(context.Background(), "user-1", "scn-1")
	turns := []transcript.Turn{{Speaker: transcript.SpeakerRep, Text: "Hi."}}

	if _, err := svc.EndSession(context.Background(), "user-1", setup.Session.ID, turns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := svc.EndSession(context.Background(), "user-1", setup.Session.ID, turns)
	if err != nil {
		t.Fatalf("unexpected error on duplicate end: %v", err)
	}
	if again.OverallScore != 72 {
		t.Fatalf("expected stored report, got %+v", again)
	}
	if generator.calls != 1 {
		t.Fatalf("expected analysis to run once, ran %d times", generator.calls)
	}
	persisted, _ := st.GetTurns(context.Background(), setup.Session.ID)
	if len(persisted) != 1 {
		t.Fatalf("expected turns persisted once, got %d", len(persisted))
	}
}

func TestEndSessionRejectsForeignSession(t *testing.T) {
	svc, _ := newService(t, &generatorStub{response: wellFormedReport})

	setup, _ := svc.StartSession(context.Background(), "user-1", "scn-1")
	if _, err := svc.EndSession(context.Background(), "user-2", setup.Session.ID, nil); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestEndSessionFallsBackOnGeneratorFailure(t *testing.T) {
	svc, _ := newService(t, &generatorStub{err: errors.New("provider down")})

	setup, _ := svc.StartSession(context.Background(), "user-1", "scn-1")
	report, err := svc.EndSession(context.Background(), "user-1", setup.Session.ID, nil)
	if err != nil {
		t.Fatalf("analysis failure must not fail the end call, got %v", err)
	}
	if report.OverallScore != 50 || len(report.Drills) != 3 {
		t.Fatalf("expected the fallback report, got %+v", report)
	}
}

func TestReportEnforcesOwnership(t *testing.T) {
	svc, _ := newService(t, &generatorStub{response: wellFormedReport})

	setup, _ := svc.StartSession(context.Background(), "user-1", "scn-1")
	if _, err := svc.EndSession(context.Background(), "user-1", setup.Session.ID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Report(context.Background(), "user-2", setup.Session.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	report, err := svc.Report(context.Background(), "user-1", setup.Session.ID)
	if err != nil || report.OverallScore != 72 {
		t.Fatalf("expected owner to read the report, got %+v err %v", report, err)
	}
}
