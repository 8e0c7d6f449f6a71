package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	session "github.com/callgym/callgym-core/core"
	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/llms"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/store/memory"
	"github.com/callgym/callgym-core/training"
)

const wellFormedReport = `{
	"summary": "ok",
	"overall_score": 80,
	"strengths": [],
	"areas_to_improve": [],
	"objections_detected": [],
	"missed_opportunities": [],
	"drills": [
		{"title": "A", "description": "a", "goal": "a"},
		{"title": "B", "description": "b", "goal": "b"},
		{"title": "C", "description": "c", "goal": "c"}
	],
	"next_session_plan": "more"
}`

type generatorStub struct{}

func (generatorStub) PromptJSON(context.Context, string, ...llms.StructuredPromptOption) (string, error) {
	return wellFormedReport, nil
}

type fakeCall struct {
	ended bool
	turns []transcript.Turn
}

func (c *fakeCall) End()                         { c.ended = true }
func (c *fakeCall) State() session.State         { return session.StateConnected }
func (c *fakeCall) Transcript() []transcript.Turn { return c.turns }

func newTestModel(t *testing.T) (Model, *fakeCall) {
	t.Helper()
	st := memory.NewStore()
	if err := st.UpsertScenario(context.Background(), scenario.Scenario{
		ID:   "scn-1",
		Name: "Cold Lead Callback",
	}); err != nil {
		t.Fatalf("failed to seed scenario: %v", err)
	}
	svc := training.NewService(st, analysis.NewPipeline(generatorStub{}))

	call := &fakeCall{turns: []transcript.Turn{{Speaker: transcript.SpeakerRep, Text: "Hi."}}}
	start := func(context.Context, training.CallSetup, func(tea.Msg)) (Call, error) {
		return call, nil
	}
	return New(svc, start, "user-1"), call
}

func startedModel(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.startCallCmd("scn-1")
	msg := cmd()
	started, ok := msg.(callStartedMsg)
	if !ok {
		t.Fatalf("expected callStartedMsg, got %T", msg)
	}
	next, _ := m.Update(started)
	return next.(Model)
}

func TestStartCallSwitchesToCallScreen(t *testing.T) {
	m, _ := newTestModel(t)
	m = startedModel(t, m)

	if m.screen != screenCall {
		t.Fatalf("expected call screen, got %v", m.screen)
	}
	if m.setup.Session.ID == "" {
		t.Fatalf("expected a persisted session")
	}
}

func TestTranscriptMessagesAccumulate(t *testing.T) {
	m, _ := newTestModel(t)
	m = startedModel(t, m)

	next, _ := m.Update(RepLineMsg{Text: "Hi, this is Alex."})
	m = next.(Model)
	next, _ = m.Update(ProspectDeltaMsg{Delta: "Who is"})
	m = next.(Model)
	next, _ = m.Update(ProspectDeltaMsg{Delta: " this?"})
	m = next.(Model)
	if m.partial != "Who is this?" {
		t.Fatalf("expected partial text accumulated, got %q", m.partial)
	}

	next, _ = m.Update(ProspectLineMsg{Text: "Who is this?"})
	m = next.(Model)
	if m.partial != "" {
		t.Fatalf("expected partial cleared on final text")
	}
	if len(m.entries) != 2 || m.entries[1].speaker != transcript.SpeakerProspect {
		t.Fatalf("unexpected entries: %v", m.entries)
	}
}

func TestEndCallProducesReport(t *testing.T) {
	m, call := newTestModel(t)
	m = startedModel(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected an end-call command")
	}

	msg := cmd()
	ready, ok := msg.(reportReadyMsg)
	if !ok {
		t.Fatalf("expected reportReadyMsg, got %T: %v", msg, msg)
	}
	if !call.ended {
		t.Fatalf("expected the live call torn down before analysis")
	}

	next, _ = m.Update(ready)
	m = next.(Model)
	if m.screen != screenReport || m.report == nil || m.report.OverallScore != 80 {
		t.Fatalf("expected report screen with the generated report")
	}
}

func TestCallErrorSurfacesWithoutEnding(t *testing.T) {
	m, call := newTestModel(t)
	m = startedModel(t, m)

	next, _ := m.Update(CallErrorMsg{Err: context.DeadlineExceeded})
	m = next.(Model)
	if m.errorMessage == "" {
		t.Fatalf("expected the error surfaced")
	}
	if m.screen != screenCall || call.ended {
		t.Fatalf("a protocol error must not end the call")
	}
}
