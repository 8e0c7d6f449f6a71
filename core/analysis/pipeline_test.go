package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/callgym/callgym-core/core/llms"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
)

type generatorStub struct {
	content string
	err     error

	prompt  string
	options llms.StructuredPromptOptions
	calls   int
}

func (g *generatorStub) PromptJSON(_ context.Context, prompt string, opts ...llms.StructuredPromptOption) (string, error) {
	g.calls++
	g.prompt = prompt
	g.options = llms.StructuredPromptOptions{}
	for _, opt := range opts {
		opt(&g.options)
	}
	return g.content, g.err
}

func testScenario() scenario.Scenario {
	return scenario.Scenario{
		ID:                "scn-1",
		Name:              "Cold Lead Callback",
		ProductType:       "term life insurance",
		TrainingObjective: "objection-handling",
		SessionGoal:       scenario.GoalClose,
	}
}

func testTranscript() []transcript.Turn {
	return []transcript.Turn{
		{Speaker: transcript.SpeakerRep, Text: "Hi there"},
		{Speaker: transcript.SpeakerProspect, Text: "Who is this"},
	}
}

func validReportJSON(t *testing.T, score int) string {
	t.Helper()
	report := CoachingReport{
		Summary:        "A call happened.",
		OverallScore:   score,
		Strengths:      []string{"Opened warmly", "Asked for the close"},
		AreasToImprove: []string{"Rushed discovery", "Talked over the prospect"},
		Drills: []Drill{
			{Title: "A", Description: "a", Goal: "g"},
			{Title: "B", Description: "b", Goal: "g"},
			{Title: "C", Description: "c", Goal: "g"},
		},
		NextSessionPlan: "Slow down.",
	}
	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("failed to marshal test report: %v", err)
	}
	return string(raw)
}

func TestAnalyzeReturnsParsedReport(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 82)}
	pipeline := NewPipeline(generator)

	report := pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})

	if report.OverallScore != 82 {
		t.Fatalf("expected parsed score 82, got %d", report.OverallScore)
	}
	if len(report.Drills) != 3 {
		t.Fatalf("expected 3 drills, got %d", len(report.Drills))
	}
	if generator.calls != 1 {
		t.Fatalf("expected exactly one generation call, got %d", generator.calls)
	}
}

func TestAnalyzeRequestsLowTemperatureAndSchema(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 70)}
	pipeline := NewPipeline(generator)

	pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})

	if generator.options.Temperature == nil || *generator.options.Temperature != DefaultTemperature {
		t.Fatalf("expected default temperature %v, got %v", DefaultTemperature, generator.options.Temperature)
	}
	if generator.options.OutputSchema == nil || generator.options.SchemaName != "CoachingReport" {
		t.Fatalf("expected a CoachingReport output schema to be requested")
	}
	if generator.options.Instructions == "" {
		t.Fatalf("expected a system prompt to be set")
	}
}

func TestAnalyzeFallsBackOnGeneratorError(t *testing.T) {
	generator := &generatorStub{err: errors.New("non-OK HTTP status: 502 Bad Gateway")}
	pipeline := NewPipeline(generator)

	report := pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})

	assertFallback(t, report)
}

func TestAnalyzeFallsBackOnNonJSON(t *testing.T) {
	generator := &generatorStub{content: "I'm sorry, I can't help with that."}
	pipeline := NewPipeline(generator)

	report := pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})

	assertFallback(t, report)
}

func TestAnalyzeFallsBackOnWrongShape(t *testing.T) {
	for _, content := range []string{
		`[1, 2, 3]`,
		`{"random": true}`,
		`{"summary": "ok", "overall_score": 80, "drills": []}`,
		`{"summary": "ok", "overall_score": 300, "drills": [{}, {}, {}]}`,
	} {
		generator := &generatorStub{content: content}
		pipeline := NewPipeline(generator)

		report := pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})
		assertFallback(t, report)
	}
}

func TestAnalyzeDefaultsMissingScoreToFifty(t *testing.T) {
	content := `{"summary": "fine call", "drills": [{"title":"A"},{"title":"B"},{"title":"C"}]}`
	generator := &generatorStub{content: content}
	pipeline := NewPipeline(generator)

	report := pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})

	if report.OverallScore != 50 {
		t.Fatalf("expected omitted overall_score to default to 50, got %d", report.OverallScore)
	}
	if report.Summary != "fine call" {
		t.Fatalf("expected other fields passed through, got %q", report.Summary)
	}
}

func TestPromptIncludesObjectiveGoalAndTranscript(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 60)}
	pipeline := NewPipeline(generator)

	pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})

	for _, want := range []string{
		"Objection Handling",
		"CLOSE the sale",
		"REP: Hi there",
		"PROSPECT: Who is this",
	} {
		if !strings.Contains(generator.prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
}

func TestPromptMarksEmptyTranscript(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 60)}
	pipeline := NewPipeline(generator)

	pipeline.Analyze(context.Background(), nil, testScenario(), scenario.GlobalOverrides{})

	if !strings.Contains(generator.prompt, "(No transcript recorded)") {
		t.Fatalf("expected explicit empty-transcript marker")
	}
}

func TestPromptIncludesScriptBlockOnlyWhenScriptExists(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 60)}
	pipeline := NewPipeline(generator)

	pipeline.Analyze(context.Background(), testTranscript(), testScenario(), scenario.GlobalOverrides{})
	if strings.Contains(generator.prompt, "script_adherence_score") {
		t.Fatalf("expected no script adherence block without a sales script")
	}

	s := testScenario()
	s.SalesScript = "1. Introduce yourself. 2. Confirm the inquiry."
	pipeline.Analyze(context.Background(), testTranscript(), s, scenario.GlobalOverrides{})
	if !strings.Contains(generator.prompt, "script_adherence_score") {
		t.Fatalf("expected script adherence block when a sales script exists")
	}
	if !strings.Contains(generator.prompt, "Confirm the inquiry.") {
		t.Fatalf("expected the script text to appear in the prompt")
	}
}

func TestPromptFiltersEmptyObjectionResponses(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 60)}
	pipeline := NewPipeline(generator)

	overrides := scenario.GlobalOverrides{
		ObjectionResponses: map[string]string{
			"price":         "Let's talk about what your family gets for that.",
			"need to think": "   ",
		},
	}
	pipeline.Analyze(context.Background(), testTranscript(), testScenario(), overrides)

	if !strings.Contains(generator.prompt, "what your family gets") {
		t.Fatalf("expected non-empty objection response in prompt")
	}
	if strings.Contains(generator.prompt, "need to think") {
		t.Fatalf("expected blank objection responses to be filtered out")
	}
}

func TestCoachingNotesAreIncluded(t *testing.T) {
	generator := &generatorStub{content: validReportJSON(t, 60)}
	pipeline := NewPipeline(generator)

	overrides := scenario.GlobalOverrides{CoachingNotes: "Grade tonality harshly."}
	pipeline.Analyze(context.Background(), testTranscript(), testScenario(), overrides)

	if !strings.Contains(generator.prompt, "Grade tonality harshly.") {
		t.Fatalf("expected coaching notes in prompt")
	}
}

func TestFallbackReportShape(t *testing.T) {
	report := FallbackReport("Cold Lead Callback")

	assertFallback(t, report)
	if !strings.Contains(report.Summary, "Cold Lead Callback") {
		t.Fatalf("expected fallback summary to reference the scenario name")
	}
	if len(report.ObjectionsDetected) != 0 || len(report.MissedOpportunities) != 0 {
		t.Fatalf("expected fallback report to carry no objections or missed opportunities")
	}
}

func assertFallback(t *testing.T, report CoachingReport) {
	t.Helper()
	if report.OverallScore != 50 {
		t.Fatalf("expected fallback score 50, got %d", report.OverallScore)
	}
	if len(report.Drills) != 3 {
		t.Fatalf("expected fallback report to carry exactly 3 drills, got %d", len(report.Drills))
	}
	if report.Drills[0].Title != "Mirror & Label" {
		t.Fatalf("expected the fixed fallback drills, got %q", report.Drills[0].Title)
	}
}
