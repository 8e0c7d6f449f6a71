package persona

import (
	"strings"
	"testing"

	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/internal/utils"
)

func baseScenario() scenario.Scenario {
	return scenario.Scenario{
		ID:                "scn-1",
		Name:              "Cold Lead Callback",
		ProductType:       "term life insurance",
		Difficulty:        scenario.DifficultyMedium,
		PersonaStyle:      scenario.StyleSkeptical,
		ObjectionPool:     []string{"price", "spouse"},
		Dials:             scenario.BehaviorDials{PushbackIntensity: 8, WillingnessToCommit: 2, InterruptFrequency: 1},
		TrainingObjective: "objection-handling",
		SessionGoal:       scenario.GoalClose,
		Voice:             "alloy",
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	s := baseScenario()
	overrides := scenario.GlobalOverrides{
		ProspectBehavior:  "Mention your kids once.",
		ConversationStyle: "- Sigh audibly when the rep rambles",
	}

	first := BuildPrompt(s, overrides)
	second := BuildPrompt(s, overrides)
	if first != second {
		t.Fatalf("expected byte-identical output for identical inputs")
	}
}

func TestBuildPromptRendersBucketsAndObjections(t *testing.T) {
	prompt := BuildPrompt(baseScenario(), scenario.GlobalOverrides{})

	for _, want := range []string{
		"intense",
		"very unlikely to commit today",
		"rarely interrupt",
		"price",
		"spouse",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
}

func TestBucketBoundariesAreExact(t *testing.T) {
	cases := []struct {
		name   string
		bucket func(int) string
		n      int
		want   string
	}{
		{"pushback 3 is mild", pushbackBucket, 3, "mild"},
		{"pushback 4 is moderate", pushbackBucket, 4, "moderate"},
		{"pushback 6 is moderate", pushbackBucket, 6, "moderate"},
		{"pushback 7 is intense", pushbackBucket, 7, "intense"},
		{"commit 3 is very unlikely", commitBucket, 3, "very unlikely to commit today"},
		{"commit 6 is open", commitBucket, 6, "open to committing if convinced"},
		{"commit 7 is willing", commitBucket, 7, "willing to commit if the rep meets your needs"},
		{"interrupt 2 is rarely", interruptBucket, 2, "rarely interrupt"},
		{"interrupt 5 is occasionally", interruptBucket, 5, "occasionally interrupt when impatient"},
		{"interrupt 6 is frequently", interruptBucket, 6, "frequently interrupt and talk over the rep"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bucket(tc.n); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestEmptyObjectionPoolFallsBackToDefaults(t *testing.T) {
	s := baseScenario()
	s.ObjectionPool = nil

	prompt := BuildPrompt(s, scenario.GlobalOverrides{})
	if !strings.Contains(prompt, "price, need to think about it") {
		t.Fatalf("expected built-in default objections in prompt")
	}
}

func TestFreeTextIsAppendedVerbatim(t *testing.T) {
	s := baseScenario()
	s.ClientDescription = "  Runs a bakery. HATES upsells!!  "
	s.BehaviorNotes = "Never give your email address."
	overrides := scenario.GlobalOverrides{ProspectBehavior: "Ask who gave them your number."}

	prompt := BuildPrompt(s, overrides)
	for _, want := range []string{
		"Runs a bakery. HATES upsells!!",
		"Never give your email address.",
		"Ask who gave them your number.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected verbatim text %q in prompt", want)
		}
	}
}

func TestUnknownStyleFallsBackToNeutral(t *testing.T) {
	s := baseScenario()
	s.PersonaStyle = scenario.PersonaStyle("grumpy")

	prompt := BuildPrompt(s, scenario.GlobalOverrides{})
	if !strings.Contains(prompt, "business-like and professional") {
		t.Fatalf("expected neutral style instructions for unknown style")
	}
}

func TestAppointmentGoalChangesFraming(t *testing.T) {
	s := baseScenario()
	s.SessionGoal = scenario.GoalAppointment
	s.ClientAge = utils.Ptr(52)

	prompt := BuildPrompt(s, scenario.GlobalOverrides{})
	if !strings.Contains(prompt, "set an appointment") {
		t.Fatalf("expected appointment goal framing")
	}
	if !strings.Contains(prompt, "Age: 52 years old.") {
		t.Fatalf("expected age line when client age is set")
	}
}

func TestObjectiveLabelFallsBackToRawTag(t *testing.T) {
	if got := ObjectiveLabel("objection-handling"); got != "Objection Handling" {
		t.Fatalf("expected known label, got %q", got)
	}
	if got := ObjectiveLabel("mystery-skill"); got != "mystery-skill" {
		t.Fatalf("expected raw tag for unknown objective, got %q", got)
	}
}
