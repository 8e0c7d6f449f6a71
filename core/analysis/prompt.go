package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/callgym/callgym-core/core/persona"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
)

const coachSystemPrompt = "You are an expert sales coach. Return only valid JSON, no markdown."

// buildPrompt renders the analysis request deterministically: same
// transcript, scenario, and overrides snapshot always produce the same
// request text.
func buildPrompt(turns []transcript.Turn, s scenario.Scenario, overrides scenario.GlobalOverrides) string {
	var b strings.Builder

	b.WriteString("You are an expert sales coach analyzing a training call transcript.\n\n")
	fmt.Fprintf(&b, "SCENARIO: %s\n", s.Name)
	fmt.Fprintf(&b, "PRODUCT: %s\n", s.ProductType)
	b.WriteString(goalContext(s.SessionGoal))
	b.WriteString("\n\n")

	b.WriteString("TRAINING OBJECTIVE — WEIGHT SCORING HERE:\n")
	fmt.Fprintf(&b, "The primary skill being trained this session is: %q\n", persona.ObjectiveLabel(s.TrainingObjective))
	b.WriteString("When scoring this call, give significantly higher weight to how well the rep performed in this specific area. Strengths, areas to improve, missed opportunities, and drills should all be oriented toward this objective where relevant.\n")

	if notes := strings.TrimSpace(overrides.CoachingNotes); notes != "" {
		b.WriteString("\nADDITIONAL COACHING INSTRUCTIONS (apply to every session report):\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}

	if script := strings.TrimSpace(s.SalesScript); script != "" {
		b.WriteString("\nSALES SCRIPT — EVALUATE ADHERENCE:\n")
		b.WriteString("The following is the approved sales script/talk track for this scenario. Score how closely the rep followed this general flow, key questions, and word tracks. They do NOT need to follow it word-for-word, but should hit the main points, use similar language, and follow the general structure.\n\n")
		b.WriteString(script)
		b.WriteString("\n\nInclude \"script_adherence_score\" (0-100) and \"script_adherence_notes\" (2-3 sentences explaining what they followed well and what they missed or skipped from the script). Also reference the script in strengths, areas_to_improve, and drills where relevant.\n")
	}

	if guidance := objectionGuidance(overrides.ObjectionResponses); guidance != "" {
		b.WriteString(guidance)
	}

	b.WriteString("\nTRANSCRIPT:\n")
	b.WriteString(renderTranscript(turns))
	b.WriteString("\n\n")

	b.WriteString(`Analyze this sales call and return a JSON coaching report. You MUST return valid JSON only — no markdown, no code blocks, no extra text.

Requirements for the report:
- "summary": a 3-5 sentence paragraph covering the context of the call, how the prospect responded overall, and whether the rep achieved the session goal. Be specific to THIS call, not generic.
- "overall_score": integer 0-100, weighted heavily toward performance on the training objective.
- "strengths": 2-4 entries, each 2-3 sentences quoting the rep's exact words from the transcript and explaining why they were effective.
- "areas_to_improve": 2-4 entries, each 2-3 sentences quoting the rep's exact words and explaining the risk or impact.
- "objections_detected": each with the objection type, occurrence count, an exact transcript quote, and a handling_score from 0-10.
- "missed_opportunities": each with a description and the relevant transcript quote.
- "drills": return exactly 3. Each MUST reference a specific moment from the transcript, quote the rep's actual words that need improvement, and include an example_script with a word-for-word alternative the rep should practice. Do NOT give generic advice — say exactly WHAT to say and WHEN. If approved objection responses were provided above, use them as the basis for example_scripts when relevant.
- "next_session_plan": concrete focus areas and goals for the next training session, tied to the training objective.`)

	return b.String()
}

func goalContext(goal scenario.SessionGoal) string {
	if goal == scenario.GoalAppointment {
		return "The rep's goal was to SET AN APPOINTMENT for a follow-up meeting."
	}
	return "The rep's goal was to CLOSE the sale on this call."
}

// objectionGuidance renders the approved objection responses, keyed by
// non-empty entries only, in sorted order so the request stays reproducible.
func objectionGuidance(responses map[string]string) string {
	objections := make([]string, 0, len(responses))
	for objection, response := range responses {
		if strings.TrimSpace(response) != "" {
			objections = append(objections, objection)
		}
	}
	if len(objections) == 0 {
		return ""
	}
	sort.Strings(objections)

	var b strings.Builder
	b.WriteString("\nAPPROVED OBJECTION RESPONSES — USE THESE IN FEEDBACK:\n")
	b.WriteString("When the rep encounters these objections, evaluate whether they used language similar to the approved responses below. Reference these in your feedback, drills, and example scripts. If the rep handled an objection poorly, show them the suggested response.\n\n")
	for i, objection := range objections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Objection: %q\nSuggested Response: %q", objection, responses[objection])
	}
	b.WriteString("\n")
	return b.String()
}

func renderTranscript(turns []transcript.Turn) string {
	if len(turns) == 0 {
		return "(No transcript recorded)"
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := "PROSPECT"
		if turn.Speaker == transcript.SpeakerRep {
			speaker = "REP"
		}
		lines = append(lines, speaker+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}
