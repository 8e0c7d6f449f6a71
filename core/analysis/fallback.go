package analysis

import "fmt"

// FallbackReport is the fixed, deterministic report returned whenever
// automated analysis cannot be completed. The caller must always receive a
// well-formed report, so this path never fails.
func FallbackReport(scenarioName string) CoachingReport {
	return CoachingReport{
		Summary:        fmt.Sprintf("Training session for scenario %q completed. Analysis could not be generated automatically.", scenarioName),
		OverallScore:   50,
		Strengths:      []string{"Completed the session"},
		AreasToImprove: []string{"Review the transcript manually for improvement areas"},

		ObjectionsDetected:  []ObjectionDetected{},
		MissedOpportunities: []MissedOpportunity{},

		Drills: []Drill{
			{
				Title:         "Mirror & Label",
				Description:   "Practice repeating the last 3 words your prospect says and labeling their emotions.",
				Goal:          "Build rapport and show empathy",
				ExampleScript: "It sounds like you're feeling uncertain about the timing. Tell me more about what's holding you back.",
			},
			{
				Title:         "Objection Pivot",
				Description:   "Write down 5 common objections and practice pivoting each to a question.",
				Goal:          "Handle objections without getting defensive",
				ExampleScript: "I completely understand that concern. Let me ask you this — if we could find a plan that fits your budget, would that change how you feel about moving forward today?",
			},
			{
				Title:         "The Silence Game",
				Description:   "After presenting value, stay silent for 10 seconds. Practice not filling the void.",
				Goal:          "Let prospects talk and reveal their real concerns",
				ExampleScript: "So based on everything we've discussed, this plan gives your family real protection for a predictable monthly cost. [PAUSE — wait for prospect to respond]",
			},
		},

		NextSessionPlan: "Focus on listening more actively and handling the prospect's objections before attempting to close.",
	}
}
