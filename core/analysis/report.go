// Package analysis turns a finished call transcript into a strictly-typed
// coaching report via a non-deterministic text generator, falling back to a
// deterministic report whenever the generator cannot be trusted.
package analysis

// CoachingReport is the structured coaching output for one session. It is
// produced exactly once per session termination and upserted keyed by the
// session id, so regeneration replaces rather than duplicates.
type CoachingReport struct {
	Summary        string   `json:"summary"`
	OverallScore   int      `json:"overall_score"`
	Strengths      []string `json:"strengths"`
	AreasToImprove []string `json:"areas_to_improve"`

	ObjectionsDetected  []ObjectionDetected `json:"objections_detected"`
	MissedOpportunities []MissedOpportunity `json:"missed_opportunities"`
	Drills              []Drill             `json:"drills"`

	// Script adherence is only requested (and only expected back) when the
	// scenario carries a non-empty talk track.
	ScriptAdherenceScore *int   `json:"script_adherence_score,omitempty"`
	ScriptAdherenceNotes string `json:"script_adherence_notes,omitempty"`

	NextSessionPlan string `json:"next_session_plan"`
}

// ObjectionDetected is one sales-resistance theme the prospect raised,
// with how well the rep handled it.
type ObjectionDetected struct {
	Objection      string `json:"objection"`
	Count          int    `json:"count"`
	ExampleSnippet string `json:"example_snippet"`
	HandlingScore  int    `json:"handling_score"`
}

// MissedOpportunity anchors something the rep failed to do to the transcript
// moment where it happened.
type MissedOpportunity struct {
	Description       string `json:"description"`
	TranscriptSnippet string `json:"transcript_snippet"`
}

// Drill is one practice exercise tied to an observed weakness.
type Drill struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Goal          string `json:"goal"`
	ExampleScript string `json:"example_script,omitempty"`
}
