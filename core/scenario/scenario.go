// Package scenario defines the administrator-authored descriptors that shape
// one training call: the Scenario a session runs against and the process-wide
// GlobalOverrides merged into every derived prompt.
package scenario

import "github.com/jinzhu/copier"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type PersonaStyle string

const (
	StyleFriendly  PersonaStyle = "friendly"
	StyleNeutral   PersonaStyle = "neutral"
	StyleSkeptical PersonaStyle = "skeptical"
	StyleCombative PersonaStyle = "combative"
)

type SessionGoal string

const (
	GoalClose       SessionGoal = "close"
	GoalAppointment SessionGoal = "appointment"
)

// BehaviorDials are the three integer knobs an administrator turns to shape
// how hard the prospect is to sell to. Prompt rendering buckets them rather
// than interpolating; the bucket boundaries are a contract that tests and the
// analysis step rely on.
type BehaviorDials struct {
	// PushbackIntensity ranges 1-10.
	PushbackIntensity int `json:"pushback_intensity"`
	// WillingnessToCommit ranges 1-10.
	WillingnessToCommit int `json:"willingness_to_commit"`
	// InterruptFrequency ranges 0-10.
	InterruptFrequency int `json:"interrupt_frequency"`
}

// Scenario describes one training setup. It is created and edited by
// administrators and is read-only for the lifetime of any session that
// references it.
type Scenario struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ProductType   string        `json:"product_type"`
	Difficulty    Difficulty    `json:"difficulty"`
	PersonaStyle  PersonaStyle  `json:"persona_style"`
	ObjectionPool []string      `json:"objection_pool"`
	Dials         BehaviorDials `json:"rules"`

	TrainingObjective string      `json:"training_objective"`
	SessionGoal       SessionGoal `json:"session_goal"`

	// BehaviorNotes and ClientDescription are free text appended verbatim to
	// the persona prompt; the builder never interprets their content.
	BehaviorNotes     string `json:"behavior_notes"`
	ClientDescription string `json:"client_description"`
	ClientAge         *int   `json:"client_age,omitempty"`

	Voice       string `json:"voice"`
	SalesScript string `json:"sales_script,omitempty"`
}

// GlobalOverrides are process-wide admin-editable text fields merged into
// every scenario's derived prompt and every analysis request. Sessions must
// work from a use-time snapshot; mid-session edits never apply retroactively.
type GlobalOverrides struct {
	ProspectBehavior   string            `json:"master_prospect_behavior"`
	ConversationStyle  string            `json:"master_conversation_style"`
	CoachingNotes      string            `json:"master_coaching_notes"`
	ObjectionResponses map[string]string `json:"master_objection_responses"`
}

// Snapshot returns a deep copy safe to hold for the lifetime of a session
// while administrators keep editing the live record.
func (g GlobalOverrides) Snapshot() GlobalOverrides {
	var snapshot GlobalOverrides
	_ = copier.CopyWithOption(&snapshot, &g, copier.Option{DeepCopy: true})
	return snapshot
}
