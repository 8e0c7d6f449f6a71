package events

const (
	// KindProspectResponseStarted identifies the start of an agent response.
	KindProspectResponseStarted Kind = "prospect.response_started"
	// KindProspectResponseEnded identifies the end of an agent response.
	KindProspectResponseEnded Kind = "prospect.response_ended"
	// KindProspectTranscriptDelta identifies a streamed fragment of agent speech.
	KindProspectTranscriptDelta Kind = "prospect.transcript_delta"
	// KindProspectTranscriptFinal identifies the terminal text of an agent utterance.
	KindProspectTranscriptFinal Kind = "prospect.transcript_final"
)

// ProspectResponseStarted marks the agent beginning a spoken response.
type ProspectResponseStarted struct{ Base }

// NewProspectResponseStarted creates a response started event.
func NewProspectResponseStarted() ProspectResponseStarted {
	return ProspectResponseStarted{Base: NewBase(KindProspectResponseStarted)}
}

// ProspectResponseEnded marks the agent finishing a spoken response.
type ProspectResponseEnded struct{ Base }

// NewProspectResponseEnded creates a response ended event.
func NewProspectResponseEnded() ProspectResponseEnded {
	return ProspectResponseEnded{Base: NewBase(KindProspectResponseEnded)}
}

// ProspectTranscriptDelta carries a streamed fragment of the agent's spoken
// text. Deltas for one utterance arrive in order and belong to the same
// in-progress turn.
type ProspectTranscriptDelta struct {
	Base
	Delta string
}

// NewProspectTranscriptDelta creates a transcript delta event.
func NewProspectTranscriptDelta(delta string) ProspectTranscriptDelta {
	return ProspectTranscriptDelta{Base: NewBase(KindProspectTranscriptDelta), Delta: delta}
}

// ProspectTranscriptFinal carries the terminal text for the agent's
// utterance. It supersedes whatever deltas were streamed before it.
type ProspectTranscriptFinal struct {
	Base
	Transcript string
}

// NewProspectTranscriptFinal creates a final prospect transcript event.
func NewProspectTranscriptFinal(transcript string) ProspectTranscriptFinal {
	return ProspectTranscriptFinal{Base: NewBase(KindProspectTranscriptFinal), Transcript: transcript}
}
