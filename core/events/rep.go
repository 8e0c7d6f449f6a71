package events

const (
	// KindRepSpeechStarted identifies start of rep speech activity.
	KindRepSpeechStarted Kind = "rep.speech_started"
	// KindRepSpeechEnded identifies end of rep speech activity.
	KindRepSpeechEnded Kind = "rep.speech_ended"
	// KindRepTranscriptFinal identifies the complete recognized text for one
	// rep utterance.
	KindRepTranscriptFinal Kind = "rep.transcript_final"
)

// RepSpeechStarted marks when rep speech activity starts.
type RepSpeechStarted struct{ Base }

// NewRepSpeechStarted creates a rep speech started event.
func NewRepSpeechStarted() RepSpeechStarted {
	return RepSpeechStarted{Base: NewBase(KindRepSpeechStarted)}
}

// RepSpeechEnded marks when rep speech activity ends.
type RepSpeechEnded struct{ Base }

// NewRepSpeechEnded creates a rep speech ended event.
func NewRepSpeechEnded() RepSpeechEnded {
	return RepSpeechEnded{Base: NewBase(KindRepSpeechEnded)}
}

// RepTranscriptFinal carries the complete recognized text for one rep
// utterance. One spoken sentence may arrive as several of these when the
// recognizer segments aggressively.
type RepTranscriptFinal struct {
	Base
	Transcript string
}

// NewRepTranscriptFinal creates a final rep transcript event.
func NewRepTranscriptFinal(transcript string) RepTranscriptFinal {
	return RepTranscriptFinal{Base: NewBase(KindRepTranscriptFinal), Transcript: transcript}
}
