package session

import (
	"context"
	"time"

	"github.com/callgym/callgym-core/core/realtime"
	"github.com/callgym/callgym-core/core/speechtotext"
)

type SessionOption func(*Session)

// DialFunc opens the realtime channel for one call. Providers supply this
// through a closure over their concrete client.
type DialFunc func(ctx context.Context, opts ...realtime.SessionOption) (realtime.Channel, error)

// WithTransport configures how the session dials the remote voice agent.
func WithTransport(dial DialFunc) SessionOption {
	return func(s *Session) {
		s.dial = dial
	}
}

// AudioCapture is the local microphone capture device. Acquired while
// connecting, released unconditionally while ending.
type AudioCapture interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close() error
}

// WithAudioCapture configures the local capture device. Sessions without one
// rely on a remote-held audio path and only consume protocol events.
func WithAudioCapture(capture AudioCapture) SessionOption {
	return func(s *Session) {
		s.audioCapture = capture
	}
}

// AudioPlayback is the local speaker device the prospect's voice plays
// through. Released unconditionally while ending.
type AudioPlayback interface {
	SendAudio(audio []byte) error
	Close() error
}

// WithAudioPlayback configures local playback of the prospect's audio.
// Sessions without one discard the audio path and keep only transcripts.
func WithAudioPlayback(playback AudioPlayback) SessionOption {
	return func(s *Session) {
		s.audioPlayback = playback
	}
}

// LocalTranscriber transcribes the rep's audio locally, for deployments
// where the realtime vendor does not supply input transcription.
type LocalTranscriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	Close() error
}

// WithLocalTranscription routes rep audio through a local recognizer instead
// of the remote vendor's input transcription. Finalized utterances feed the
// same dispatcher path either way.
func WithLocalTranscription(client LocalTranscriber) SessionOption {
	return func(s *Session) {
		s.localTranscriber = client
	}
}

// WithRepMergeWindow overrides the window within which consecutive finalized
// rep utterances are folded into one turn.
func WithRepMergeWindow(window time.Duration) SessionOption {
	return func(s *Session) {
		s.repMergeWindow = window
	}
}

// WithClock injects the time source used by the transcript merge heuristic.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.clock = now
	}
}

type StartOptions struct {
	instructions string
	voice        string
	vad          *realtime.VADConfig
	temperature  *float64

	onStateChanged            func(State)
	onRepTranscript           func(transcript string)
	onProspectTranscriptDelta func(delta string)
	onProspectTranscript      func(transcript string)
	onError                   func(err error)
}

type StartOption func(*StartOptions)

// WithInstructions sets the persona instruction text the remote agent is
// bound by for this call.
func WithInstructions(instructions string) StartOption {
	return func(o *StartOptions) {
		o.instructions = instructions
	}
}

// WithVoice selects the remote agent voice for this call.
func WithVoice(voice string) StartOption {
	return func(o *StartOptions) {
		o.voice = voice
	}
}

// WithVAD overrides the provider voice-activity-detection tuning.
func WithVAD(vad realtime.VADConfig) StartOption {
	return func(o *StartOptions) {
		o.vad = &vad
	}
}

// WithAgentTemperature overrides the remote agent sampling temperature.
func WithAgentTemperature(temperature float64) StartOption {
	return func(o *StartOptions) {
		o.temperature = &temperature
	}
}

// WithStateChangedCallback registers a callback for lifecycle transitions.
func WithStateChangedCallback(callback func(state State)) StartOption {
	return func(o *StartOptions) {
		o.onStateChanged = callback
	}
}

// WithRepTranscriptCallback registers a callback for finalized rep
// utterances, after reconciliation.
func WithRepTranscriptCallback(callback func(transcript string)) StartOption {
	return func(o *StartOptions) {
		o.onRepTranscript = callback
	}
}

// WithProspectTranscriptDeltaCallback registers a callback for streamed
// fragments of the prospect's in-progress utterance.
func WithProspectTranscriptDeltaCallback(callback func(delta string)) StartOption {
	return func(o *StartOptions) {
		o.onProspectTranscriptDelta = callback
	}
}

// WithProspectTranscriptCallback registers a callback for finalized prospect
// utterances.
func WithProspectTranscriptCallback(callback func(transcript string)) StartOption {
	return func(o *StartOptions) {
		o.onProspectTranscript = callback
	}
}

// WithErrorCallback registers a callback for protocol-level errors reported
// mid-call. Receiving one does not end the session.
func WithErrorCallback(callback func(err error)) StartOption {
	return func(o *StartOptions) {
		o.onError = callback
	}
}
