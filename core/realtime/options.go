// Package realtime defines the provider-independent surface of the live
// voice channel: session tuning knobs and the event callback the provider
// feeds decoded protocol events into.
package realtime

import "github.com/callgym/callgym-core/core/events"

const (
	// DefaultVoice is used when the scenario does not pin one.
	DefaultVoice = "alloy"
	// DefaultTemperature controls prospect response sampling.
	DefaultTemperature = 0.8
	// DefaultTranscriptionModel transcribes the rep's input audio remotely.
	DefaultTranscriptionModel = "whisper-1"
)

// VADConfig tunes the provider's server-side voice activity detection.
type VADConfig struct {
	Threshold         float64
	PrefixPaddingMs   int
	SilenceDurationMs int
}

// DefaultVADConfig is tuned for handheld-microphone sales-call audio.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		Threshold:         0.5,
		PrefixPaddingMs:   300,
		SilenceDurationMs: 900,
	}
}

type SessionOptions struct {
	Instructions       string
	Voice              string
	Temperature        float64
	TranscriptionModel string
	VAD                VADConfig

	// EventCallback receives every decoded protocol event, in arrival order.
	EventCallback func(events.Event)
	// AudioCallback receives raw chunks of the prospect's spoken audio. Audio
	// is a media path, not a protocol event, and bypasses the event set.
	AudioCallback func(audio []byte)
}

type SessionOption func(*SessionOptions)

// WithInstructions sets the persona prompt the remote agent plays.
func WithInstructions(instructions string) SessionOption {
	return func(o *SessionOptions) {
		o.Instructions = instructions
	}
}

// WithVoice selects the agent voice.
func WithVoice(voice string) SessionOption {
	return func(o *SessionOptions) {
		if voice != "" {
			o.Voice = voice
		}
	}
}

// WithTemperature overrides the agent response sampling temperature.
func WithTemperature(temperature float64) SessionOption {
	return func(o *SessionOptions) {
		o.Temperature = temperature
	}
}

// WithTranscriptionModel overrides the input transcription model.
func WithTranscriptionModel(model string) SessionOption {
	return func(o *SessionOptions) {
		o.TranscriptionModel = model
	}
}

// WithVAD overrides the server voice-activity-detection tuning.
func WithVAD(vad VADConfig) SessionOption {
	return func(o *SessionOptions) {
		o.VAD = vad
	}
}

// WithEventCallback registers the consumer for decoded protocol events.
func WithEventCallback(callback func(events.Event)) SessionOption {
	return func(o *SessionOptions) {
		o.EventCallback = callback
	}
}

// WithAudioCallback registers the consumer for prospect audio chunks.
func WithAudioCallback(callback func(audio []byte)) SessionOption {
	return func(o *SessionOptions) {
		o.AudioCallback = callback
	}
}

// NewSessionOptions applies opts over the defaults.
func NewSessionOptions(opts ...SessionOption) SessionOptions {
	options := SessionOptions{
		Voice:              DefaultVoice,
		Temperature:        DefaultTemperature,
		TranscriptionModel: DefaultTranscriptionModel,
		VAD:                DefaultVADConfig(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
