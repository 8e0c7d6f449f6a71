// Package config loads process configuration for the training server by
// layering defaults, an optional YAML file, and CALLGYM_-prefixed environment
// variables.
package config

import (
	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/realtime"
	"github.com/callgym/callgym-core/core/realtime/openai"
	"github.com/callgym/callgym-core/core/transcript"
)

// Config contains process configuration for the training server.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres connection string. Empty falls back to the
	// in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// OpenAIAPIKey authenticates both the realtime transport and analysis.
	OpenAIAPIKey string `koanf:"openai_api_key"`

	// RealtimeModel names the speech-to-speech model dialed per call.
	RealtimeModel string `koanf:"realtime_model"`

	// AnalysisModel names the text model used for coaching reports.
	AnalysisModel string `koanf:"analysis_model"`

	// AnalysisTemperature is the sampling temperature for analysis requests.
	AnalysisTemperature float64 `koanf:"analysis_temperature"`

	// RepMergeWindowMs bounds how far apart two rep utterances may land and
	// still merge into one transcript turn.
	RepMergeWindowMs int `koanf:"rep_merge_window_ms"`

	// Voice is the fallback agent voice for scenarios that do not set one.
	Voice string `koanf:"voice"`

	// AudioBackend selects the local device layer: "miniaudio" or "portaudio".
	AudioBackend string `koanf:"audio_backend"`

	// Turn detection tuning forwarded to the realtime transport.
	VADThreshold         float64 `koanf:"vad_threshold"`
	VADPrefixPaddingMs   int     `koanf:"vad_prefix_padding_ms"`
	VADSilenceDurationMs int     `koanf:"vad_silence_duration_ms"`
}

// New returns a Config holding the defaults every deployment starts from.
func New() *Config {
	vad := realtime.DefaultVADConfig()
	return &Config{
		Addr:                 ":8080",
		RealtimeModel:        openai.DefaultModel,
		AnalysisModel:        "gpt-4o",
		AnalysisTemperature:  analysis.DefaultTemperature,
		RepMergeWindowMs:     int(transcript.DefaultRepMergeWindow.Milliseconds()),
		Voice:                realtime.DefaultVoice,
		AudioBackend:         "miniaudio",
		VADThreshold:         vad.Threshold,
		VADPrefixPaddingMs:   vad.PrefixPaddingMs,
		VADSilenceDurationMs: vad.SilenceDurationMs,
	}
}

// VAD folds the flat tuning fields back into the transport's config type.
func (c *Config) VAD() realtime.VADConfig {
	return realtime.VADConfig{
		Threshold:         c.VADThreshold,
		PrefixPaddingMs:   c.VADPrefixPaddingMs,
		SilenceDurationMs: c.VADSilenceDurationMs,
	}
}
