package deepgram

import (
	"sync/atomic"
	"testing"

	"github.com/callgym/callgym-core/core/audio"
	"github.com/callgym/callgym-core/core/speechtotext"
)

func TestProcessMessageAccumulatesUntilSpeechFinal(t *testing.T) {
	client := &TranscriptionClient{}

	var utterances []string
	endCalls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { utterances = append(utterances, transcript) },
		SpeechEndedCallback:   func() { endCalls.Add(1) },
	}

	client.processMessage([]byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"hi this is"}]}}`), options)
	if len(utterances) != 0 {
		t.Fatalf("expected no utterance before speech final, got %v", utterances)
	}

	client.processMessage([]byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"alex from acme"}]}}`), options)

	if len(utterances) != 1 || utterances[0] != "hi this is alex from acme" {
		t.Fatalf("expected accumulated utterance, got %v", utterances)
	}
	if got := endCalls.Load(); got != 1 {
		t.Fatalf("expected one speech-end callback, got %d", got)
	}
}

func TestProcessMessageEmitsInterimGuesses(t *testing.T) {
	client := &TranscriptionClient{}

	var interims []string
	options := speechtotext.TranscriptionOptions{
		InterimTranscriptionCallback: func(transcript string) { interims = append(interims, transcript) },
	}

	client.processMessage([]byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hi th"}]}}`), options)

	if len(interims) != 1 || interims[0] != "hi th" {
		t.Fatalf("expected interim guess, got %v", interims)
	}
}

func TestUtteranceEndFlushesUnendedSegment(t *testing.T) {
	client := &TranscriptionClient{}

	var utterances []string
	startCalls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { utterances = append(utterances, transcript) },
		SpeechStartedCallback: func() { startCalls.Add(1) },
	}

	client.processMessage([]byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage([]byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"are you there"}]}}`), options)
	client.processMessage([]byte(`{"type":"UtteranceEnd"}`), options)

	if got := startCalls.Load(); got != 1 {
		t.Fatalf("expected one speech-start callback, got %d", got)
	}
	if len(utterances) != 1 || utterances[0] != "are you there" {
		t.Fatalf("expected utterance flushed on utterance end, got %v", utterances)
	}

	// A second utterance end without new speech must not emit again.
	client.processMessage([]byte(`{"type":"UtteranceEnd"}`), options)
	if len(utterances) != 1 {
		t.Fatalf("expected no duplicate utterance, got %v", utterances)
	}
}

func TestProcessMessageIgnoresUnknownAndMalformed(t *testing.T) {
	client := &TranscriptionClient{}

	calls := atomic.Int32{}
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(string) { calls.Add(1) },
	}

	client.processMessage([]byte(`{"type":"Metadata"}`), options)
	client.processMessage([]byte(`not json`), options)

	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no callbacks, got %d", got)
	}
}

func TestConvertEncodingRejectsUnsupportedCombinations(t *testing.T) {
	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 44100, Format: audio.FormatLinear16}); err == nil {
		t.Fatalf("expected unsupported sample rate to be rejected")
	}
	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 24000, Format: audio.FormatMulaw}); err == nil {
		t.Fatalf("expected mulaw above 8khz to be rejected")
	}

	encoding, err := convertEncoding(audio.EncodingInfo{SampleRate: 24000, Format: audio.FormatLinear16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoding.SampleRate != 24000 || encoding.Format != encodingLinear16 {
		t.Fatalf("unexpected encoding: %+v", encoding)
	}
}
