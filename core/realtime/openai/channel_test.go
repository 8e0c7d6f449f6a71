package openai

import (
	"testing"

	"github.com/callgym/callgym-core/core/events"
	"github.com/callgym/callgym-core/core/realtime"
)

func newCapturingChannel() (*Channel, *[]events.Event) {
	captured := &[]events.Event{}
	ch := &Channel{
		options: realtime.NewSessionOptions(
			realtime.WithEventCallback(func(event events.Event) {
				*captured = append(*captured, event)
			}),
		),
	}
	return ch, captured
}

func TestProcessMessageDecodesProtocolEvents(t *testing.T) {
	for _, tc := range []struct {
		message string
		kind    events.Kind
	}{
		{`{"type":"session.updated","session":{}}`, events.KindSessionReady},
		{`{"type":"input_audio_buffer.speech_started"}`, events.KindRepSpeechStarted},
		{`{"type":"input_audio_buffer.speech_stopped"}`, events.KindRepSpeechEnded},
		{`{"type":"response.created","response":{}}`, events.KindProspectResponseStarted},
		{`{"type":"response.done","response":{}}`, events.KindProspectResponseEnded},
		{`{"type":"response.audio_transcript.delta","delta":"hel"}`, events.KindProspectTranscriptDelta},
		{`{"type":"response.audio_transcript.done","transcript":"hello there"}`, events.KindProspectTranscriptFinal},
		{`{"type":"conversation.item.input_audio_transcription.completed","transcript":"hi"}`, events.KindRepTranscriptFinal},
		{`{"type":"error","error":{"message":"boom"}}`, events.KindSessionError},
	} {
		ch, captured := newCapturingChannel()

		ch.processMessage([]byte(tc.message))

		if len(*captured) != 1 {
			t.Fatalf("expected one event for %q, got %d", tc.message, len(*captured))
		}
		if got := (*captured)[0].Kind(); got != tc.kind {
			t.Fatalf("expected kind %q for %q, got %q", tc.kind, tc.message, got)
		}
	}
}

func TestProcessMessageCarriesPayloadText(t *testing.T) {
	ch, captured := newCapturingChannel()

	ch.processMessage([]byte(`{"type":"response.audio_transcript.delta","delta":"one mo"}`))
	ch.processMessage([]byte(`{"type":"response.audio_transcript.done","transcript":"one moment"}`))
	ch.processMessage([]byte(`{"type":"conversation.item.input_audio_transcription.completed","transcript":"are you there"}`))
	ch.processMessage([]byte(`{"type":"error","error":{"message":"session expired"}}`))

	if delta := (*captured)[0].(events.ProspectTranscriptDelta); delta.Delta != "one mo" {
		t.Fatalf("expected delta text carried through, got %q", delta.Delta)
	}
	if final := (*captured)[1].(events.ProspectTranscriptFinal); final.Transcript != "one moment" {
		t.Fatalf("expected prospect transcript carried through, got %q", final.Transcript)
	}
	if final := (*captured)[2].(events.RepTranscriptFinal); final.Transcript != "are you there" {
		t.Fatalf("expected rep transcript carried through, got %q", final.Transcript)
	}
	if errEvent := (*captured)[3].(events.SessionError); errEvent.Message != "session expired" {
		t.Fatalf("expected error message carried through, got %q", errEvent.Message)
	}
}

func TestProcessMessageDropsUnrecognizedTypes(t *testing.T) {
	ch, captured := newCapturingChannel()

	ch.processMessage([]byte(`{"type":"rate_limits.updated"}`))
	ch.processMessage([]byte(`{"type":"response.output_item.added"}`))
	ch.processMessage([]byte(`{"type":"conversation.item.created"}`))
	ch.processMessage([]byte(`not even json`))

	if len(*captured) != 0 {
		t.Fatalf("expected unrecognized messages to be dropped, got %d events", len(*captured))
	}
}

func TestProcessMessageWithoutCallbackDoesNotPanic(t *testing.T) {
	ch := &Channel{options: realtime.NewSessionOptions()}

	ch.processMessage([]byte(`{"type":"session.updated"}`))
	ch.processMessage([]byte(`{"type":"error","error":{"message":"boom"}}`))
}

func TestSessionPayloadCarriesTuning(t *testing.T) {
	options := realtime.NewSessionOptions(
		realtime.WithInstructions("You are Dana."),
		realtime.WithVoice("verse"),
	)

	payload := newSessionPayload(options)

	if payload.Instructions != "You are Dana." {
		t.Fatalf("expected instructions carried into payload, got %q", payload.Instructions)
	}
	if payload.Voice != "verse" {
		t.Fatalf("expected voice carried into payload, got %q", payload.Voice)
	}
	if payload.Temperature != realtime.DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", payload.Temperature)
	}
	if payload.TurnDetection == nil || payload.TurnDetection.Type != "server_vad" {
		t.Fatalf("expected server VAD turn detection")
	}
	if payload.TurnDetection.Threshold != 0.5 ||
		payload.TurnDetection.PrefixPaddingMs != 300 ||
		payload.TurnDetection.SilenceDurationMs != 900 {
		t.Fatalf("unexpected VAD tuning: %+v", payload.TurnDetection)
	}
	if payload.InputAudioTranscription == nil || payload.InputAudioTranscription.Model != realtime.DefaultTranscriptionModel {
		t.Fatalf("expected input transcription requested by default")
	}
}
