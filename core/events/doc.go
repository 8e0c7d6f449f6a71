// Package events defines the typed protocol event contract for one live
// training call.
//
// Event kinds are grouped by speaker-facing namespaces:
//
//   - session.*: control-channel lifecycle.
//   - rep.*: the human trainee's side of the call.
//   - prospect.*: the simulated buyer's side of the call.
//
// Semantics used across the package:
//
//   - Delta: small append-only text fragment emitted in stream order while an
//     utterance is still in progress.
//   - Final: terminal immutable text for one utterance; supersedes any deltas
//     streamed for it.
//
// session events
//
//   - SessionReady (session.ready): the control channel is open and the
//     remote agent accepted its configuration.
//   - SessionError (session.error): the remote side reported a protocol-level
//     error. Not terminal by itself.
//
// rep events
//
//   - RepSpeechStarted (rep.speech_started): voice activity detected on the
//     rep's input audio.
//   - RepSpeechEnded (rep.speech_ended): voice activity stopped.
//   - RepTranscriptFinal (rep.transcript_final): complete recognized text for
//     one rep utterance.
//
// prospect events
//
//   - ProspectResponseStarted (prospect.response_started): the agent began
//     generating a spoken response.
//   - ProspectResponseEnded (prospect.response_ended): the agent finished the
//     response; the floor returns to the rep.
//   - ProspectTranscriptDelta (prospect.transcript_delta): streamed fragment
//     of the agent's spoken text.
//   - ProspectTranscriptFinal (prospect.transcript_final): terminal text for
//     the agent's utterance, reconciling any streamed drift.
package events
