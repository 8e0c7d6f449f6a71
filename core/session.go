// Package session governs the lifecycle of one realtime training call: it
// dials the remote voice agent, routes inbound protocol events into the
// state machine and the transcript reconciler, and tears everything down
// exactly once when the call ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/callgym/callgym-core/core/events"
	"github.com/callgym/callgym-core/core/realtime"
	"github.com/callgym/callgym-core/core/speechtotext"
	"github.com/callgym/callgym-core/core/transcript"
)

// ErrAlreadyStarted is returned when Start is called on a session that has
// left idle.
var ErrAlreadyStarted = errors.New("session already started")

// ErrNoTransport is returned when Start is called without a configured
// transport.
var ErrNoTransport = errors.New("no transport configured")

// Session is one realtime call. Protocol events for it are processed to
// completion one at a time, in arrival order; the transcript merge heuristic
// depends on that ordering.
type Session struct {
	dial             DialFunc
	audioCapture     AudioCapture
	audioPlayback    AudioPlayback
	localTranscriber LocalTranscriber

	repMergeWindow time.Duration
	clock          func() time.Time

	machine    *stateMachine
	reconciler *transcript.Reconciler
	channel    realtime.Channel

	startOptions StartOptions

	dispatchMu sync.Mutex
	closeOnce  sync.Once

	captureCancel context.CancelFunc
	baseContext   context.Context
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		repMergeWindow: transcript.DefaultRepMergeWindow,
		clock:          time.Now,
		baseContext:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.machine = newStateMachine(func(state State) {
		if s.startOptions.onStateChanged != nil {
			s.startOptions.onStateChanged(state)
		}
	})
	s.reconciler = transcript.NewReconciler(
		transcript.WithRepMergeWindow(s.repMergeWindow),
		transcript.WithClock(s.clock),
	)
	return s
}

// Start moves the session from idle through connecting: it acquires the
// local capture device, dials the remote agent, and wires inbound events
// into Handle. Any failure along the way tears down whatever was already
// created and returns the session to idle.
//
// Reaching connected is event-driven: it happens when the remote side
// acknowledges its configuration, at which point the agent is prompted to
// speak first.
func (s *Session) Start(ctx context.Context, opts ...StartOption) error {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	if s.dial == nil {
		return ErrNoTransport
	}
	if !s.machine.transition(StateConnecting) {
		return fmt.Errorf("%w: state %q", ErrAlreadyStarted, s.machine.current())
	}

	s.baseContext = ctx
	s.startOptions = StartOptions{}
	for _, opt := range opts {
		opt(&s.startOptions)
	}

	sessionOpts := []realtime.SessionOption{
		realtime.WithInstructions(s.startOptions.instructions),
		realtime.WithVoice(s.startOptions.voice),
		realtime.WithEventCallback(s.Handle),
	}
	if s.localTranscriber != nil {
		// Rep transcription happens locally; asking the vendor to transcribe
		// input audio too would double-report every utterance.
		sessionOpts = append(sessionOpts, realtime.WithTranscriptionModel(""))
	}
	if s.startOptions.vad != nil {
		sessionOpts = append(sessionOpts, realtime.WithVAD(*s.startOptions.vad))
	}
	if s.startOptions.temperature != nil {
		sessionOpts = append(sessionOpts, realtime.WithTemperature(*s.startOptions.temperature))
	}
	if s.audioPlayback != nil {
		sessionOpts = append(sessionOpts, realtime.WithAudioCallback(func(audio []byte) {
			if err := s.audioPlayback.SendAudio(audio); err != nil {
				logger.WarnContext(s.baseContext, "failed to play prospect audio", "error", err)
			}
		}))
	}

	// The provider's read loop can deliver the first event before dial
	// returns. The channel must be visible to the dispatcher before any
	// event is processed, so the dispatch lock is held across the dial and
	// the assignment.
	s.dispatchMu.Lock()
	channel, err := s.dial(ctx, sessionOpts...)
	if err != nil {
		s.dispatchMu.Unlock()
		s.abortSetup()
		err = fmt.Errorf("failed to open realtime channel: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.channel = channel
	s.dispatchMu.Unlock()

	if s.localTranscriber != nil {
		err := s.localTranscriber.Transcribe(ctx,
			speechtotext.WithTranscriptionCallback(func(text string) {
				s.Handle(events.NewRepTranscriptFinal(text))
			}),
			speechtotext.WithSpeechStartedCallback(func() {
				s.Handle(events.NewRepSpeechStarted())
			}),
			speechtotext.WithSpeechEndedCallback(func() {
				s.Handle(events.NewRepSpeechEnded())
			}),
		)
		if err != nil {
			s.abortSetup()
			err = fmt.Errorf("failed to start local transcription: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if s.audioCapture != nil {
		captureCtx, cancel := context.WithCancel(ctx)
		s.captureCancel = cancel
		if err := s.audioCapture.Stream(captureCtx, func(audio []byte) {
			if err := s.channel.SendAudio(audio); err != nil {
				logger.WarnContext(s.baseContext, "failed to forward captured audio", "error", err)
			}
			if s.localTranscriber != nil {
				if err := s.localTranscriber.SendAudio(audio); err != nil {
					logger.WarnContext(s.baseContext, "failed to forward audio to local transcription", "error", err)
				}
			}
		}); err != nil {
			s.abortSetup()
			err = fmt.Errorf("failed to start audio capture: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	return nil
}

// abortSetup rolls a failed connecting attempt back to idle without leaving
// dangling transport or media handles.
func (s *Session) abortSetup() {
	if s.captureCancel != nil {
		s.captureCancel()
		s.captureCancel = nil
	}
	if s.audioCapture != nil {
		if err := s.audioCapture.Close(); err != nil {
			logger.WarnContext(s.baseContext, "failed to close audio capture", "error", err)
		}
	}
	if s.audioPlayback != nil {
		if err := s.audioPlayback.Close(); err != nil {
			logger.WarnContext(s.baseContext, "failed to close audio playback", "error", err)
		}
	}
	if s.localTranscriber != nil {
		if err := s.localTranscriber.Close(); err != nil {
			logger.WarnContext(s.baseContext, "failed to close local transcription", "error", err)
		}
	}
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			logger.WarnContext(s.baseContext, "failed to close realtime channel", "error", err)
		}
		s.channel = nil
	}
	s.machine.transition(StateIdle)
}

// Handle routes one protocol event. Events are processed to completion one
// at a time, preserving arrival order.
func (s *Session) Handle(event events.Event) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	switch e := event.(type) {
	case events.SessionReady:
		if s.machine.transition(StateConnected) {
			s.promptProspectToOpen()
		}

	case events.RepSpeechStarted:
		s.machine.transition(StateRepSpeaking)

	case events.RepSpeechEnded:
		if s.machine.current() == StateRepSpeaking {
			s.machine.transition(StateConnected)
		}

	case events.ProspectResponseStarted:
		s.machine.transition(StateProspectSpeaking)

	case events.ProspectResponseEnded:
		if s.machine.current() == StateProspectSpeaking {
			s.machine.transition(StateConnected)
		}

	case events.RepTranscriptFinal:
		s.reconciler.AppendRepFinal(e.Transcript)
		if s.startOptions.onRepTranscript != nil {
			s.startOptions.onRepTranscript(e.Transcript)
		}

	case events.ProspectTranscriptDelta:
		s.reconciler.AppendProspectDelta(e.Delta)
		if s.startOptions.onProspectTranscriptDelta != nil {
			s.startOptions.onProspectTranscriptDelta(e.Delta)
		}

	case events.ProspectTranscriptFinal:
		s.reconciler.SetProspectFinal(e.Transcript)
		if s.startOptions.onProspectTranscript != nil {
			s.startOptions.onProspectTranscript(e.Transcript)
		}

	case events.SessionError:
		// Surfaced to the caller only; ending stays caller-driven.
		if s.startOptions.onError != nil {
			s.startOptions.onError(fmt.Errorf("realtime protocol error: %s", e.Message))
		}
	}
}

// promptProspectToOpen asks the agent to speak first, as if answering an
// unexpected incoming call.
func (s *Session) promptProspectToOpen() {
	if s.channel == nil {
		return
	}
	if err := s.channel.CreateResponse(); err != nil {
		logger.WarnContext(s.baseContext, "failed to prompt opening response", "error", err)
	}
}

// End tears down local capture and the transport unconditionally. Safe to
// call more than once and safe to call on a session that never fully
// connected; only the first call does the work.
func (s *Session) End() {
	s.closeOnce.Do(func() {
		s.machine.transition(StateEnding)

		if s.captureCancel != nil {
			s.captureCancel()
			s.captureCancel = nil
		}
		if s.audioCapture != nil {
			if err := s.audioCapture.Close(); err != nil {
				recordedErr := fmt.Errorf("failed to close audio capture: %w", err)
				span := trace.SpanFromContext(s.baseContext)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
			}
		}
		if s.audioPlayback != nil {
			if err := s.audioPlayback.Close(); err != nil {
				recordedErr := fmt.Errorf("failed to close audio playback: %w", err)
				span := trace.SpanFromContext(s.baseContext)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
			}
		}
		if s.localTranscriber != nil {
			if err := s.localTranscriber.Close(); err != nil {
				recordedErr := fmt.Errorf("failed to close local transcription: %w", err)
				span := trace.SpanFromContext(s.baseContext)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
			}
		}
		if s.channel != nil {
			if err := s.channel.Close(); err != nil {
				recordedErr := fmt.Errorf("failed to close realtime channel: %w", err)
				span := trace.SpanFromContext(s.baseContext)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
			}
		}
	})
}

// State returns the current lifecycle position.
func (s *Session) State() State {
	return s.machine.current()
}

// SendAudio forwards one chunk of rep audio to the remote agent, for hosts
// that capture audio themselves instead of configuring an AudioCapture.
func (s *Session) SendAudio(audio []byte) error {
	if s.channel == nil {
		return fmt.Errorf("realtime channel not open")
	}
	return s.channel.SendAudio(audio)
}

// Transcript returns the reconciled turns accumulated so far. The final call
// after End yields the transcript handed to analysis.
func (s *Session) Transcript() []transcript.Turn {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	return s.reconciler.Turns()
}
