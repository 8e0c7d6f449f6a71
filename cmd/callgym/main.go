// Command callgym is the terminal training client. It runs fully local:
// an in-memory record store, the system microphone and speakers, and the
// remote voice agent for the prospect side of the call.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	session "github.com/callgym/callgym-core/core"
	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/audio/miniaudio"
	paudio "github.com/callgym/callgym-core/core/audio/portaudio"
	llmopenai "github.com/callgym/callgym-core/core/llms/openai"
	"github.com/callgym/callgym-core/core/realtime"
	rtopenai "github.com/callgym/callgym-core/core/realtime/openai"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/speechtotext/deepgram"
	"github.com/callgym/callgym-core/internal/config"
	"github.com/callgym/callgym-core/internal/tui"
	"github.com/callgym/callgym-core/store/memory"
	"github.com/callgym/callgym-core/training"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	st := memory.NewStore()
	if err := seedScenarios(st); err != nil {
		fmt.Fprintln(os.Stderr, "failed to seed scenarios:", err)
		os.Exit(1)
	}

	pipeline := analysis.NewPipeline(
		llmopenai.NewClient(cfg.OpenAIAPIKey, cfg.AnalysisModel),
		analysis.WithTemperature(cfg.AnalysisTemperature),
	)
	svc := training.NewService(st, pipeline)

	rtClient, err := rtopenai.NewClient(cfg.OpenAIAPIKey, rtopenai.WithModel(cfg.RealtimeModel))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build realtime client:", err)
		os.Exit(1)
	}

	model := tui.New(svc, newCallStarter(rtClient, cfg), "local")
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui failed:", err)
		os.Exit(1)
	}
}

// newCallStarter builds one live voice session per call: microphone and
// speaker devices, an optional local recognizer for the rep side, and the
// realtime channel for the prospect agent.
func newCallStarter(rtClient *rtopenai.Client, cfg *config.Config) tui.StartCall {
	return func(ctx context.Context, setup training.CallSetup, emit func(tea.Msg)) (tui.Call, error) {
		capture, playback, err := openAudioDevices(cfg.AudioBackend)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio devices: %w", err)
		}

		opts := []session.SessionOption{
			session.WithTransport(func(ctx context.Context, opts ...realtime.SessionOption) (realtime.Channel, error) {
				return rtClient.Connect(ctx, opts...)
			}),
			session.WithAudioCapture(capture),
			session.WithAudioPlayback(playback),
			session.WithRepMergeWindow(time.Duration(cfg.RepMergeWindowMs) * time.Millisecond),
		}
		if os.Getenv("DEEPGRAM_API_KEY") != "" {
			transcriber, err := deepgram.NewTranscriptionClient()
			if err != nil {
				return nil, fmt.Errorf("failed to build local transcription: %w", err)
			}
			opts = append(opts, session.WithLocalTranscription(transcriber))
		}

		voice := setup.Voice
		if voice == "" {
			voice = cfg.Voice
		}

		call := session.NewSession(opts...)
		err = call.Start(ctx,
			session.WithInstructions(setup.Instructions),
			session.WithVoice(voice),
			session.WithVAD(cfg.VAD()),
			session.WithStateChangedCallback(func(state session.State) {
				emit(tui.StateChangedMsg{State: state})
			}),
			session.WithRepTranscriptCallback(func(text string) {
				emit(tui.RepLineMsg{Text: text})
			}),
			session.WithProspectTranscriptDeltaCallback(func(delta string) {
				emit(tui.ProspectDeltaMsg{Delta: delta})
			}),
			session.WithProspectTranscriptCallback(func(text string) {
				emit(tui.ProspectLineMsg{Text: text})
			}),
			session.WithErrorCallback(func(err error) {
				emit(tui.CallErrorMsg{Err: err})
			}),
		)
		if err != nil {
			return nil, err
		}
		return call, nil
	}
}

// portaudioBufferFrames matches the miniaudio capture period so both
// backends feed the channel equally sized chunks.
const portaudioBufferFrames = 480

func openAudioDevices(backend string) (session.AudioCapture, session.AudioPlayback, error) {
	if backend == "portaudio" {
		client, err := paudio.NewClient(portaudioBufferFrames)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}
	client, err := miniaudio.NewClient()
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

// seedScenarios fills the in-memory store with a starter catalogue so the
// client is usable without an admin backend.
func seedScenarios(st *memory.Store) error {
	age := 52
	scenarios := []scenario.Scenario{
		{
			ID:            "warm-lead-easy",
			Name:          "Warm Lead, Easy Close",
			ProductType:   "final expense life insurance",
			Difficulty:    scenario.DifficultyEasy,
			PersonaStyle:  scenario.StyleFriendly,
			ObjectionPool: []string{"price", "need to talk to my spouse"},
			Dials: scenario.BehaviorDials{
				PushbackIntensity:   2,
				WillingnessToCommit: 8,
				InterruptFrequency:  1,
			},
			SessionGoal:       scenario.GoalClose,
			ClientDescription: "Recently retired, worried about leaving debt behind.",
			ClientAge:         &age,
			Voice:             "alloy",
		},
		{
			ID:            "skeptic-medium",
			Name:          "Skeptical Shopper",
			ProductType:   "term life insurance",
			Difficulty:    scenario.DifficultyMedium,
			PersonaStyle:  scenario.StyleSkeptical,
			ObjectionPool: []string{"price", "I can get it cheaper online", "need to think about it"},
			Dials: scenario.BehaviorDials{
				PushbackIntensity:   5,
				WillingnessToCommit: 5,
				InterruptFrequency:  3,
			},
			SessionGoal: scenario.GoalAppointment,
			Voice:       "verse",
		},
		{
			ID:            "combative-hard",
			Name:          "Hostile Callback",
			ProductType:   "mortgage protection insurance",
			Difficulty:    scenario.DifficultyHard,
			PersonaStyle:  scenario.StyleCombative,
			ObjectionPool: []string{"stop calling me", "price", "I don't trust insurance companies"},
			Dials: scenario.BehaviorDials{
				PushbackIntensity:   9,
				WillingnessToCommit: 2,
				InterruptFrequency:  8,
			},
			SessionGoal:   scenario.GoalAppointment,
			BehaviorNotes: "Open the call annoyed that they keep getting calls about this.",
			Voice:         "ash",
		},
	}
	for _, s := range scenarios {
		if err := st.UpsertScenario(context.Background(), s); err != nil {
			return err
		}
	}
	return nil
}
