// Package tui is the interactive terminal client: pick a scenario, run a
// live voice call against the prospect agent, and review the coaching report.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	session "github.com/callgym/callgym-core/core"
	"github.com/callgym/callgym-core/core/analysis"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/training"
)

// Call is a live voice session as the TUI drives it.
type Call interface {
	End()
	State() session.State
	Transcript() []transcript.Turn
}

// StartCall opens the realtime call for a prepared session. The emit function
// is safe to call from any goroutine; every message lands in Update.
type StartCall func(ctx context.Context, setup training.CallSetup, emit func(tea.Msg)) (Call, error)

type screen int

const (
	screenPicker screen = iota
	screenCall
	screenReport
)

type transcriptEntry struct {
	speaker transcript.Speaker
	text    string
	at      time.Time
}

// Messages emitted by call callbacks and commands.
type (
	scenariosLoadedMsg struct{ items []list.Item }
	loadFailedMsg      struct{ err error }
	callStartedMsg     struct {
		call  Call
		setup training.CallSetup
	}
	callFailedMsg     struct{ err error }
	StateChangedMsg   struct{ State session.State }
	RepLineMsg        struct{ Text string }
	ProspectDeltaMsg  struct{ Delta string }
	ProspectLineMsg   struct{ Text string }
	CallErrorMsg      struct{ Err error }
	reportReadyMsg    struct{ report analysis.CoachingReport }
	analysisFailedMsg struct{ err error }
)

type scenarioItem struct {
	scenario scenario.Scenario
}

func (i scenarioItem) Title() string { return i.scenario.Name }
func (i scenarioItem) Description() string {
	return fmt.Sprintf("%s · %s · %s", i.scenario.ProductType, i.scenario.Difficulty, i.scenario.PersonaStyle)
}
func (i scenarioItem) FilterValue() string { return i.scenario.Name }

// Model is the root bubbletea model.
type Model struct {
	svc    *training.Service
	start  StartCall
	userID string

	screen screen
	picker list.Model
	events chan tea.Msg

	call      Call
	setup     training.CallSetup
	callState session.State
	entries   []transcriptEntry
	partial   string

	report    *analysis.CoachingReport
	analyzing bool

	errorMessage string
	width        int
	height       int
}

func New(svc *training.Service, start StartCall, userID string) Model {
	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Pick a training scenario"
	picker.SetShowStatusBar(false)

	return Model{
		svc:    svc,
		start:  start,
		userID: userID,
		picker: picker,
		events: make(chan tea.Msg, 64),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadScenariosCmd()
}

func (m Model) loadScenariosCmd() tea.Cmd {
	return func() tea.Msg {
		scenarios, err := m.svc.ListScenarios(context.Background())
		if err != nil {
			return loadFailedMsg{err: err}
		}
		items := make([]list.Item, 0, len(scenarios))
		for _, s := range scenarios {
			items = append(items, scenarioItem{scenario: s})
		}
		return scenariosLoadedMsg{items: items}
	}
}

func (m Model) startCallCmd(scenarioID string) tea.Cmd {
	return func() tea.Msg {
		setup, err := m.svc.StartSession(context.Background(), m.userID, scenarioID)
		if err != nil {
			return callFailedMsg{err: err}
		}
		call, err := m.start(context.Background(), setup, m.Emit)
		if err != nil {
			return callFailedMsg{err: err}
		}
		return callStartedMsg{call: call, setup: setup}
	}
}

// Emit delivers a message from a call callback into the update loop.
func (m Model) Emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		// A stalled UI must never block the audio path.
	}
}

func (m Model) waitEventCmd() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m Model) endCallCmd(call Call, sessionID string) tea.Cmd {
	return func() tea.Msg {
		call.End()
		report, err := m.svc.EndSession(context.Background(), m.userID, sessionID, call.Transcript())
		if err != nil {
			return analysisFailedMsg{err: err}
		}
		return reportReadyMsg{report: report}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case scenariosLoadedMsg:
		cmd := m.picker.SetItems(msg.items)
		return m, cmd

	case loadFailedMsg:
		m.errorMessage = msg.err.Error()
		return m, nil

	case callStartedMsg:
		m.screen = screenCall
		m.call = msg.call
		m.setup = msg.setup
		m.callState = session.StateConnecting
		m.entries = nil
		m.partial = ""
		m.report = nil
		m.errorMessage = ""
		return m, m.waitEventCmd()

	case callFailedMsg:
		m.errorMessage = msg.err.Error()
		m.screen = screenPicker
		return m, nil

	case StateChangedMsg:
		m.callState = msg.State
		return m, m.waitEventCmd()

	case RepLineMsg:
		m.entries = append(m.entries, transcriptEntry{speaker: transcript.SpeakerRep, text: msg.Text, at: time.Now()})
		return m, m.waitEventCmd()

	case ProspectDeltaMsg:
		m.partial += msg.Delta
		return m, m.waitEventCmd()

	case ProspectLineMsg:
		m.partial = ""
		m.entries = append(m.entries, transcriptEntry{speaker: transcript.SpeakerProspect, text: msg.Text, at: time.Now()})
		return m, m.waitEventCmd()

	case CallErrorMsg:
		m.errorMessage = msg.Err.Error()
		return m, m.waitEventCmd()

	case reportReadyMsg:
		m.analyzing = false
		m.report = &msg.report
		m.screen = screenReport
		return m, nil

	case analysisFailedMsg:
		m.analyzing = false
		m.errorMessage = msg.err.Error()
		m.screen = screenPicker
		return m, nil
	}

	if m.screen == screenPicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenPicker:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item, ok := m.picker.SelectedItem().(scenarioItem); ok {
				m.errorMessage = ""
				return m, m.startCallCmd(item.scenario.ID)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case screenCall:
		switch msg.String() {
		case "e", " ":
			if m.call != nil && !m.analyzing {
				m.analyzing = true
				return m, m.endCallCmd(m.call, m.setup.Session.ID)
			}
			return m, nil
		case "q", "ctrl+c":
			if m.call != nil {
				m.call.End()
			}
			return m, tea.Quit
		}

	case screenReport:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "b", "enter":
			m.screen = screenPicker
			m.call = nil
			return m, m.loadScenariosCmd()
		}
	}
	return m, nil
}
