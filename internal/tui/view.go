package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	session "github.com/callgym/callgym-core/core"
	"github.com/callgym/callgym-core/core/transcript"
)

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.screen {
	case screenCall:
		return m.viewCall()
	case screenReport:
		return m.viewReport()
	default:
		return m.viewPicker()
	}
}

func (m Model) viewPicker() string {
	var b strings.Builder
	b.WriteString(m.picker.View())
	if m.errorMessage != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.errorMessage))
	}
	b.WriteString("\n" + footerKeyStyle.Render("enter") + footerDescStyle.Render(" call") +
		"  " + footerKeyStyle.Render("q") + footerDescStyle.Render(" quit"))
	return b.String()
}

func stateLabel(state session.State) string {
	switch state {
	case session.StateConnecting:
		return idleDotStyle.Render("○ connecting...")
	case session.StateRepSpeaking:
		return liveDotStyle.Render("● you are speaking")
	case session.StateProspectSpeaking:
		return liveDotStyle.Render("● prospect is speaking")
	case session.StateEnding:
		return idleDotStyle.Render("○ call over")
	default:
		return liveDotStyle.Render("● live")
	}
}

func (m Model) viewCall() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CALLGYM") + dimStyle.Render(" — "+m.setup.Scenario.Name) + "\n")
	b.WriteString(stateLabel(m.callState) + "\n\n")

	textWidth := max(20, m.width-12)
	visible := max(5, m.height-8)

	var lines []string
	for _, e := range m.entries {
		label := prospectLabelStyle.Render("PROSPECT")
		if e.speaker == transcript.SpeakerRep {
			label = repLabelStyle.Render("YOU")
		}
		wrapped := strings.Split(wordwrap.String(e.text, textWidth), "\n")
		lines = append(lines, label+"  "+wrapped[0])
		for _, w := range wrapped[1:] {
			lines = append(lines, strings.Repeat(" ", 10)+w)
		}
	}
	if m.partial != "" {
		for _, w := range strings.Split(wordwrap.String(m.partial+"▌", textWidth), "\n") {
			lines = append(lines, partialStyle.Render(w))
		}
	}
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")

	if m.errorMessage != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.errorMessage) + "\n")
	}
	if m.analyzing {
		b.WriteString("\n" + dimStyle.Render("Analyzing the call...") + "\n")
	}

	b.WriteString("\n" + footerKeyStyle.Render("e") + footerDescStyle.Render(" end call") +
		"  " + footerKeyStyle.Render("q") + footerDescStyle.Render(" quit"))
	return b.String()
}

func (m Model) viewReport() string {
	if m.report == nil {
		return "No report."
	}
	r := *m.report
	width := max(30, m.width-4)

	var b strings.Builder
	b.WriteString(titleStyle.Render("COACHING REPORT") + dimStyle.Render(" — "+m.setup.Scenario.Name) + "\n\n")
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Overall score: %d/100", r.OverallScore)) + "\n\n")
	b.WriteString(wordwrap.String(r.Summary, width) + "\n\n")

	if len(r.Strengths) > 0 {
		b.WriteString(sectionStyle.Render("Strengths") + "\n")
		for _, s := range r.Strengths {
			b.WriteString("  • " + wordwrap.String(s, width-4) + "\n")
		}
		b.WriteString("\n")
	}
	if len(r.AreasToImprove) > 0 {
		b.WriteString(sectionStyle.Render("Areas to improve") + "\n")
		for _, s := range r.AreasToImprove {
			b.WriteString("  • " + wordwrap.String(s, width-4) + "\n")
		}
		b.WriteString("\n")
	}
	if len(r.ObjectionsDetected) > 0 {
		b.WriteString(sectionStyle.Render("Objections") + "\n")
		for _, o := range r.ObjectionsDetected {
			b.WriteString(fmt.Sprintf("  • %s (raised %dx, handling %d/10)\n", o.Objection, o.Count, o.HandlingScore))
		}
		b.WriteString("\n")
	}
	if r.ScriptAdherenceScore != nil {
		b.WriteString(sectionStyle.Render("Script adherence") + "\n")
		b.WriteString(fmt.Sprintf("  %d/100 — %s\n\n", *r.ScriptAdherenceScore, r.ScriptAdherenceNotes))
	}

	b.WriteString(sectionStyle.Render("Drills") + "\n")
	for _, d := range r.Drills {
		b.WriteString("  • " + titleStyle.Render(d.Title) + ": " + wordwrap.String(d.Description, width-4) + "\n")
	}
	b.WriteString("\n")

	if r.NextSessionPlan != "" {
		b.WriteString(sectionStyle.Render("Next session") + "\n")
		b.WriteString("  " + wordwrap.String(r.NextSessionPlan, width-2) + "\n\n")
	}

	b.WriteString(footerKeyStyle.Render("b") + footerDescStyle.Render(" back") +
		"  " + footerKeyStyle.Render("q") + footerDescStyle.Render(" quit"))
	return b.String()
}
