package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	liveDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	repLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	prospectLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	partialStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	scoreStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	footerKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	footerDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
