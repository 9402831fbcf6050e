package ui

import "github.com/charmbracelet/lipgloss"

var (
	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	ThinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13"))

	AssistantStyle = lipgloss.NewStyle().
			PaddingLeft(1)
)
