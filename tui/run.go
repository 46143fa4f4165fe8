package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"vexere-pipeline/utils"
)

// Run shows the dashboard until the user quits.
func Run(scorer Scorer, logger *utils.Logger) error {
	_, err := tea.NewProgram(New(scorer, logger), tea.WithAltScreen()).Run()
	return err
}
