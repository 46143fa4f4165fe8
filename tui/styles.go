package tui

import "github.com/charmbracelet/lipgloss"

var Styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Error   lipgloss.Style
	Cluster lipgloss.Style
	Feature lipgloss.Style
	Value   lipgloss.Style
	Help    lipgloss.Style
	Result  lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Width(24),
	Focused: lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")).Bold(true).Width(24),
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	Cluster: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#F25D94")).
		Padding(0, 1),
	Feature: lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).Width(28),
	Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
	Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
	Result: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		Padding(0, 1).
		Width(72),
}
