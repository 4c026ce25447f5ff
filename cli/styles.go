// ABOUTME: Lipgloss styles shared by list and status output
// ABOUTME: Colours sync states the way the status view always has
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadsync/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case models.SyncStatusIdle:
		return idleStyle
	case models.SyncStatusSyncing:
		return syncingStyle
	case models.SyncStatusError:
		return errorStyle
	default:
		return mutedStyle
	}
}
