package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderStatus turns a gate progress report into one styled line.
func renderStatus(s biometric.Status, maxAttempts int) string {
	attempt := fmt.Sprintf("[%d/%d]", s.Attempt, maxAttempts)

	switch s.State {
	case biometric.StateAwaitingFrame:
		return dimStyle.Render(attempt + " looking for a face...")
	case biometric.StateFaceNotFound:
		return warnStyle.Render(attempt + " no face detected")
	case biometric.StateFaceFound:
		return dimStyle.Render(attempt + " face detected")
	case biometric.StateScoring:
		return dimStyle.Render(fmt.Sprintf("%s similarity %.2f", attempt, s.Similarity))
	case biometric.StateVerified:
		return okStyle.Render("verified")
	case biometric.StateDenied:
		return errorStyle.Render("denied")
	default:
		return dimStyle.Render(s.State.String())
	}
}
