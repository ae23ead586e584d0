package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	modalTitle    = "Add Action"
	modalOK       = "Save"
	modalOKBusy   = "Saving…"
	modalMinWidth = 48
)

// renderModal draws the add-action dialog centered in the window.
func renderModal(f *actionForm, width, height int) string {
	labels := [fieldCount]string{"Action", "Date", "Points"}
	lines := []string{titleStyle.Render(modalTitle), ""}
	for i := range f.inputs {
		label := labelStyle.Render(labels[i])
		if i == f.focused && !f.submitting {
			label = labelStyle.Foreground(lipgloss.Color("#2ECC71")).Render(labels[i])
		}
		lines = append(lines, label+" "+f.inputs[i].View())
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render("⚠ "+f.err))
	}
	ok := modalOK
	if f.submitting {
		ok = modalOKBusy
	}
	lines = append(lines, "", mutedStyle.Render("[enter] "+ok+"   [esc] Cancel   [tab] Next field"))
	box := modalStyle.Width(modalMinWidth).Render(strings.Join(lines, "\n"))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
