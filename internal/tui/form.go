package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/ecotrack/internal/domain"
)

const (
	fieldAction = iota
	fieldDate
	fieldPoints
	fieldCount
)

// fieldInputs is the action/date/points triple used by both the add form
// and the per-row editors.
type fieldInputs [fieldCount]textinput.Model

func newFieldInputs(width int) fieldInputs {
	var in fieldInputs
	for i := range in {
		ti := textinput.New()
		ti.Prompt = ""
		// Blinking would schedule a timer command on every focus change.
		ti.Cursor.SetMode(cursor.CursorStatic)
		in[i] = ti
	}
	in[fieldAction].Placeholder = "Recycling"
	in[fieldAction].CharLimit = domain.MaxActionLength
	in[fieldDate].Placeholder = "YYYY-MM-DD"
	in[fieldDate].CharLimit = len(domain.DateLayout)
	in[fieldPoints].Placeholder = "0"
	in[fieldPoints].CharLimit = 12
	in.setWidth(width)
	return in
}

func (in *fieldInputs) setWidth(width int) {
	in[fieldAction].Width = max(8, width)
	in[fieldDate].Width = len(domain.DateLayout)
	in[fieldPoints].Width = 8
}

func (in *fieldInputs) focus(idx int) {
	for i := range in {
		if i == idx {
			in[i].Focus()
			continue
		}
		in[i].Blur()
	}
}

func (in *fieldInputs) blur() {
	for i := range in {
		in[i].Blur()
	}
}

func (in *fieldInputs) load(d domain.Draft) {
	in[fieldAction].SetValue(d.Action)
	in[fieldDate].SetValue(d.Date)
	in[fieldPoints].SetValue(d.Points)
}

func (in *fieldInputs) draft() domain.Draft {
	return domain.Draft{
		Action: in[fieldAction].Value(),
		Date:   in[fieldDate].Value(),
		Points: in[fieldPoints].Value(),
	}
}

// update forwards msg to the focused input only.
func (in *fieldInputs) update(idx int, msg tea.Msg) tea.Cmd {
	if idx < 0 || idx >= fieldCount {
		return nil
	}
	var cmd tea.Cmd
	in[idx], cmd = in[idx].Update(msg)
	return cmd
}

func nextField(idx, delta int) int {
	return (idx + delta + fieldCount) % fieldCount
}

// actionForm is the body of the add-action modal. Values survive a failed
// submit so the user can correct them.
type actionForm struct {
	inputs     fieldInputs
	focused    int
	submitting bool
	err        string
}

func newActionForm() actionForm {
	return actionForm{inputs: newFieldInputs(32)}
}

func (f *actionForm) open() {
	f.err = ""
	f.focused = fieldAction
	f.inputs.focus(f.focused)
}

func (f *actionForm) reset() {
	f.inputs.load(domain.Draft{})
	f.err = ""
	f.submitting = false
	f.focused = fieldAction
	f.inputs.blur()
}

func (f *actionForm) cycle(delta int) {
	f.focused = nextField(f.focused, delta)
	f.inputs.focus(f.focused)
}

// submit validates the current values. It reports false and records the
// inline error when the draft is rejected or a submit is already running.
func (f *actionForm) submit() (domain.ActionInput, bool) {
	if f.submitting {
		return domain.ActionInput{}, false
	}
	in, err := f.inputs.draft().Parse()
	if err != nil {
		f.err = errorText(err)
		return domain.ActionInput{}, false
	}
	f.err = ""
	f.submitting = true
	return in, true
}

func (f *actionForm) update(msg tea.Msg) tea.Cmd {
	if f.submitting {
		return nil
	}
	return f.inputs.update(f.focused, msg)
}
