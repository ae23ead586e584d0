package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/ecotrack/internal/domain"
)

const emptyTableText = "No actions yet"

var columnWidths = [...]int{6, 30, 13, 10}

// actionRow pairs a cached record with its own editor. Rows never share
// editing state, so several can be open at once.
type actionRow struct {
	item    domain.Action
	editing bool
	busy    bool
	err     string
	inputs  fieldInputs
	focused int
}

func newActionRow(item domain.Action) *actionRow {
	return &actionRow{item: item, inputs: newFieldInputs(columnWidths[1] - 2)}
}

func (r *actionRow) startEdit() {
	if r.editing {
		return
	}
	r.inputs.load(domain.DraftOf(r.item))
	r.editing = true
	r.err = ""
	r.focused = fieldAction
	r.inputs.focus(r.focused)
}

// cancelEdit drops the draft and reloads the inputs from the record.
func (r *actionRow) cancelEdit() {
	r.inputs.load(domain.DraftOf(r.item))
	r.inputs.blur()
	r.editing = false
	r.err = ""
}

func (r *actionRow) finishEdit(item domain.Action) {
	r.item = item
	r.inputs.blur()
	r.editing = false
	r.err = ""
}

func (r *actionRow) cycle(delta int) {
	r.focused = nextField(r.focused, delta)
	r.inputs.focus(r.focused)
}

// save validates the draft and, on success, returns the full-field patch.
func (r *actionRow) save() (domain.ActionPatch, bool) {
	if r.busy {
		return domain.ActionPatch{}, false
	}
	in, err := r.inputs.draft().Parse()
	if err != nil {
		r.err = errorText(err)
		return domain.ActionPatch{}, false
	}
	r.err = ""
	r.busy = true
	return in.Patch(), true
}

// actionTable mirrors the tracker's list and owns the selection cursor.
type actionTable struct {
	rows   []*actionRow
	cursor int
}

// sync rebuilds the row list from items, keeping editor state for ids that
// are still present.
func (t *actionTable) sync(items []domain.Action) {
	existing := make(map[int64]*actionRow, len(t.rows))
	for _, row := range t.rows {
		existing[row.item.ID] = row
	}
	rows := make([]*actionRow, 0, len(items))
	for _, item := range items {
		row, ok := existing[item.ID]
		if !ok {
			row = newActionRow(item)
		}
		row.item = item
		rows = append(rows, row)
	}
	t.rows = rows
	t.clamp()
}

func (t *actionTable) clamp() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *actionTable) move(delta int) {
	t.cursor += delta
	t.clamp()
}

func (t *actionTable) selected() *actionRow {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return nil
	}
	return t.rows[t.cursor]
}

func (t *actionTable) row(id int64) *actionRow {
	for _, row := range t.rows {
		if row.item.ID == id {
			return row
		}
	}
	return nil
}

// update routes input to the selected row's focused field.
func (t *actionTable) update(msg tea.Msg) tea.Cmd {
	row := t.selected()
	if row == nil || !row.editing || row.busy {
		return nil
	}
	return row.inputs.update(row.focused, msg)
}

func (t *actionTable) View() string {
	header := renderCells(headerCellStyle, "ID", "Action", "Date", "Points")
	if len(t.rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, "  "+header, "", mutedStyle.Render("  "+emptyTableText))
	}
	lines := []string{"  " + header}
	for i, row := range t.rows {
		lines = append(lines, t.renderRow(row, i == t.cursor))
	}
	return strings.Join(lines, "\n")
}

func (t *actionTable) renderRow(row *actionRow, selected bool) string {
	marker := "  "
	if selected {
		marker = "› "
	}
	var line string
	if row.editing {
		line = renderCells(lipgloss.NewStyle(),
			strconv.FormatInt(row.item.ID, 10),
			row.inputs[fieldAction].View(),
			row.inputs[fieldDate].View(),
			row.inputs[fieldPoints].View(),
		)
		switch {
		case row.busy:
			line += mutedStyle.Render("  Saving…")
		default:
			line += mutedStyle.Render("  [enter] save  [esc] cancel")
		}
	} else {
		line = renderCells(lipgloss.NewStyle(),
			strconv.FormatInt(row.item.ID, 10),
			truncate(row.item.Action, columnWidths[1]-2),
			row.item.Date,
			strconv.FormatInt(row.item.Points, 10),
		)
		if row.busy {
			line += mutedStyle.Render("  Deleting…")
		}
	}
	if selected && !row.editing {
		line = selectedRowStyle.Render(line)
	}
	out := marker + line
	if row.err != "" {
		out += "\n    " + errorStyle.Render(fmt.Sprintf("⚠ %s", row.err))
	}
	return out
}

func renderCells(style lipgloss.Style, cells ...string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		w := columnWidths[len(columnWidths)-1]
		if i < len(columnWidths) {
			w = columnWidths[i]
		}
		parts[i] = style.Width(w).Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
