// internal/tui/app.go
//
// The tracker screen. It follows the Elm architecture bubbletea expects:
// every request runs inside a tea.Cmd and reports back as a typed message,
// and Update is the only place state changes.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/domain"
	"github.com/kingrea/ecotrack/internal/logbook"
	"github.com/kingrea/ecotrack/internal/tracker"
)

const (
	appTitle        = "Sustainability Actions"
	loadingText     = "Loading…"
	logPanelLines   = 6
	defaultWidth    = 100
	deleteFailedMsg = "Delete was not confirmed by the server."
)

// ActionService is the subset of the REST client the screen needs.
type ActionService interface {
	List(ctx context.Context) ([]domain.Action, error)
	Create(ctx context.Context, in domain.ActionInput) (domain.Action, error)
	Update(ctx context.Context, id int64, patch domain.ActionPatch) (domain.Action, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type actionsLoadedMsg struct {
	items []domain.Action
	err   error
}

type actionCreatedMsg struct {
	action domain.Action
	err    error
}

type actionUpdatedMsg struct {
	id     int64
	action domain.Action
	err    error
}

type actionDeletedMsg struct {
	id  int64
	ok  bool
	err error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook attaches the activity journal shown in the side panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithContext sets the parent context for every request the screen issues.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithAPIBase labels the header with the server the screen talks to.
func WithAPIBase(base string) AppOption {
	return func(a *App) {
		a.apiBase = strings.TrimSpace(base)
	}
}

// App is the root model.
type App struct {
	svc     ActionService
	ctx     context.Context
	tracker *tracker.Tracker
	table   actionTable
	form    actionForm
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	logbook *logbook.Logbook
	logger  *zap.Logger
	apiBase string

	modalOpen bool
	statusMsg string

	width  int
	height int
}

// NewApp builds the screen around svc. The list fetch starts from Init.
func NewApp(svc ActionService, opts ...AppOption) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle
	app := &App{
		svc:     svc,
		ctx:     context.Background(),
		tracker: tracker.New(),
		form:    newActionForm(),
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeyMap(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init starts the initial list fetch.
func (a *App) Init() tea.Cmd {
	a.logInfo("Session opened · %s", a.apiLabel())
	return a.load()
}

func (a *App) apiLabel() string {
	if a.apiBase == "" {
		return "api: default"
	}
	return "api: " + a.apiBase
}

func (a *App) load() tea.Cmd {
	a.tracker.BeginLoad()
	svc, ctx := a.svc, a.ctx
	fetch := func() tea.Msg {
		items, err := svc.List(ctx)
		return actionsLoadedMsg{items: items, err: err}
	}
	return tea.Batch(fetch, a.spinner.Tick)
}

func (a *App) create(in domain.ActionInput) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		created, err := svc.Create(ctx, in)
		return actionCreatedMsg{action: created, err: err}
	}
}

func (a *App) update(id int64, patch domain.ActionPatch) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		updated, err := svc.Update(ctx, id, patch)
		return actionUpdatedMsg{id: id, action: updated, err: err}
	}
}

func (a *App) remove(id int64) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		ok, err := svc.Delete(ctx, id)
		return actionDeletedMsg{id: id, ok: ok, err: err}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case spinner.TickMsg:
		if a.tracker.Status() != tracker.StatusLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case actionsLoadedMsg:
		a.tracker.FinishLoad(msg.items, msg.err)
		if msg.err != nil {
			a.logger.Warn("list actions failed", zap.Error(msg.err))
			a.logError("Load failed: %v", msg.err)
		} else {
			a.logger.Debug("actions loaded", zap.Int("count", a.tracker.Len()))
			a.logInfo("Loaded %d action(s)", a.tracker.Len())
		}
		a.table.sync(a.tracker.Items())
		return a, nil

	case actionCreatedMsg:
		a.form.submitting = false
		if msg.err != nil {
			a.form.err = errorText(msg.err)
			a.logger.Warn("create action failed", zap.Error(msg.err))
			a.logError("Create failed: %s", a.form.err)
			return a, nil
		}
		a.tracker.ApplyCreate(msg.action)
		a.table.sync(a.tracker.Items())
		a.form.reset()
		a.modalOpen = false
		a.statusMsg = fmt.Sprintf("Added #%d", msg.action.ID)
		a.logInfo("Created #%d %s (%d pts)", msg.action.ID, msg.action.Action, msg.action.Points)
		return a, nil

	case actionUpdatedMsg:
		row := a.table.row(msg.id)
		if msg.err != nil {
			a.logger.Warn("update action failed", zap.Int64("id", msg.id), zap.Error(msg.err))
			if row != nil {
				row.busy = false
				row.err = errorText(msg.err)
				a.logError("Update #%d failed: %s", msg.id, row.err)
			}
			return a, nil
		}
		a.tracker.ApplyUpdate(msg.id, msg.action)
		if current, ok := a.tracker.Get(msg.id); ok && row != nil {
			row.busy = false
			row.finishEdit(current)
		}
		a.table.sync(a.tracker.Items())
		a.statusMsg = fmt.Sprintf("Saved #%d", msg.id)
		a.logInfo("Updated #%d", msg.id)
		return a, nil

	case actionDeletedMsg:
		row := a.table.row(msg.id)
		if row != nil {
			row.busy = false
		}
		switch {
		case msg.err != nil:
			a.logger.Warn("delete action failed", zap.Int64("id", msg.id), zap.Error(msg.err))
			if row != nil {
				row.err = errorText(msg.err)
			}
			a.logError("Delete #%d failed: %s", msg.id, errorText(msg.err))
		case !msg.ok:
			if row != nil {
				row.err = deleteFailedMsg
			}
			a.logError("Delete #%d not confirmed", msg.id)
		default:
			a.tracker.ApplyDelete(msg.id, true)
			a.table.sync(a.tracker.Items())
			a.statusMsg = fmt.Sprintf("Deleted #%d", msg.id)
			a.logInfo("Deleted #%d", msg.id)
		}
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a, tea.Quit
		}
		if a.modalOpen {
			return a, a.handleModalKey(msg)
		}
		if row := a.table.selected(); row != nil && row.editing {
			return a, a.handleEditKey(row, msg)
		}
		return a.handleListKey(msg)
	}
	return a, nil
}

func (a *App) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		if !a.form.submitting {
			a.modalOpen = false
			a.form.err = ""
			a.form.inputs.blur()
		}
		return nil
	case key.Matches(msg, a.keys.Save):
		in, ok := a.form.submit()
		if !ok {
			return nil
		}
		return a.create(in)
	case key.Matches(msg, a.keys.NextField):
		a.form.cycle(1)
		return nil
	case key.Matches(msg, a.keys.PrevField):
		a.form.cycle(-1)
		return nil
	}
	return a.form.update(msg)
}

func (a *App) handleEditKey(row *actionRow, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		if !row.busy {
			row.cancelEdit()
		}
		return nil
	case key.Matches(msg, a.keys.Save):
		patch, ok := row.save()
		if !ok {
			return nil
		}
		return a.update(row.item.ID, patch)
	case key.Matches(msg, a.keys.NextField):
		row.cycle(1)
		return nil
	case key.Matches(msg, a.keys.PrevField):
		row.cycle(-1)
		return nil
	case msg.Type == tea.KeyUp:
		a.table.move(-1)
		return nil
	case msg.Type == tea.KeyDown:
		a.table.move(1)
		return nil
	}
	return a.table.update(msg)
}

func (a *App) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		a.table.move(-1)
	case key.Matches(msg, a.keys.Down):
		a.table.move(1)
	case key.Matches(msg, a.keys.Add):
		a.modalOpen = true
		a.form.open()
	case key.Matches(msg, a.keys.Edit):
		if row := a.table.selected(); row != nil && !row.busy {
			row.startEdit()
		}
	case key.Matches(msg, a.keys.Delete):
		if row := a.table.selected(); row != nil && !row.busy {
			row.busy = true
			row.err = ""
			return a, a.remove(row.item.ID)
		}
	case key.Matches(msg, a.keys.Refresh):
		a.statusMsg = ""
		return a, a.load()
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	if a.modalOpen {
		return renderModal(&a.form, a.width, a.height)
	}
	width := a.width
	if width <= 0 {
		width = defaultWidth
	}

	sections := []string{a.renderHeader()}
	switch a.tracker.Status() {
	case tracker.StatusLoading:
		sections = append(sections, a.spinner.View()+" "+loadingText)
	case tracker.StatusError:
		sections = append(sections, errorStyle.Render("⚠ "+a.tracker.LoadError()))
	}
	sections = append(sections, "", a.table.View())

	if logPanel := a.renderLogPanel(width); logPanel != "" {
		sections = append(sections, "", logPanel)
	}
	if a.statusMsg != "" {
		sections = append(sections, summaryStyle.Render(a.statusMsg))
	}
	sections = append(sections, "", a.renderHelp())
	return strings.Join(sections, "\n")
}

func (a *App) renderHeader() string {
	title := titleStyle.Render(appTitle)
	summary := summaryStyle.Render(fmt.Sprintf("%d %s • Total points: %d",
		a.tracker.Len(), pluralize(a.tracker.Len(), "item", "items"), a.tracker.TotalPoints()))
	api := mutedStyle.Render(a.apiLabel())
	return lipgloss.JoinVertical(lipgloss.Left, title, summary, api)
}

func (a *App) renderHelp() string {
	if row := a.table.selected(); row != nil && row.editing {
		return a.help.ShortHelpView(a.keys.editingHelp())
	}
	return a.help.View(a.keys)
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	entries, total := a.logbook.Recent(logPanelLines)
	if len(entries) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := headerCellStyle.Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, renderLogEntry(e))
	}
	return panelStyle.Width(max(20, width-4)).Render(head + "\n" + strings.Join(lines, "\n"))
}

func renderLogEntry(e logbook.Entry) string {
	stamp := "--:--:--"
	if !e.Time.IsZero() {
		stamp = e.Time.Local().Format("15:04:05")
	}
	level := fmt.Sprintf("%-5s", e.Level)
	switch e.Level {
	case logbook.LevelWarn:
		level = warnStyle.Render(level)
	case logbook.LevelError:
		level = errorStyle.Render(level)
	default:
		level = mutedStyle.Render(level)
	}
	return mutedStyle.Render(stamp) + " " + level + " " + e.Message
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
