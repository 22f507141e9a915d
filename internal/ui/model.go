package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/logbook"
	"github.com/faizmokh/worklog/internal/merge"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// queuePreview caps how many queued entries are listed under the viewport.
	queuePreview = 5
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	queueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model owns Bubble Tea state for the worklog viewer.
type Model struct {
	ctx          context.Context
	store        *logbook.Store
	orchestrator *merge.Orchestrator
	watcher      *fsnotify.Watcher

	document string
	queue    []string
	viewport viewport.Model
	input    textinput.Model
	width    int
	height   int

	mode       mode
	busy       bool
	statusLine string
	errorLine  string
}

type mode uint8

const (
	modeNormal mode = iota
	modeAddEntry
	modeConfirmUndo
)

type documentLoadedMsg struct {
	content string
	err     error
}

type mergeResultMsg struct {
	result merge.MergeResult
	err    error
}

type undoResultMsg struct {
	snapshot backup.Snapshot
	err      error
}

type fileChangedMsg struct{}

type watchErrMsg struct {
	err error
}

// NewModel seeds a Bubble Tea model with required collaborators. watcher may
// be nil, in which case external edits are only picked up on reload.
func NewModel(ctx context.Context, store *logbook.Store, orchestrator *merge.Orchestrator, watcher *fsnotify.Watcher) Model {
	input := textinput.New()
	input.Placeholder = "What did you get done?"
	input.Prompt = "> "
	input.CharLimit = 500

	m := Model{
		ctx:          ctx,
		store:        store,
		orchestrator: orchestrator,
		watcher:      watcher,
		viewport:     viewport.New(defaultWidth, defaultHeight),
		input:        input,
		width:        defaultWidth,
		height:       defaultHeight,
		mode:         modeNormal,
		busy:         true,
		statusLine:   "Loading worklog...",
	}
	m.resize()
	return m
}

// Init loads the document and starts watching for external changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.watchCmd())
}

// Update wires TUI state transitions from user input and async commands.
// The viewport is resized after every transition since the queue, prompts
// and status lines below it change height.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	model := next.(Model)
	model.resize()
	return model, cmd
}

func (m Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case documentLoadedMsg:
		return m.handleLoaded(msg)
	case mergeResultMsg:
		return m.handleMergeResult(msg)
	case undoResultMsg:
		return m.handleUndoResult(msg)
	case fileChangedMsg:
		if m.busy {
			return m, m.watchCmd()
		}
		return m, tea.Batch(m.loadCmd(), m.watchCmd())
	case watchErrMsg:
		m.errorLine = fmt.Sprintf("watch worklog: %v", msg.err)
		return m, m.watchCmd()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddEntry:
		return m.handleInputKey(msg)
	case modeConfirmUndo:
		return m.handleConfirmKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "a":
		m.mode = modeAddEntry
		m.errorLine = ""
		m.statusLine = "Add an entry (Enter to queue, Esc to cancel)"
		m.input.SetValue("")
		return m, m.input.Focus()
	case "m":
		return m.beginMerge()
	case "x":
		if len(m.queue) == 0 {
			return m, nil
		}
		m.statusLine = fmt.Sprintf("Cleared %d queued entr%s.", len(m.queue), plural(len(m.queue)))
		m.queue = nil
		return m, nil
	case "u":
		if m.busy {
			return m, nil
		}
		m.mode = modeConfirmUndo
		m.errorLine = ""
		return m, nil
	case "r":
		m.busy = true
		m.statusLine = "Reloading..."
		m.errorLine = ""
		return m, m.loadCmd()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input.Blur()
		m.statusLine = "Cancelled."
		return m, nil
	case tea.KeyEnter:
		entry := strings.TrimSpace(m.input.Value())
		m.mode = modeNormal
		m.input.Blur()
		m.input.SetValue("")
		if entry == "" {
			m.statusLine = "Nothing to add."
			return m, nil
		}
		m.queue = append(m.queue, entry)
		m.statusLine = fmt.Sprintf("Queued %d entr%s. Press m to merge.", len(m.queue), plural(len(m.queue)))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y", "Y":
		m.mode = modeNormal
		m.busy = true
		m.statusLine = "Restoring previous version..."
		return m, m.undoCmd()
	case "n", "N", "esc":
		m.mode = modeNormal
		m.statusLine = "Undo cancelled."
	}
	return m, nil
}

func (m Model) beginMerge() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if len(m.queue) == 0 {
		m.errorLine = "No queued entries. Press a to add one."
		return m, nil
	}
	m.busy = true
	m.errorLine = ""
	m.statusLine = fmt.Sprintf("Merging %d entr%s...", len(m.queue), plural(len(m.queue)))
	return m, m.mergeCmd(append([]string(nil), m.queue...))
}

func (m Model) handleLoaded(msg documentLoadedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errorLine = msg.err.Error()
		return m, nil
	}
	m.setDocument(msg.content)
	m.statusLine = fmt.Sprintf("Loaded %s", filepath.Base(m.store.Path()))
	return m, nil
}

func (m Model) handleMergeResult(msg mergeResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		// The queue is kept so the merge can be retried.
		m.errorLine = fmt.Sprintf("merge failed: %v", msg.err)
		if msg.result.Snapshot.Name != "" {
			m.statusLine = "Backup " + msg.result.Snapshot.Name + " was kept."
		}
		return m, nil
	}
	m.queue = nil
	m.setDocument(msg.result.Content)
	m.statusLine = fmt.Sprintf("Merged %d entr%s (backup %s)", len(msg.result.Entries), plural(len(msg.result.Entries)), msg.result.Snapshot.Name)
	return m, nil
}

func (m Model) handleUndoResult(msg undoResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.busy = false
		if errors.Is(msg.err, backup.ErrNoBackups) {
			m.errorLine = "Nothing to undo."
			return m, nil
		}
		m.errorLine = fmt.Sprintf("undo failed: %v", msg.err)
		return m, nil
	}
	m.statusLine = "Restored " + msg.snapshot.Name
	return m, m.loadCmd()
}

func (m *Model) setDocument(content string) {
	m.document = content
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m Model) loadCmd() tea.Cmd {
	store := m.store
	ctx := m.ctx
	return func() tea.Msg {
		content, err := store.Read(ctx)
		return documentLoadedMsg{content: content, err: err}
	}
}

func (m Model) mergeCmd(entries []string) tea.Cmd {
	orchestrator := m.orchestrator
	ctx := m.ctx
	return func() tea.Msg {
		result, err := orchestrator.Merge(ctx, entries)
		return mergeResultMsg{result: result, err: err}
	}
}

func (m Model) undoCmd() tea.Cmd {
	store := m.store
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := store.Undo(ctx)
		return undoResultMsg{snapshot: snap, err: err}
	}
}

// watchCmd waits for the next change to the worklog file. The watcher is
// expected to observe the containing directory since writes rename over
// the file.
func (m Model) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	watcher := m.watcher
	target := m.store.Path()
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					return fileChangedMsg{}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

// Watch returns a watcher on the directory holding path.
func Watch(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// resize gives the viewport whatever rows the header and footer leave free.
func (m *Model) resize() {
	chrome := strings.Count(m.header(), "\n") + strings.Count(m.footer(), "\n")
	m.viewport.Height = max(m.height-chrome, 1)
	m.viewport.SetYOffset(m.viewport.YOffset)
}

// View renders the frame.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	if m.document == "" && m.busy {
		b.WriteString("Loading...\n")
	} else {
		b.WriteString(m.viewport.View())
		b.WriteByte('\n')
	}
	b.WriteString(m.footer())

	return b.String()
}

func (m Model) header() string {
	return titleStyle.Render("Worklog  "+m.store.Path()) + "\n\n"
}

func (m Model) footer() string {
	var b strings.Builder

	if len(m.queue) > 0 {
		b.WriteString("\n")
		b.WriteString(queueStyle.Render(fmt.Sprintf("Queued (%d):", len(m.queue))))
		b.WriteByte('\n')
		shown := m.queue
		if hidden := len(shown) - queuePreview; hidden > 0 {
			b.WriteString(queueStyle.Render(fmt.Sprintf("  ... %d earlier", hidden)))
			b.WriteByte('\n')
			shown = shown[hidden:]
		}
		for _, entry := range shown {
			b.WriteString(queueStyle.Render("  - " + entry))
			b.WriteByte('\n')
		}
	}

	if m.errorLine != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("! " + m.errorLine))
		b.WriteByte('\n')
	} else if m.statusLine != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.statusLine))
		b.WriteByte('\n')
	}

	switch m.mode {
	case modeAddEntry:
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteByte('\n')
	case modeConfirmUndo:
		b.WriteString("\n")
		b.WriteString("Restore the most recent backup? (y/n)")
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("a add  x clear  m merge  u undo  r reload  j/k scroll  q quit"))
	b.WriteByte('\n')

	return b.String()
}

func plural(count int) string {
	if count == 1 {
		return "y"
	}
	return "ies"
}
