// Package lockview is a terminal inspector for running scenarios. It shows
// each structure's fields with their current value, owner, hold count and
// waiter queue, refreshing as snapshots arrive.
package lockview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	"github.com/isharak/ballerina/pkg/debug/ui"
	"github.com/isharak/ballerina/pkg/scenario"
)

var keys = ui.CommonKeys

// SnapshotMsg delivers a new lock-table snapshot to the model.
type SnapshotMsg scenario.Snapshot

// DoneMsg reports that the scenario finished.
type DoneMsg struct {
	Result scenario.Result
	Err    error
}

// Model is the bubbletea model of the inspector.
type Model struct {
	title    string
	snap     scenario.Snapshot
	received int
	selected int
	paused   bool
	done     *DoneMsg

	viewport viewport.Model
	help     help.Model
	width    int
	height   int
	ready    bool
}

// New creates an inspector titled after the scenario it watches.
func New(title string) Model {
	return Model{
		title: title,
		help:  help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.received++
		if !m.paused {
			m.snap = scenario.Snapshot(msg)
			m.clampSelection()
			m.refresh()
		}
		return m, nil

	case DoneMsg:
		m.done = &msg
		if len(msg.Result.Final.Structures) > 0 {
			m.snap = msg.Result.Final
			m.clampSelection()
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport = viewport.New(max(10, msg.Width-4), max(3, msg.Height-12))
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
			return m, nil
		case key.Matches(msg, keys.Right):
			if n := len(m.snap.Structures); n > 0 {
				m.selected = (m.selected + 1) % n
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, keys.Left):
			if n := len(m.snap.Structures); n > 0 {
				m.selected = (m.selected - 1 + n) % n
				m.refresh()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snap.Structures) {
		m.selected = 0
	}
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderFields())
	}
}

// Selected returns the structure currently shown, if any.
func (m Model) Selected() (scenario.StructureView, bool) {
	if m.selected < 0 || m.selected >= len(m.snap.Structures) {
		return scenario.StructureView{}, false
	}
	return m.snap.Structures[m.selected], true
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(ui.RenderTitle("🔒", "Field Lock Inspector: "+m.title) + "\n")

	if m.done != nil && m.done.Err != nil {
		b.WriteString(ui.RenderError(m.done.Err) + "\n")
	}

	if len(m.snap.Structures) == 0 {
		b.WriteString("Waiting for the first snapshot...\n")
		b.WriteString(ui.HelpStyle.Render(m.help.View(keys)))
		return b.String()
	}

	b.WriteString(m.renderTabs() + "\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderFields())
	}
	b.WriteString("\n" + m.renderStatusBar())
	b.WriteString("\n" + ui.HelpStyle.Render(m.help.View(keys)))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.snap.Structures))
	for i, sv := range m.snap.Structures {
		label := fmt.Sprintf("%s#%d", sv.Type, sv.ID)
		if i == m.selected {
			tabs[i] = ui.SelectedItemStyle.Render(label)
		} else {
			tabs[i] = ui.ItemStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFields() string {
	sv, ok := m.Selected()
	if !ok {
		return ""
	}

	headers := []string{"FIELD", "KIND", "VALUE", "OWNER", "HOLD", "WAITERS"}
	widths := []int{12, 8, 24, 8, 4, 24}
	rows := make([][]string, len(sv.Fields))
	for i, f := range sv.Fields {
		rows[i] = []string{
			f.Name,
			fmt.Sprintf("%s[%d]", f.Kind, f.Index),
			f.Value,
			f.Owner.String(),
			strconv.Itoa(f.HoldCount),
			formatWaiters(f.Waiters),
		}
	}

	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount(sv.Type+" fields", len(sv.Fields)) + "\n")
	b.WriteString(ui.RenderTable(headers, rows, widths, func(row int) bool {
		return sv.Fields[row].Held()
	}))
	return b.String()
}

func formatWaiters(ids []worker.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " ← ")
}

func (m Model) renderStatusBar() string {
	state := "running"
	switch {
	case m.done != nil && m.done.Err != nil:
		state = "failed"
	case m.done != nil && m.done.Result.OK():
		state = "finished ok"
	case m.done != nil:
		state = "INVARIANT VIOLATED"
	case m.paused:
		state = "paused"
	}

	st := m.snap.Stats
	text := fmt.Sprintf("%s │ snapshots %d │ acquisitions %d │ contended %d │ cancelled %d │ parked now %d",
		state, m.received, st.Acquisitions, st.Contended, st.Cancelled, m.snap.Waiting)
	return ui.RenderStatusBar(text)
}
