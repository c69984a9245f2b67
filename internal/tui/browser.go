// Package tui is an interactive browser over a saved comparison
// report: arrow keys walk the entries, "/" filters by table, column or
// category text.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schemadrift/schemadrift/internal/schema"
)

// Model is the Bubble Tea model for the report browser.
type Model struct {
	run      *schema.ComparisonRun
	visible  []schema.DiffEntry
	cursor   int
	filter   textinput.Model
	filtered bool
	height   int
}

// New builds a browser over a finished run.
func New(run *schema.ComparisonRun) Model {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.CharLimit = 64

	m := Model{run: run, filter: ti, height: 24}
	m.applyFilter("")
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.applyFilter(m.filter.Value())
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil

		case "/":
			m.filter.Focus()
			return m, textinput.Blink

		case "esc":
			m.filter.SetValue("")
			m.applyFilter("")
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s vs %s: %d difference(s), %d error(s)\n",
		m.run.LeftName, m.run.RightName, len(m.run.Entries), len(m.run.Errors))
	if m.filter.Focused() || m.filter.Value() != "" {
		fmt.Fprintf(&b, "/%s\n", m.filter.View())
	}
	b.WriteString("\n")

	rows := m.height - 6
	if rows < 5 {
		rows = 5
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}

	end := start + rows
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := start; i < end; i++ {
		e := m.visible[i]
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		subject := e.Subject
		if subject == "" {
			subject = "(table)"
		}
		fmt.Fprintf(&b, "%s%-30s %-24s %-24s %s\n", marker, e.Table, subject, e.Category, e.Detail)
	}

	if len(m.visible) == 0 {
		b.WriteString("  no entries match\n")
	}

	b.WriteString("\n↑/↓ move · / filter · esc clear · q quit\n")
	return b.String()
}

// applyFilter rebuilds the visible slice; matching is a case-folded
// substring test over every entry field.
func (m *Model) applyFilter(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	m.visible = m.visible[:0]
	for _, e := range m.run.Entries {
		if query == "" || entryMatches(e, query) {
			m.visible = append(m.visible, e)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
}

func entryMatches(e schema.DiffEntry, query string) bool {
	for _, field := range []string{e.Table, e.Subject, string(e.Category), e.Detail} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Run starts the browser and blocks until the user quits.
func Run(run *schema.ComparisonRun) error {
	p := tea.NewProgram(New(run))
	_, err := p.Run()
	return err
}
