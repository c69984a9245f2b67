package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schemadrift/schemadrift/internal/schema"
)

func testRun() *schema.ComparisonRun {
	return &schema.ComparisonRun{
		LeftName:  "git",
		RightName: "warehouse",
		Entries: []schema.DiffEntry{
			{Table: "S.USERS", Subject: "EMAIL", Category: schema.LengthMismatch, Detail: "max length 50 vs 100"},
			{Table: "S.USERS", Subject: "ID", Category: schema.TypeMismatch, Detail: "type INT vs BIGINT"},
			{Table: "S.ORDERS", Subject: "", Category: schema.MissingInRight, Detail: "table S.ORDERS exists only in git"},
		},
	}
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("Update returned unexpected model type %T", next)
		}
	}
	return m
}

func TestView_ShowsAllEntries(t *testing.T) {
	m := New(testRun())
	out := m.View()

	for _, want := range []string{"git vs warehouse", "3 difference(s)", "S.USERS", "(table)"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestNavigation(t *testing.T) {
	m := New(testRun())
	m = update(t, m, key("down"), key("down"))

	out := m.View()
	if !strings.Contains(out, "> S.ORDERS") {
		t.Errorf("cursor did not reach the third entry:\n%s", out)
	}

	// Moving past the end stays put.
	m = update(t, m, key("j"))
	if got := m.View(); !strings.Contains(got, "> S.ORDERS") {
		t.Errorf("cursor moved past the last entry:\n%s", got)
	}

	m = update(t, m, key("up"), key("k"))
	if got := m.View(); !strings.Contains(got, "> S.USERS") {
		t.Errorf("cursor did not move back up:\n%s", got)
	}
}

func TestFilter(t *testing.T) {
	m := New(testRun())
	m = update(t, m, key("/"))
	for _, r := range "orders" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()
	if strings.Contains(out, "S.USERS") {
		t.Errorf("filter should hide non-matching entries:\n%s", out)
	}
	if !strings.Contains(out, "S.ORDERS") {
		t.Errorf("filter hid matching entry:\n%s", out)
	}

	// esc clears the filter.
	m = update(t, m, key("esc"))
	if got := m.View(); !strings.Contains(got, "S.USERS") {
		t.Errorf("clearing the filter should restore all entries:\n%s", got)
	}
}

func TestFilter_NoMatches(t *testing.T) {
	m := New(testRun())
	m = update(t, m, key("/"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.View(); !strings.Contains(got, "no entries match") {
		t.Errorf("expected empty-state line:\n%s", got)
	}
}

func TestQuit(t *testing.T) {
	m := New(testRun())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("expected quit message, got %#v", msg)
	}
}
