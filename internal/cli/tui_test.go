package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

func pickerIndex() *depgraph.Index {
	return depgraph.Build([]manifest.Manifest{
		{Name: "lib", Version: "1.0.0"},
		{Name: "util", Version: "2.0.0"},
		{Name: "app", Version: "1.0.0", Dependencies: map[string]string{"lib": "^1", "util": "^2"}},
		{Name: "api", Version: "1.0.0", Dependencies: map[string]string{"lib": "^1"}},
	}, depgraph.Options{})
}

func names(rows []PackageRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func send(m PackageListModel, msgs ...tea.Msg) PackageListModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(PackageListModel)
	}
	return m
}

func TestPackageListOrder(t *testing.T) {
	m := NewPackageListModel(pickerIndex())
	got := strings.Join(names(m.Visible), ",")
	if want := "lib,util,api,app"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestPackageListNavigate(t *testing.T) {
	m := NewPackageListModel(pickerIndex())
	m = send(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyDown},
	)
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.Cursor)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(PackageListModel)
	if m.Selected == nil || m.Selected.Name != "util" {
		t.Errorf("selected = %+v, want util", m.Selected)
	}
	if cmd == nil {
		t.Error("enter did not quit")
	}
}

func TestPackageListFilter(t *testing.T) {
	m := NewPackageListModel(pickerIndex())
	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ap")})
	if got := strings.Join(names(m.Visible), ","); got != "api,app" {
		t.Errorf("filtered = %s, want api,app", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if len(m.Visible) != 0 {
		t.Errorf("filtered = %v, want none", names(m.Visible))
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(PackageListModel).Selected != nil {
		t.Error("enter on an empty list selected something")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Filter != "" || len(m.Visible) != 4 {
		t.Errorf("filter = %q, visible = %d", m.Filter, len(m.Visible))
	}
}

func TestPackageListQuit(t *testing.T) {
	m := NewPackageListModel(pickerIndex())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(PackageListModel).Selected != nil || cmd == nil {
		t.Error("esc should quit without a selection")
	}
}

func TestPackageListView(t *testing.T) {
	m := NewPackageListModel(pickerIndex())
	view := m.View()
	for _, want := range []string{"Select Package", "Dependents", "lib", "[1/4]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
