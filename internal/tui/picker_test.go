package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

var testNow = time.Unix(1_760_000_000, 0)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{1500 * time.Millisecond, "1s"},
		{90 * time.Second, "1m"},
		{59 * time.Minute, "59m"},
		{2*time.Hour + 5*time.Minute + 10*time.Second, "2h05m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatRemaining(tt.d); got != tt.want {
				t.Errorf("formatRemaining(%s) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestLeaseItemMethods(t *testing.T) {
	item := leaseItem{
		lease: state.Allocation{Base: 10000, Size: 3, ExpiresAt: testNow.Add(2 * time.Hour).Unix(), Label: "ci-42"},
		now:   testNow,
	}

	t.Run("Title", func(t *testing.T) {
		if got := item.Title(); got != "10000-10002" {
			t.Errorf("Title() = %q, want %q", got, "10000-10002")
		}
	})

	t.Run("Title single port", func(t *testing.T) {
		single := leaseItem{lease: state.Allocation{Base: 10000, Size: 1}, now: testNow}
		if got := single.Title(); got != "10000" {
			t.Errorf("Title() = %q, want %q", got, "10000")
		}
	})

	t.Run("FilterValue", func(t *testing.T) {
		got := item.FilterValue()
		if !strings.Contains(got, "ci-42") || !strings.Contains(got, "10000") {
			t.Errorf("FilterValue() = %q, want label and base", got)
		}
	})

	t.Run("Description", func(t *testing.T) {
		desc := item.Description()
		if !strings.Contains(desc, "3 ports") {
			t.Error("Description should contain the port count")
		}
		if !strings.Contains(desc, "expires in 2h00m") {
			t.Errorf("Description should contain remaining time, got %q", desc)
		}
	})

	t.Run("Description expired", func(t *testing.T) {
		expired := leaseItem{lease: state.Allocation{Base: 10000, Size: 1, ExpiresAt: testNow.Unix()}, now: testNow}
		desc := expired.Description()
		if !strings.Contains(desc, "1 port |") {
			t.Errorf("Description should use singular port, got %q", desc)
		}
		if !strings.Contains(desc, "expired") {
			t.Error("Description should mark the lease expired")
		}
	})
}

func testLeases() []state.Allocation {
	return []state.Allocation{
		{Base: 10000, Size: 2, ExpiresAt: testNow.Add(time.Hour).Unix(), Label: "api"},
		{Base: 10002, Size: 4, ExpiresAt: testNow.Add(time.Hour).Unix(), Label: "web"},
	}
}

func TestNewPickerSelectsFirstLease(t *testing.T) {
	m := NewPicker(testLeases(), testNow)

	if _, ok := m.list.SelectedItem().(leaseItem); !ok {
		t.Errorf("initial selection should skip the header, got %T", m.list.SelectedItem())
	}
}

func TestModelKeyHandling(t *testing.T) {
	t.Run("release with enter", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := newModel.(Model)

		if model.result.Action != ActionRelease {
			t.Errorf("Action = %v, want ActionRelease", model.result.Action)
		}
		if model.result.Lease == nil || model.result.Lease.Base != 10000 {
			t.Errorf("Lease = %+v, want base 10000", model.result.Lease)
		}
		if !model.quitting {
			t.Error("Model should be quitting")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("release with d", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
		model := newModel.(Model)

		if model.result.Action != ActionRelease {
			t.Errorf("Action = %v, want ActionRelease", model.result.Action)
		}
	})

	t.Run("renew with r", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
		model := newModel.(Model)

		if model.result.Action != ActionRenew {
			t.Errorf("Action = %v, want ActionRenew", model.result.Action)
		}
	})

	t.Run("down skips header", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		model := newModel.(Model)

		item, ok := model.list.SelectedItem().(leaseItem)
		if !ok {
			t.Fatalf("selection landed on %T", model.list.SelectedItem())
		}
		if item.lease.Base != 10002 {
			t.Errorf("selected base = %d, want 10002", item.lease.Base)
		}
	})

	t.Run("quit with q", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
		if model.result.Lease != nil {
			t.Error("Quit should not carry a lease")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("quit with esc", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
	})

	t.Run("window size update", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		newModel, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
		model := newModel.(Model)

		if model.width != 100 || model.height != 50 {
			t.Errorf("size = %dx%d, want 100x50", model.width, model.height)
		}
		if cmd != nil {
			t.Error("Window size update should not return a command")
		}
	})
}

func TestModelInit(t *testing.T) {
	m := Model{}
	if cmd := m.Init(); cmd != nil {
		t.Error("Init() should return nil")
	}
}

func TestModelView(t *testing.T) {
	t.Run("normal view contains help", func(t *testing.T) {
		view := NewPicker(testLeases(), testNow).View()

		if !strings.Contains(view, "Release") {
			t.Error("View should contain release help")
		}
		if !strings.Contains(view, "[r] Renew") {
			t.Error("View should contain renew help")
		}
		if !strings.Contains(view, "[q] Quit") {
			t.Error("View should contain quit help")
		}
	})

	t.Run("quitting view is empty", func(t *testing.T) {
		m := NewPicker(testLeases(), testNow)
		m.quitting = true
		if view := m.View(); view != "" {
			t.Errorf("Quitting view should be empty, got %q", view)
		}
	})
}

func TestRunPickerEmptyLeases(t *testing.T) {
	result, err := RunPicker(nil, testNow)
	if err != nil {
		t.Fatalf("RunPicker with no leases failed: %v", err)
	}

	if result.Action != ActionNone {
		t.Errorf("No leases should return ActionNone, got %v", result.Action)
	}
}

func TestActionConstants(t *testing.T) {
	actions := []Action{ActionNone, ActionRelease, ActionRenew, ActionQuit}
	seen := make(map[Action]bool)

	for _, a := range actions {
		if seen[a] {
			t.Errorf("Duplicate action value: %v", a)
		}
		seen[a] = true
	}
}
