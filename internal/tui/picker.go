package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionRelease
	ActionRenew
	ActionQuit
)

// expiringSoon is the remaining lease time below which a lease is
// highlighted.
const expiringSoon = 5 * time.Minute

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Lease  *state.Allocation
}

// leaseItem implements list.Item for lease display
type leaseItem struct {
	lease state.Allocation
	now   time.Time
}

func (i leaseItem) Title() string {
	if i.lease.Size == 1 {
		return fmt.Sprintf("%d", i.lease.Base)
	}
	return fmt.Sprintf("%d-%d", i.lease.Base, i.lease.End()-1)
}

func (i leaseItem) Description() string {
	ports := "ports"
	if i.lease.Size == 1 {
		ports = "port"
	}

	remaining := i.lease.Expiry().Sub(i.now)
	expiry := "expired"
	if remaining > 0 {
		expiry = "expires in " + formatRemaining(remaining)
	}
	if remaining > 0 && remaining < expiringSoon {
		expiry = warnStyle.Render(expiry)
	}

	return fmt.Sprintf("%d %s | %s", i.lease.Size, ports, expiry)
}

func (i leaseItem) FilterValue() string {
	return fmt.Sprintf("%s %d", i.lease.Label, i.lease.Base)
}

// formatRemaining renders a duration at minute precision, or seconds when
// under a minute.
func formatRemaining(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	d = d.Truncate(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// Model is the bubbletea model for the lease picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new lease picker. now is used to render remaining
// lease time.
func NewPicker(leases []state.Allocation, now time.Time) Model {
	items := buildGroupedItems(leases, now)

	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = "Forage Ports - Select Lease"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.SetStatusBarItemName("lease", "leases")

	skipHeaders(&l, 1)

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter", "d":
			return m.choose(ActionRelease)

		case "r":
			return m.choose(ActionRenew)

		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if isHeaderSelected(&m.list) {
			skipHeaders(&m.list, navigationDirection(msg))
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// choose records action on the selected lease and quits. Headers are not
// selectable, so nothing happens if one is focused.
func (m Model) choose(action Action) (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(leaseItem)
	if !ok {
		return m, nil
	}

	lease := item.lease
	m.result = PickerResult{Action: action, Lease: &lease}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter/d] Release  [r] Renew  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive lease picker
func RunPicker(leases []state.Allocation, now time.Time) (PickerResult, error) {
	if len(leases) == 0 {
		return PickerResult{Action: ActionNone}, nil
	}

	m := NewPicker(leases, now)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}
