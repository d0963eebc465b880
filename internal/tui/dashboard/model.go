// Package dashboard is the live terminal dashboard: a refresh loop around
// the dashboard view model.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/user-dev-arch/MarketSentimentApp/internal/viewmodel"
)

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// keyMap holds the dashboard key bindings.
type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// Model is the Bubble Tea model for the live dashboard
type Model struct {
	VM *viewmodel.Dashboard

	Width  int
	Height int

	State       viewmodel.DashboardState
	Loading     bool
	LastRefresh time.Time
	Err         error

	RefreshInterval time.Duration
	Timeout         time.Duration

	spinner spinner.Model
	help    help.Model
}

// TickMsg triggers a data refresh
type TickMsg time.Time

// RefreshDataMsg carries refreshed data
type RefreshDataMsg struct {
	State     viewmodel.DashboardState
	Err       error
	Timestamp time.Time
}

// NewModel creates a new dashboard model
func NewModel(vm *viewmodel.Dashboard, interval, timeout time.Duration) Model {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle
	return Model{
		VM:              vm,
		Loading:         true,
		RefreshInterval: interval,
		Timeout:         timeout,
		spinner:         sp,
		help:            help.New(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchData(),
		m.scheduleTick(),
		m.spinner.Tick,
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.Loading = true
		return m, tea.Batch(m.fetchData(), m.scheduleTick())

	case RefreshDataMsg:
		m.State = msg.State
		m.Err = msg.Err
		m.LastRefresh = msg.Timestamp
		m.Loading = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes key input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Refresh):
		m.Loading = true
		return m, m.fetchData()
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// fetchData loads every dashboard list through the view model.
func (m Model) fetchData() tea.Cmd {
	vm, timeout := m.VM, m.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := vm.LoadAll(ctx)
		return RefreshDataMsg{State: vm.State(), Err: err, Timestamp: time.Now()}
	}
}

// scheduleTick returns a command that sends a TickMsg after the refresh interval
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
