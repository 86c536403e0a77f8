package notiflist

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmdgt/boletim/internal/keys"
	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/notify"
	"github.com/hmdgt/boletim/internal/theme"
)

// Mode selects which notification list is displayed.
type Mode int

const (
	ModeActive Mode = iota
	ModeHistory
)

// LoadedMsg is sent when notifications have been fetched from the remote store.
type LoadedMsg struct {
	Mode          Mode
	Notifications []model.Notification
}

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	Notification model.Notification
}

// Model is the notification list view component.
type Model struct {
	list    list.Model
	store   *notify.Store
	keys    *keys.KeyMap
	mode    Mode
	loading bool
	width   int
	height  int
}

// New creates a new notification list model showing the active list.
func New(s *notify.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notificações"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		mode:   ModeActive,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the active notifications.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Mode reports which list the view is currently showing.
func (m Model) Mode() Mode {
	return m.mode
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Mode != m.mode {
			return m, nil
		}
		m.loading = false
		items := make([]list.Item, len(msg.Notifications))
		for i, n := range msg.Notifications {
			items[i] = NotificationItem{Notification: n}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(NotificationItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedMsg{Notification: item.Notification}
			}

		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()

		case msg.String() == "tab":
			if m.mode == ModeActive {
				m.mode = ModeHistory
				m.list.Title = "Histórico"
			} else {
				m.mode = ModeActive
				m.list.Title = "Notificações"
			}
			m.list.SetItems(nil)
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the list has no entries.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return style.Render("A carregar notificações...")
	}
	if m.mode == ModeHistory {
		return style.Render("Sem histórico de notificações.")
	}
	return style.Render("Sem notificações novas.\n\nPressione 'r' para atualizar.")
}

// Load returns a tea.Cmd that fetches the current mode's list from the remote.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	mode := m.mode
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		if mode == ModeHistory {
			return LoadedMsg{Mode: mode, Notifications: s.LoadHistory(ctx)}
		}
		return LoadedMsg{Mode: mode, Notifications: s.LoadActive(ctx)}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
