package validatelist

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmdgt/boletim/internal/keys"
	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/theme"
	"github.com/hmdgt/boletim/internal/validate"
)

// GroupItem is one pending image group awaiting human validation.
type GroupItem struct {
	Image   string
	Records []model.BetRecord
}

// FilterValue returns the string used for fuzzy filtering.
func (g GroupItem) FilterValue() string { return g.Image }

// gameSummary lists the distinct game types in the group, in fixed order.
func (g GroupItem) gameSummary() string {
	seen := make(map[model.GameType]bool)
	for _, r := range g.Records {
		seen[r.TipoFicheiro] = true
	}
	var parts []string
	for _, gt := range model.GameTypes {
		if seen[gt] {
			parts = append(parts, string(gt))
		}
	}
	return strings.Join(parts, ", ")
}

// itemDelegate renders one pending group per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	g, ok := item.(GroupItem)
	if !ok {
		return
	}

	countBadge := theme.UnreadStyle.Render(fmt.Sprintf("%d", len(g.Records)))

	line := fmt.Sprintf(
		"%s  %s  %s",
		g.Image,
		countBadge,
		theme.HelpStyle.Render(g.gameSummary()),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// PendingLoadedMsg carries the pending groups fetched from the remote.
type PendingLoadedMsg struct {
	Groups []GroupItem
}

// SelectedMsg is sent when the user opens a group for validation.
type SelectedMsg struct {
	Group GroupItem
}

// Model is the pending-validation list view component.
type Model struct {
	list     list.Model
	workflow *validate.Workflow
	keys     *keys.KeyMap
	loading  bool
	width    int
	height   int
}

// New creates a new validation list model.
func New(wf *validate.Workflow, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Validação de apostas"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		workflow: wf,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns a command that loads the pending groups.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the validation list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PendingLoadedMsg:
		m.loading = false
		items := make([]list.Item, len(msg.Groups))
		for i, g := range msg.Groups {
			items[i] = g
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			g, ok := m.list.SelectedItem().(GroupItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedMsg{Group: g}
			}

		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the validation list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return style.Render("A carregar apostas pendentes...")
	}
	return style.Render("Sem apostas por validar.\n\nPressione 'r' para atualizar.")
}

// Load returns a tea.Cmd that fetches pending bets grouped by source image.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	wf := m.workflow
	return func() tea.Msg {
		groups := wf.ListPending(context.Background())

		images := make([]string, 0, len(groups))
		for img := range groups {
			images = append(images, img)
		}
		sort.Strings(images)

		items := make([]GroupItem, 0, len(images))
		for _, img := range images {
			items = append(items, GroupItem{Image: img, Records: groups[img]})
		}
		return PendingLoadedMsg{Groups: items}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
