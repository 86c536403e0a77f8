package notiflist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/theme"
)

// NotificationItem wraps a model.Notification so it can be used in a bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string { return i.Notification.Titulo }

// Title returns the notification title for the list.
func (i NotificationItem) Title() string { return i.Notification.Titulo }

// Description returns a short summary line for the list.
func (i NotificationItem) Description() string {
	parts := []string{
		i.Notification.Jogo,
		i.Notification.Subtitulo,
		i.Notification.Data,
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering notification lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}

	n := ni.Notification
	isSelected := index == m.Index()

	var prefix string
	if n.Lido {
		prefix = "○"
	} else {
		prefix = theme.UnreadStyle.Render("●")
	}

	gameBadge := theme.GameStyle(n.Jogo).Render(strings.ToUpper(n.Jogo))

	title := n.Titulo
	if !n.Lido {
		title = theme.UnreadStyle.Render(title)
	}

	dateStr := ""
	if n.Data != "" {
		dateStr = theme.HelpStyle.Render("  " + n.Data)
	}

	line := fmt.Sprintf("%s %s %s%s", prefix, gameBadge, title, dateStr)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
