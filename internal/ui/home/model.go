package home

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmdgt/boletim/internal/keys"
	"github.com/hmdgt/boletim/internal/theme"
	"github.com/hmdgt/boletim/internal/upload"
)

// UploadedMsg carries the result of a photo upload.
type UploadedMsg struct {
	Path string
	Err  error
}

// Model is the home dashboard view. It shows the unread summary and
// hosts the bet photo upload flow.
type Model struct {
	uploader *upload.Uploader
	keys     *keys.KeyMap

	unread   int
	pending  int
	hasToken bool
	offline  bool

	uploadForm *huh.Form
	formPath   string
	uploading  bool
	statusMsg  string
	errMsg     string

	width  int
	height int
}

// New creates the home view model.
func New(u *upload.Uploader, k *keys.KeyMap, hasToken bool, width, height int) Model {
	return Model{
		uploader: u,
		keys:     k,
		hasToken: hasToken,
		width:    width,
		height:   height,
	}
}

// SetUnread updates the unread notification count shown on the dashboard.
func (m *Model) SetUnread(count int) {
	m.unread = count
}

// SetPending updates the count of boletins awaiting validation.
func (m *Model) SetPending(count int) {
	m.pending = count
}

// SetOffline toggles the offline indicator.
func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

// FormActive reports whether the upload form currently has input focus.
func (m Model) FormActive() bool {
	return m.uploadForm != nil
}

// Update handles messages for the home view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UploadedMsg:
		m.uploading = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		} else {
			m.statusMsg = "Fotografia enviada: " + msg.Path
			m.errMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.uploadForm != nil {
			return m.updateUploadForm(msg)
		}
		if key.Matches(msg, m.keys.Upload) {
			m.statusMsg = ""
			m.errMsg = ""
			m.formPath = ""
			m.uploadForm = m.buildUploadForm()
			return m, m.uploadForm.Init()
		}
	}

	if m.uploadForm != nil {
		return m.updateUploadForm(msg)
	}
	return m, nil
}

func (m Model) updateUploadForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.uploadForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.uploadForm = f
	}

	if m.uploadForm.State == huh.StateCompleted {
		path := strings.TrimSpace(m.formPath)
		m.uploadForm = nil
		if path == "" {
			return m, nil
		}
		m.uploading = true
		u := m.uploader
		return m, func() tea.Msg {
			name, err := u.Upload(context.Background(), path)
			return UploadedMsg{Path: name, Err: err}
		}
	}
	if m.uploadForm.State == huh.StateAborted {
		m.uploadForm = nil
		return m, nil
	}

	return m, cmd
}

// View renders the home dashboard.
func (m Model) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, titleStyle.Render("Boletins de apostas"))

	if m.offline {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render("⚠ Sem ligação. A mostrar dados em cache."))
		sections = append(sections, "")
	}

	if m.unread > 0 {
		sections = append(sections, theme.UnreadStyle.Render(fmt.Sprintf(
			"● %d notificações por ler", m.unread,
		)))
	} else {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("Sem notificações novas."))
	}
	if m.pending > 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorOrange).
			Render(fmt.Sprintf("✎ %d boletins por validar", m.pending)))
	}
	sections = append(sections, "")

	if !m.hasToken {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render("Sem token configurado. Apenas leitura ('s' para definições)."))
		sections = append(sections, "")
	}

	if m.uploading {
		sections = append(sections, "A enviar fotografia...")
		sections = append(sections, "")
	}
	if m.statusMsg != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGreen).
			Render(m.statusMsg))
		sections = append(sections, "")
	}
	if m.errMsg != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("Erro: "+m.errMsg))
		sections = append(sections, "")
	}

	if m.uploadForm != nil {
		sections = append(sections, m.uploadForm.View())
	} else {
		hintStyle := theme.HelpStyle
		sections = append(sections,
			hintStyle.Render("n  notificações"),
			hintStyle.Render("v  validação de apostas"),
			hintStyle.Render("u  enviar fotografia de aposta"),
			hintStyle.Render("s  definições"),
		)
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildUploadForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fotografia da aposta").
				Description("Caminho local do ficheiro a enviar.").
				Placeholder("/caminho/para/foto.png").
				Value(&m.formPath),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}
