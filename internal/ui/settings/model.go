package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmdgt/boletim/internal/cache"
	"github.com/hmdgt/boletim/internal/credential"
	"github.com/hmdgt/boletim/internal/keys"
	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/store"
	"github.com/hmdgt/boletim/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeMenu  Mode = iota // Action menu
	ModeToken             // Access token form
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// TokenChangedMsg signals the access token was saved or removed and the
// remote client should be rebuilt.
type TokenChangedMsg struct {
	Token string
}

// actionResultMsg carries the outcome of a menu action.
type actionResultMsg struct {
	status string
	err    error
}

const (
	actionToken       = "token"
	actionUpdate      = "update"
	actionClearCaches = "clear-caches"
	actionReset       = "reset"
	actionBack        = "back"
)

// Model is the Bubble Tea model for the settings view.
type Model struct {
	mode   Mode
	store  store.Store
	caches *cache.Manager
	cfg    model.AppConfig
	keys   *keys.KeyMap

	menuForm  *huh.Form
	tokenForm *huh.Form

	selectedAction string
	formToken      string

	statusMsg string
	errMsg    string

	width, height int
}

// New creates a new settings view model.
func New(s store.Store, caches *cache.Manager, cfg model.AppConfig, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   ModeMenu,
		store:  s,
		caches: caches,
		cfg:    cfg,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Start resets the view to the action menu.
func (m *Model) Start() tea.Cmd {
	m.mode = ModeMenu
	m.statusMsg = ""
	m.errMsg = ""
	m.menuForm = m.buildMenuForm()
	return m.menuForm.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionResultMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.statusMsg = msg.status
		}
		m.mode = ModeMenu
		m.menuForm = m.buildMenuForm()
		return m, m.menuForm.Init()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) && m.mode == ModeMenu {
			return m, func() tea.Msg { return DoneMsg{} }
		}
	}

	switch m.mode {
	case ModeMenu:
		return m.updateMenu(msg)
	case ModeToken:
		return m.updateTokenForm(msg)
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.Msg) (Model, tea.Cmd) {
	if m.menuForm == nil {
		return m, nil
	}

	mdl, cmd := m.menuForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.menuForm = f
	}

	if m.menuForm.State == huh.StateCompleted {
		return m.handleAction()
	}
	if m.menuForm.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

func (m Model) handleAction() (Model, tea.Cmd) {
	m.statusMsg = ""
	m.errMsg = ""

	switch m.selectedAction {
	case actionToken:
		m.mode = ModeToken
		m.formToken = ""
		m.tokenForm = m.buildTokenForm()
		return m, m.tokenForm.Init()

	case actionUpdate:
		caches := m.caches
		return m, func() tea.Msg {
			ctx := context.Background()
			if err := caches.SkipWaiting(ctx); err != nil {
				return actionResultMsg{err: err}
			}
			caches.Install(ctx)
			if err := caches.Activate(ctx); err != nil {
				return actionResultMsg{err: err}
			}
			return actionResultMsg{status: "Aplicação atualizada."}
		}

	case actionClearCaches:
		s := m.store
		return m, func() tea.Msg {
			if err := s.DeleteAllCaches(context.Background()); err != nil {
				return actionResultMsg{err: err}
			}
			return actionResultMsg{status: "Caches limpas."}
		}

	case actionReset:
		s := m.store
		return m, func() tea.Msg {
			ctx := context.Background()
			if err := s.DeleteAllCaches(ctx); err != nil {
				return actionResultMsg{err: err}
			}
			if err := s.ClearSettings(ctx, store.KeyLastView); err != nil {
				return actionResultMsg{err: err}
			}
			return actionResultMsg{status: "Dados locais repostos. O token mantém-se no keyring."}
		}

	case actionBack:
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, nil
}

func (m Model) updateTokenForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.tokenForm == nil {
		return m, nil
	}

	mdl, cmd := m.tokenForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.tokenForm = f
	}

	if m.tokenForm.State == huh.StateCompleted {
		token := strings.TrimSpace(m.formToken)
		m.mode = ModeMenu
		m.menuForm = m.buildMenuForm()

		return m, tea.Batch(m.menuForm.Init(), func() tea.Msg {
			if token == "" {
				if err := credential.DeleteToken(); err != nil {
					return actionResultMsg{err: err}
				}
				return TokenChangedMsg{Token: ""}
			}
			if err := credential.SetToken(token); err != nil {
				return actionResultMsg{err: err}
			}
			return TokenChangedMsg{Token: token}
		})
	}
	if m.tokenForm.State == huh.StateAborted {
		m.mode = ModeMenu
		m.menuForm = m.buildMenuForm()
		return m, m.menuForm.Init()
	}

	return m, cmd
}

// SetStatus shows a transient status line above the menu.
func (m *Model) SetStatus(status string) {
	m.statusMsg = status
	m.errMsg = ""
}

// View renders the settings view.
func (m Model) View() string {
	var sections []string

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, headerStyle.Render("Definições"))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	sections = append(sections, metaStyle.Render(fmt.Sprintf(
		"Repositório: %s (%s)", m.cfg.Remote.Repo, m.cfg.Remote.Branch,
	)))
	sections = append(sections, metaStyle.Render(
		"Cache: "+m.caches.CacheName(),
	))
	sections = append(sections, "")

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

	switch m.mode {
	case ModeToken:
		if m.tokenForm != nil {
			sections = append(sections, m.tokenForm.View())
		}
	default:
		if m.menuForm != nil {
			sections = append(sections, m.menuForm.View())
		}
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

func (m *Model) buildMenuForm() *huh.Form {
	m.selectedAction = actionToken

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Ação").
				Options(
					huh.NewOption("Configurar token de acesso", actionToken),
					huh.NewOption("Atualizar aplicação agora", actionUpdate),
					huh.NewOption("Limpar caches offline", actionClearCaches),
					huh.NewOption("Repor dados locais", actionReset),
					huh.NewOption("Voltar", actionBack),
				).
				Value(&m.selectedAction),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildTokenForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Token de acesso GitHub").
				Description("Deixe vazio para remover o token guardado.").
				EchoMode(huh.EchoModePassword).
				Value(&m.formToken),
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
