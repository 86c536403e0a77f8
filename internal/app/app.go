package app

import (
	"context"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hmdgt/boletim/internal/badge"
	"github.com/hmdgt/boletim/internal/cache"
	"github.com/hmdgt/boletim/internal/keys"
	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/notify"
	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/internal/store"
	"github.com/hmdgt/boletim/internal/ui"
	"github.com/hmdgt/boletim/internal/ui/help"
	"github.com/hmdgt/boletim/internal/ui/home"
	"github.com/hmdgt/boletim/internal/ui/notifdetail"
	"github.com/hmdgt/boletim/internal/ui/notiflist"
	"github.com/hmdgt/boletim/internal/ui/settings"
	"github.com/hmdgt/boletim/internal/ui/validateform"
	"github.com/hmdgt/boletim/internal/ui/validatelist"
	"github.com/hmdgt/boletim/internal/upload"
	"github.com/hmdgt/boletim/internal/validate"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewNotifications
	ViewDetail
	ViewValidationList
	ViewValidationForm
	ViewSettings
	ViewHelp
)

// markReadResultMsg carries the outcome of marking a notification read.
type markReadResultMsg struct {
	id  string
	err error
}

// confirmResultMsg carries the outcome of a validation batch write.
type confirmResultMsg struct {
	image string
	err   error
}

// pendingCountMsg carries the number of boletins awaiting validation.
type pendingCountMsg struct {
	count int
}

// connectivityMsg reports whether the content host was reachable.
type connectivityMsg struct {
	offline bool
}

// lastViewMsg restores the top-level view persisted on last exit.
type lastViewMsg struct {
	view ViewState
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the shared remote and local services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	cfg           *model.AppConfig
	store         store.Store
	client        *remote.Client
	notifications *notify.Store
	workflow      *validate.Workflow
	caches        *cache.Manager
	poller        *badge.Poller

	homeView     home.Model
	notifList    notiflist.Model
	detailView   notifdetail.Model
	validateList validatelist.Model
	validateForm validateform.Model
	settingsView settings.Model
	helpView     help.Model

	ready       bool
	unreadCount int
	statusMsg   string
}

// New creates the root application model wired to the given services.
func New(cfg *model.AppConfig, s store.Store, client *remote.Client, caches *cache.Manager) Model {
	k := keys.DefaultKeyMap()

	notifications := notify.NewStore(client)
	workflow := validate.NewWorkflow(client)
	uploader := upload.NewUploader(client)

	interval := time.Duration(cfg.Badge.PollIntervalSec) * time.Second
	poller := badge.New(notifications, s, interval, cfg.Badge.FullRefreshEvery)

	return Model{
		currentView:   ViewHome,
		keys:          k,
		cfg:           cfg,
		store:         s,
		client:        client,
		notifications: notifications,
		workflow:      workflow,
		caches:        caches,
		poller:        poller,
		homeView:      home.New(uploader, k, client.HasToken(), 80, 24),
		notifList:     notiflist.New(notifications, k, 80, 24),
		detailView:    notifdetail.New(k, 80, 24),
		validateList:  validatelist.New(workflow, k, 80, 24),
		validateForm:  validateform.New(80, 24),
		settingsView:  settings.New(s, caches, *cfg, k, 80, 24),
		helpView:      help.New(k, 80, 24),
	}
}

// Init starts the badge poller and restores the last opened view.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.poller.Start(),
		m.checkConnectivity(),
		m.loadPendingCount(),
		m.loadLastView(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.homeView.SetSize(w, h)
		m.notifList.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.validateList.SetSize(w, h)
		m.validateForm.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can resize too.
		return m.updateActiveView(msg)

	case tea.FocusMsg:
		m.poller.Resume()
		return m, tea.Batch(m.checkConnectivity(), m.loadPendingCount())

	case tea.BlurMsg:
		m.poller.Suspend()
		return m, nil

	case badge.CountMsg:
		m.unreadCount = msg.Count
		m.homeView.SetUnread(msg.Count)
		return m, m.poller.WaitForNextCount()

	case pendingCountMsg:
		m.homeView.SetPending(msg.count)
		return m, nil

	case connectivityMsg:
		m.homeView.SetOffline(msg.offline)
		return m, nil

	case lastViewMsg:
		return m.switchTo(msg.view)

	case notiflist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetNotification(msg.Notification)
		if m.notifList.Mode() == notiflist.ModeActive && !msg.Notification.Lido {
			return m, m.markAsRead(msg.Notification.ID)
		}
		return m, nil

	case markReadResultMsg:
		if msg.err != nil {
			if remote.IsAuthError(msg.err) {
				m.statusMsg = "Sem autorização para escrever. Verifique o token nas definições."
			} else {
				m.statusMsg = "Falha ao marcar como lida: " + msg.err.Error()
			}
			return m, nil
		}
		m.statusMsg = ""
		m.poller.Refresh()
		return m, m.notifList.Load()

	case notifdetail.BackMsg:
		m.currentView = ViewNotifications
		return m, m.persistView(ViewNotifications)

	case validatelist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewValidationForm
		binary, enhanced := upload.PreprocessedPaths(msg.Group.Image)
		refs := []string{
			m.cfg.Remote.RawURL(binary),
			m.cfg.Remote.RawURL(enhanced),
		}
		m.validateForm.SetReferences(refs)
		return m, tea.Batch(
			m.validateForm.Start(msg.Group.Image, msg.Group.Records),
			m.warmCache(refs),
		)

	case validateform.SubmittedMsg:
		return m, m.confirmBatch(msg.Image, msg.Records)

	case validateform.CancelMsg:
		m.currentView = ViewValidationList
		return m, nil

	case confirmResultMsg:
		m.currentView = ViewValidationList
		if msg.err != nil {
			if remote.IsAuthError(msg.err) {
				m.statusMsg = "Sem autorização para escrever. Verifique o token nas definições."
			} else {
				m.statusMsg = "Falha na validação de " + msg.image + ": " + msg.err.Error()
			}
		} else {
			m.statusMsg = "Apostas de " + msg.image + " confirmadas."
		}
		return m, tea.Batch(m.validateList.Load(), m.loadPendingCount())

	case settings.DoneMsg:
		return m.switchTo(ViewHome)

	case settings.TokenChangedMsg:
		m.rebuildRemote(msg.Token)
		m.settingsView.SetStatus("Token atualizado.")
		return m, tea.Batch(m.poller.Start(), m.loadPendingCount())
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if mdl, cmd, handled := m.handleGlobalKey(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active
// view, except while a form is capturing input.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit, true
	}

	if m.formCapturing() {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewHome {
			m.poller.Stop()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "h":
		mdl, cmd := m.switchTo(ViewHome)
		return mdl, cmd, true

	case "n":
		mdl, cmd := m.switchTo(ViewNotifications)
		return mdl, cmd, true

	case "v":
		mdl, cmd := m.switchTo(ViewValidationList)
		return mdl, cmd, true

	case "s":
		mdl, cmd := m.switchTo(ViewSettings)
		return mdl, cmd, true

	case "r":
		m.poller.Refresh()
	}

	return m, nil, false
}

// formCapturing reports whether the active view holds a focused form
// that should receive letter keys.
func (m Model) formCapturing() bool {
	switch m.currentView {
	case ViewValidationForm, ViewSettings:
		return true
	case ViewHome:
		return m.homeView.FormActive()
	}
	return false
}

// switchTo activates a top-level view and persists the choice.
func (m Model) switchTo(view ViewState) (tea.Model, tea.Cmd) {
	if view == m.currentView {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = view
	m.statusMsg = ""

	persist := m.persistView(view)

	switch view {
	case ViewNotifications:
		return m, tea.Batch(persist, m.notifList.Load())
	case ViewValidationList:
		return m, tea.Batch(persist, m.validateList.Load())
	case ViewSettings:
		return m, tea.Batch(persist, m.settingsView.Start())
	}
	return m, persist
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewHome:
		m.homeView, cmd = m.homeView.Update(msg)
	case ViewNotifications:
		m.notifList, cmd = m.notifList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewValidationList:
		m.validateList, cmd = m.validateList.Update(msg)
	case ViewValidationForm:
		m.validateForm, cmd = m.validateForm.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "A iniciar..."
	}

	header := m.layout.RenderHeader("Boletins", badge.Format(m.unreadCount))
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHome:
		return m.homeView.View()
	case ViewNotifications:
		return m.notifList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewValidationList:
		return m.validateList.View()
	case ViewValidationForm:
		return m.validateForm.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// statusLine returns the status bar content for the current view.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? fechar ajuda"
	case ViewDetail:
		return "esc voltar | j/k deslocar"
	case ViewNotifications:
		return "enter abrir | tab ativas/histórico | r atualizar | esc voltar"
	case ViewValidationList:
		return "enter validar | r atualizar | esc voltar"
	case ViewValidationForm:
		return "enter confirmar | esc cancelar"
	case ViewSettings:
		return "enter escolher | esc voltar"
	default:
		return "q sair | ? ajuda | n notificações | v validação | u enviar foto | s definições"
	}
}

// markAsRead removes a notification from the active list and archives it.
func (m Model) markAsRead(id string) tea.Cmd {
	n := m.notifications
	return func() tea.Msg {
		err := n.MarkAsRead(context.Background(), id)
		return markReadResultMsg{id: id, err: err}
	}
}

// confirmBatch writes a validated batch back to the game files.
func (m Model) confirmBatch(image string, records []model.BetRecord) tea.Cmd {
	wf := m.workflow
	return func() tea.Msg {
		err := wf.Confirm(context.Background(), image, records)
		return confirmResultMsg{image: image, err: err}
	}
}

// loadPendingCount counts the boletins awaiting validation for the
// home dashboard.
func (m Model) loadPendingCount() tea.Cmd {
	wf := m.workflow
	return func() tea.Msg {
		return pendingCountMsg{count: len(wf.ListPending(context.Background()))}
	}
}

// checkConnectivity probes the first cacheable asset through the cache
// manager, exercising its network-first path and marking the app
// offline when the host is unreachable.
func (m Model) checkConnectivity() tea.Cmd {
	if len(m.cfg.Cache.Assets) == 0 {
		return nil
	}
	caches := m.caches
	url := m.cfg.Remote.RawURL(m.cfg.Cache.Assets[0])
	return func() tea.Msg {
		resp, err := caches.Fetch(context.Background(), cache.Request{
			Method:   "GET",
			URL:      url,
			Navigate: true,
		})
		offline := err != nil || resp.Offline || resp.FromCache
		return connectivityMsg{offline: offline}
	}
}

// warmCache fetches the given URLs through the cache manager so the
// preprocessed boletim images are available offline. Failures are
// ignored; the URLs stay usable as plain references.
func (m Model) warmCache(urls []string) tea.Cmd {
	caches := m.caches
	return func() tea.Msg {
		for _, u := range urls {
			_, _ = caches.Fetch(context.Background(), cache.Request{
				Method: "GET",
				URL:    u,
			})
		}
		return nil
	}
}

// persistView stores the active top-level view for the next start.
func (m Model) persistView(view ViewState) tea.Cmd {
	switch view {
	case ViewHome, ViewNotifications, ViewValidationList, ViewSettings:
	default:
		return nil
	}
	s := m.store
	return func() tea.Msg {
		_ = s.SetSetting(context.Background(), store.KeyLastView, strconv.Itoa(int(view)))
		return nil
	}
}

// loadLastView restores the view that was active on last exit.
func (m Model) loadLastView() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		raw, err := s.GetSetting(context.Background(), store.KeyLastView)
		if err != nil || raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil
		}
		view := ViewState(v)
		switch view {
		case ViewNotifications, ViewValidationList, ViewSettings:
			return lastViewMsg{view: view}
		}
		return nil
	}
}

// rebuildRemote swaps the remote client after a token change and
// restarts the services that hold it.
func (m *Model) rebuildRemote(token string) {
	m.poller.Stop()

	client := remote.NewClient(
		m.cfg.Remote.APIBaseURL,
		m.cfg.Remote.Repo,
		m.cfg.Remote.Branch,
		token,
	)
	m.client = client
	m.notifications = notify.NewStore(client)
	m.workflow = validate.NewWorkflow(client)

	k := m.keys
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()
	if w == 0 {
		w, h = 80, 24
	}

	m.homeView = home.New(upload.NewUploader(client), k, client.HasToken(), w, h)
	m.notifList = notiflist.New(m.notifications, k, w, h)
	m.validateList = validatelist.New(m.workflow, k, w, h)

	interval := time.Duration(m.cfg.Badge.PollIntervalSec) * time.Second
	m.poller = badge.New(m.notifications, m.store, interval, m.cfg.Badge.FullRefreshEvery)
}
