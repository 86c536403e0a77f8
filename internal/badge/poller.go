package badge

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hmdgt/boletim/internal/notify"
	"github.com/hmdgt/boletim/internal/store"
)

// CountMsg is a tea.Msg carrying a refreshed unread count to the UI.
type CountMsg struct {
	Count int

	// FromMirror is true when the tick served the locally mirrored
	// count instead of hitting the remote store.
	FromMirror bool
}

// fetchTimeout bounds a single remote refresh.
const fetchTimeout = 30 * time.Second

// Poller refreshes the unread-notification badge on a fixed interval
// while the terminal is focused and suspends entirely while it is not.
// To bound API call volume, only every Nth tick does a full remote
// refresh; the others serve the locally mirrored count.
type Poller struct {
	notifications *notify.Store
	local         store.Store
	interval      time.Duration
	fullEvery     int

	resultCh  chan CountMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	visible bool
	tick    int
}

// New creates a poller. fullEvery is the tick period of remote
// refreshes; values below 1 refresh remotely on every tick.
func New(n *notify.Store, local store.Store, interval time.Duration, fullEvery int) *Poller {
	if fullEvery < 1 {
		fullEvery = 1
	}
	return &Poller{
		notifications: n,
		local:         local,
		interval:      interval,
		fullEvery:     fullEvery,
		resultCh:      make(chan CountMsg, 16),
		triggerCh:     make(chan struct{}, 16),
		stopCh:        make(chan struct{}),
	}
}

// Start launches the polling goroutine in the visible state and returns
// a command that waits for the first refreshed count. An immediate poll
// fires before the first interval elapses.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return p.waitForResult()
	}
	p.running = true
	p.visible = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Suspend pauses polling while the terminal is not visible.
func (p *Poller) Suspend() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
}

// Resume restarts polling on visibility and fires one immediate full
// refresh, mirroring how the page polled again on becoming visible.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.visible = true
	p.tick = 0
	p.mu.Unlock()

	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Refresh requests an immediate poll regardless of the tick schedule,
// used after a notification is marked read.
func (p *Poller) Refresh() {
	p.mu.Lock()
	p.tick = 0
	p.mu.Unlock()

	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// WaitForNextCount returns a command that waits for the next refreshed
// count. Call it after processing a CountMsg to keep listening.
func (p *Poller) WaitForNextCount() tea.Cmd {
	return p.waitForResult()
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if p.isVisible() {
				p.poll()
			}
		case <-p.triggerCh:
			if p.isVisible() {
				p.poll()
			}
		}
	}
}

// poll performs one tick: a remote refresh on scheduled ticks, the
// mirrored count otherwise. The refreshed count is mirrored locally so
// cheap ticks and the next session start from it.
func (p *Poller) poll() {
	p.mu.Lock()
	full := p.tick%p.fullEvery == 0
	p.tick++
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if !full {
		if count, ok, err := p.local.GetBadgeCount(ctx); err == nil && ok {
			p.sendResult(CountMsg{Count: count, FromMirror: true})
			return
		}
		// Nothing mirrored yet; fall through to a remote refresh.
	}

	count := p.notifications.UnreadCount(ctx)
	_ = p.local.SetBadgeCount(ctx, count)
	p.sendResult(CountMsg{Count: count})
}

func (p *Poller) isVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// sendResult sends without blocking; a full channel drops the update,
// which the next tick replaces anyway.
func (p *Poller) sendResult(msg CountMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}
