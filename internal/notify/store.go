package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/remote"
)

// Remote file paths, relative to the configured repository.
const (
	ActivePath  = "resultados/notificacoes_ativas.json"
	HistoryPath = "resultados/notificacoes_historico.json"
)

// Store manages the active and history notification lists kept in the
// remote repository. The repository is the system of record; this type
// holds no state beyond the remote client.
type Store struct {
	client *remote.Client
	now    func() time.Time
}

// NewStore creates a notification store over the given remote client.
func NewStore(client *remote.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// LoadActive returns the active notification list. Any read failure
// (network, non-2xx, malformed payload) yields an empty list; callers
// cannot distinguish "no notifications" from "fetch failed", which is
// the documented contract for read paths.
func (s *Store) LoadActive(ctx context.Context) []model.Notification {
	var active []model.Notification
	if _, _, err := s.client.ReadJSON(ctx, ActivePath, &active); err != nil {
		return nil
	}
	return active
}

// LoadHistory returns the acknowledged-notification log, empty on any
// failure or when the file does not exist yet.
func (s *Store) LoadHistory(ctx context.Context) []model.Notification {
	var history []model.Notification
	if _, _, err := s.client.ReadJSON(ctx, HistoryPath, &history); err != nil {
		return nil
	}
	return history
}

// UnreadCount returns the number of active notifications not yet read.
func (s *Store) UnreadCount(ctx context.Context) int {
	count := 0
	for _, n := range s.LoadActive(ctx) {
		if !n.Lido {
			count++
		}
	}
	return count
}

// MarkAsRead acknowledges a notification: it is removed from the active
// list and appended once to the history with Lido set and a read
// timestamp. The two writes hit independent files with no rollback; the
// history append is best-effort, so its failure does not undo a
// successful removal from the active list.
//
// Marking an id that is not in the active list is a no-op success, which
// makes the operation idempotent.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	var active []model.Notification
	sha, exists, err := s.client.ReadJSON(ctx, ActivePath, &active)
	if err != nil {
		return fmt.Errorf("reading active notifications: %w", err)
	}
	if !exists {
		return nil
	}

	var read *model.Notification
	remaining := make([]model.Notification, 0, len(active))
	for i := range active {
		if active[i].ID == id {
			n := active[i]
			read = &n
			continue
		}
		remaining = append(remaining, active[i])
	}
	if read == nil {
		// Already resolved, possibly by another device.
		return nil
	}

	read.Lido = true
	read.DataLeitura = s.now().UTC().Format(time.RFC3339)

	err = s.client.WriteJSON(ctx, ActivePath, remaining, sha,
		fmt.Sprintf("Notificação %s marcada como lida", id))
	if err != nil {
		return fmt.Errorf("updating active notifications: %w", err)
	}

	s.appendToHistory(ctx, *read)
	return nil
}

// appendToHistory adds the notification to the history file unless an
// entry with the same id is already there. Failures are swallowed: the
// history is informational, not authoritative.
func (s *Store) appendToHistory(ctx context.Context, n model.Notification) {
	var history []model.Notification
	sha, _, err := s.client.ReadJSON(ctx, HistoryPath, &history)
	if err != nil {
		return
	}

	for _, h := range history {
		if h.ID == n.ID {
			return
		}
	}

	history = append(history, n)

	// sha is empty on first creation, which the store treats as create.
	_ = s.client.WriteJSON(ctx, HistoryPath, history, sha,
		fmt.Sprintf("Notificação %s adicionada ao histórico", n.ID))
}
