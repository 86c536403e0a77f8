package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/notify"
	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/tests/testutil"
)

const testRepo = "Hmdgt/Tol_v2"

func newStore(t *testing.T) (*testutil.FakeContents, *notify.Store) {
	t.Helper()
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "tok")
	return fc, notify.NewStore(client)
}

func seedActive(t *testing.T, fc *testutil.FakeContents) {
	t.Helper()
	fc.SeedJSON(t, notify.ActivePath, []model.Notification{
		{ID: "n1", Jogo: "euromilhoes", Titulo: "Prémio no Euromilhões"},
		{ID: "n2", Jogo: "totoloto", Titulo: "Resultados do Totoloto"},
	})
}

func TestLoadActive(t *testing.T) {
	fc, s := newStore(t)
	seedActive(t, fc)

	active := s.LoadActive(context.Background())
	require.Len(t, active, 2)
	if active[0].ID != "n1" || active[1].ID != "n2" {
		t.Errorf("unexpected order: %+v", active)
	}
}

func TestLoadActiveMissingFile(t *testing.T) {
	_, s := newStore(t)
	if got := s.LoadActive(context.Background()); len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
}

func TestUnreadCountSkipsRead(t *testing.T) {
	fc, s := newStore(t)
	fc.SeedJSON(t, notify.ActivePath, []model.Notification{
		{ID: "n1", Lido: true},
		{ID: "n2"},
		{ID: "n3"},
	})

	if got := s.UnreadCount(context.Background()); got != 2 {
		t.Errorf("UnreadCount = %d, want 2", got)
	}
}

func TestMarkAsReadMovesToHistory(t *testing.T) {
	fc, s := newStore(t)
	seedActive(t, fc)

	err := s.MarkAsRead(context.Background(), "n1")
	require.NoError(t, err)

	var active []model.Notification
	fc.DecodeJSON(t, notify.ActivePath, &active)
	require.Len(t, active, 1)
	if active[0].ID != "n2" {
		t.Errorf("wrong notification removed: %+v", active)
	}

	var history []model.Notification
	fc.DecodeJSON(t, notify.HistoryPath, &history)
	require.Len(t, history, 1)
	if history[0].ID != "n1" {
		t.Fatalf("history holds %+v", history)
	}
	if !history[0].Lido {
		t.Error("archived notification not marked lido")
	}
	if _, err := time.Parse(time.RFC3339, history[0].DataLeitura); err != nil {
		t.Errorf("data_leitura not RFC3339: %q", history[0].DataLeitura)
	}
}

func TestMarkAsReadAbsentIDIsNoop(t *testing.T) {
	fc, s := newStore(t)
	seedActive(t, fc)

	err := s.MarkAsRead(context.Background(), "ghost")
	require.NoError(t, err)

	var active []model.Notification
	fc.DecodeJSON(t, notify.ActivePath, &active)
	require.Len(t, active, 2)

	if len(fc.Commits()) != 0 {
		t.Errorf("expected no writes, got commits %v", fc.Commits())
	}
}

func TestMarkAsReadMissingActiveFile(t *testing.T) {
	_, s := newStore(t)
	if err := s.MarkAsRead(context.Background(), "n1"); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}

func TestMarkAsReadHistoryDedupe(t *testing.T) {
	fc, s := newStore(t)
	seedActive(t, fc)
	fc.SeedJSON(t, notify.HistoryPath, []model.Notification{
		{ID: "n1", Lido: true, DataLeitura: "2026-01-01T00:00:00Z"},
	})

	err := s.MarkAsRead(context.Background(), "n1")
	require.NoError(t, err)

	var history []model.Notification
	fc.DecodeJSON(t, notify.HistoryPath, &history)
	require.Len(t, history, 1)
	if history[0].DataLeitura != "2026-01-01T00:00:00Z" {
		t.Errorf("existing history entry was replaced: %+v", history[0])
	}
}

func TestMarkAsReadActiveWriteFailureAborts(t *testing.T) {
	fc, s := newStore(t)
	seedActive(t, fc)
	fc.WriteStatus = 500

	err := s.MarkAsRead(context.Background(), "n1")
	if err == nil {
		t.Fatal("expected error when the active write fails")
	}

	// Nothing reached the history.
	if _, ok := fc.Content(notify.HistoryPath); ok {
		t.Error("history written despite aborted removal")
	}
}
