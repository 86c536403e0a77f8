package badge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hmdgt/boletim/internal/badge"
	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/notify"
	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/tests/testutil"
)

const testRepo = "Hmdgt/Tol_v2"

func newPoller(t *testing.T, fullEvery int) (*testutil.FakeContents, *badge.Poller) {
	t.Helper()
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "")
	n := notify.NewStore(client)
	local := testutil.NewTestStore(t)
	return fc, badge.New(n, local, 20*time.Millisecond, fullEvery)
}

func TestPollerFirstTickIsFullRefresh(t *testing.T) {
	fc, p := newPoller(t, 5)
	t.Cleanup(p.Stop)

	fc.SeedJSON(t, notify.ActivePath, []model.Notification{
		{ID: "n1"}, {ID: "n2", Lido: true}, {ID: "n3"},
	})

	msg, ok := p.Start()().(badge.CountMsg)
	require.True(t, ok)
	if msg.Count != 2 {
		t.Errorf("Count = %d, want 2", msg.Count)
	}
	if msg.FromMirror {
		t.Error("first tick should be a remote refresh")
	}
}

func TestPollerServesMirrorBetweenFullRefreshes(t *testing.T) {
	fc, p := newPoller(t, 100)
	t.Cleanup(p.Stop)

	fc.SeedJSON(t, notify.ActivePath, []model.Notification{{ID: "n1"}})

	first, ok := p.Start()().(badge.CountMsg)
	require.True(t, ok)
	require.Equal(t, 1, first.Count)

	// The remote list changes, but cheap ticks keep serving the mirror.
	fc.SeedJSON(t, notify.ActivePath, []model.Notification{
		{ID: "n1"}, {ID: "n2"},
	})

	next, ok := p.WaitForNextCount()().(badge.CountMsg)
	require.True(t, ok)
	if !next.FromMirror {
		t.Fatal("expected mirrored tick")
	}
	if next.Count != 1 {
		t.Errorf("mirrored Count = %d, want 1", next.Count)
	}
}

func TestPollerRefreshForcesRemote(t *testing.T) {
	fc, p := newPoller(t, 100)
	t.Cleanup(p.Stop)

	fc.SeedJSON(t, notify.ActivePath, []model.Notification{{ID: "n1"}})

	first, ok := p.Start()().(badge.CountMsg)
	require.True(t, ok)
	require.Equal(t, 1, first.Count)

	fc.SeedJSON(t, notify.ActivePath, []model.Notification{})
	p.Refresh()

	deadline := time.After(2 * time.Second)
	for {
		var msg badge.CountMsg
		done := make(chan struct{})
		go func() {
			m, ok := p.WaitForNextCount()().(badge.CountMsg)
			if ok {
				msg = m
			}
			close(done)
		}()

		select {
		case <-done:
		case <-deadline:
			t.Fatal("timed out waiting for forced refresh")
		}

		if !msg.FromMirror && msg.Count == 0 {
			return
		}
	}
}

func TestPollerMirrorPersistsLocally(t *testing.T) {
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "")
	n := notify.NewStore(client)
	local := testutil.NewTestStore(t)
	p := badge.New(n, local, time.Minute, 5)
	t.Cleanup(p.Stop)

	fc.SeedJSON(t, notify.ActivePath, []model.Notification{{ID: "n1"}, {ID: "n2"}})

	msg, ok := p.Start()().(badge.CountMsg)
	require.True(t, ok)
	require.Equal(t, 2, msg.Count)

	count, found, err := local.GetBadgeCount(context.Background())
	require.NoError(t, err)
	if !found {
		t.Fatal("badge count not mirrored")
	}
	if count != 2 {
		t.Errorf("mirrored count = %d, want 2", count)
	}
}
