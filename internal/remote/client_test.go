package remote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/tests/testutil"
)

const testRepo = "Hmdgt/Tol_v2"

func TestReadFileMissingIsNotAnError(t *testing.T) {
	_, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "")

	file, err := client.ReadFile(context.Background(), "resultados/notificacoes_ativas.json")
	require.NoError(t, err)
	if file.Exists {
		t.Error("expected Exists false for missing file")
	}
	if file.SHA != "" {
		t.Errorf("expected empty sha, got %q", file.SHA)
	}
}

func TestReadFileDecodesContentAndSHA(t *testing.T) {
	fc, srv := testutil.NewContentsServer(t, testRepo)
	fc.Seed("apostas/totoloto.json", []byte(`[{"confirmado":false}]`))

	client := remote.NewClient(srv.URL, testRepo, "main", "")

	file, err := client.ReadFile(context.Background(), "apostas/totoloto.json")
	require.NoError(t, err)
	if !file.Exists {
		t.Fatal("expected Exists true")
	}
	if string(file.Content) != `[{"confirmado":false}]` {
		t.Errorf("content mismatch: %q", file.Content)
	}
	if file.SHA != fc.SHA("apostas/totoloto.json") {
		t.Errorf("sha mismatch: %q", file.SHA)
	}
}

func TestReadFileRejectedTokenIsAuthError(t *testing.T) {
	fc, srv := testutil.NewContentsServer(t, testRepo)
	fc.RequireToken = "good-token"

	client := remote.NewClient(srv.URL, testRepo, "main", "bad-token")

	_, err := client.ReadFile(context.Background(), "apostas/totoloto.json")
	if !remote.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestWriteFileWithoutToken(t *testing.T) {
	_, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "")

	err := client.WriteFile(context.Background(), "x.json", []byte("{}"), "", "msg")
	if !errors.Is(err, remote.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestWriteFileCreateAndUpdate(t *testing.T) {
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "tok")

	ctx := context.Background()

	// Create: no sha, file does not exist yet.
	err := client.WriteFile(ctx, "uploads/foto_1.png", []byte("png-bytes"), "", "Upload automático: foto_1.png")
	require.NoError(t, err)

	content, ok := fc.Content("uploads/foto_1.png")
	if !ok || string(content) != "png-bytes" {
		t.Fatalf("stored content mismatch: %q (ok=%v)", content, ok)
	}

	// Update with the current sha succeeds.
	sha := fc.SHA("uploads/foto_1.png")
	err = client.WriteFile(ctx, "uploads/foto_1.png", []byte("v2"), sha, "update")
	require.NoError(t, err)

	// Update with a stale sha is rejected.
	err = client.WriteFile(ctx, "uploads/foto_1.png", []byte("v3"), sha, "stale")
	if err == nil {
		t.Fatal("expected error for stale sha")
	}

	commits := fc.Commits()
	require.Len(t, commits, 2)
	if commits[0] != "Upload automático: foto_1.png" {
		t.Errorf("unexpected commit message %q", commits[0])
	}
}

func TestReadWriteJSON(t *testing.T) {
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "tok")

	ctx := context.Background()

	type payload struct {
		Jogo string `json:"jogo"`
	}

	err := client.WriteJSON(ctx, "resultados/x.json", payload{Jogo: "milhão"}, "", "seed")
	require.NoError(t, err)

	var got payload
	sha, exists, err := client.ReadJSON(ctx, "resultados/x.json", &got)
	require.NoError(t, err)
	if !exists {
		t.Fatal("expected file to exist")
	}
	if got.Jogo != "milhão" {
		t.Errorf("accented content mangled: %q", got.Jogo)
	}
	if sha != fc.SHA("resultados/x.json") {
		t.Errorf("sha mismatch: %q", sha)
	}
}

func TestAPIHost(t *testing.T) {
	client := remote.NewClient("https://api.github.com", testRepo, "main", "")
	if got := client.APIHost(); got != "api.github.com" {
		t.Errorf("APIHost = %q", got)
	}
}
