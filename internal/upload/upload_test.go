package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/internal/upload"
	"github.com/hmdgt/boletim/tests/testutil"
)

const testRepo = "Hmdgt/Tol_v2"

func writeTempPhoto(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boletim.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadRequiresToken(t *testing.T) {
	_, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "")
	u := upload.NewUploader(client)

	_, err := u.Upload(context.Background(), writeTempPhoto(t))
	if !errors.Is(err, remote.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestUploadCreatesRemoteFile(t *testing.T) {
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "tok")
	u := upload.NewUploader(client)

	name, err := u.Upload(context.Background(), writeTempPhoto(t))
	require.NoError(t, err)

	if !strings.HasPrefix(name, "foto_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("unexpected generated name %q", name)
	}

	content, ok := fc.Content(upload.UploadsFolder + name)
	if !ok {
		t.Fatalf("no file stored at uploads/%s", name)
	}
	if string(content) != "png-bytes" {
		t.Errorf("stored content mismatch: %q", content)
	}

	commits := fc.Commits()
	require.Len(t, commits, 1)
	if commits[0] != "Upload automático: "+name {
		t.Errorf("commit message %q", commits[0])
	}
}

func TestUploadMissingLocalFile(t *testing.T) {
	_, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "tok")
	u := upload.NewUploader(client)

	if _, err := u.Upload(context.Background(), "/nao/existe.png"); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestPreprocessedPaths(t *testing.T) {
	binary, enhanced := upload.PreprocessedPaths("foto_123.png")
	if binary != "preprocessadas/foto_123_binary.png" {
		t.Errorf("binary = %q", binary)
	}
	if enhanced != "preprocessadas/foto_123_enhanced.png" {
		t.Errorf("enhanced = %q", enhanced)
	}
}
