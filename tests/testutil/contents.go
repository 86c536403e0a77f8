package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeFile struct {
	content []byte
	sha     string
}

// FakeContents is an in-memory stand-in for the GitHub Contents API,
// covering the GET/PUT envelope, 404 for missing files, and sha-based
// optimistic concurrency on writes.
type FakeContents struct {
	mu      sync.Mutex
	rev     int
	files   map[string]fakeFile
	commits []string

	// WriteStatus, when non-zero, forces every write to fail with the
	// given HTTP status.
	WriteStatus int

	// RequireToken, when set, rejects requests that do not carry it as
	// a bearer token.
	RequireToken string
}

// NewContentsServer starts a fake Contents API for the given
// "owner/name" repository slug. The server is closed when the test ends.
func NewContentsServer(t *testing.T, repo string) (*FakeContents, *httptest.Server) {
	t.Helper()

	fc := &FakeContents{files: make(map[string]fakeFile)}
	srv := httptest.NewServer(http.HandlerFunc(fc.handle(repo)))
	t.Cleanup(srv.Close)

	return fc, srv
}

// Seed stores a file without going through the API.
func (fc *FakeContents) Seed(path string, content []byte) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.rev++
	fc.files[path] = fakeFile{content: content, sha: fmt.Sprintf("sha%d", fc.rev)}
}

// SeedJSON marshals v and stores it at path.
func (fc *FakeContents) SeedJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling seed for %s: %v", path, err)
	}
	fc.Seed(path, data)
}

// Content returns the stored bytes for path.
func (fc *FakeContents) Content(path string) ([]byte, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	f, ok := fc.files[path]
	return f.content, ok
}

// DecodeJSON decodes the stored file at path into v.
func (fc *FakeContents) DecodeJSON(t *testing.T, path string, v any) {
	t.Helper()
	content, ok := fc.Content(path)
	if !ok {
		t.Fatalf("no file stored at %s", path)
	}
	if err := json.Unmarshal(content, v); err != nil {
		t.Fatalf("unmarshaling %s: %v", path, err)
	}
}

// SHA returns the current sha for path, or "".
func (fc *FakeContents) SHA(path string) string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.files[path].sha
}

// Commits returns the commit messages of all successful writes.
func (fc *FakeContents) Commits() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]string(nil), fc.commits...)
}

func (fc *FakeContents) handle(repo string) http.HandlerFunc {
	prefix := "/repos/" + repo + "/contents/"

	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, prefix)

		fc.mu.Lock()
		defer fc.mu.Unlock()

		if fc.RequireToken != "" &&
			r.Header.Get("Authorization") != "Bearer "+fc.RequireToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
			return
		}

		switch r.Method {
		case http.MethodGet:
			f, ok := fc.files[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
				return
			}
			resp := map[string]string{
				"content": wrapBase64(base64.StdEncoding.EncodeToString(f.content)),
				"sha":     f.sha,
			}
			json.NewEncoder(w).Encode(resp)

		case http.MethodPut:
			if fc.WriteStatus != 0 {
				w.WriteHeader(fc.WriteStatus)
				return
			}

			var req struct {
				Message string `json:"message"`
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			existing, exists := fc.files[path]
			if exists && req.SHA != existing.sha {
				w.WriteHeader(http.StatusConflict)
				fmt.Fprint(w, `{"message":"sha mismatch"}`)
				return
			}
			if !exists && req.SHA != "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"message":"sha provided for new file"}`)
				return
			}

			content, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			fc.rev++
			fc.files[path] = fakeFile{
				content: content,
				sha:     fmt.Sprintf("sha%d", fc.rev),
			}
			fc.commits = append(fc.commits, req.Message)

			status := http.StatusOK
			if !exists {
				status = http.StatusCreated
			}
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"content":{"sha":%q}}`, fc.files[path].sha)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// wrapBase64 inserts line breaks the way the real API chunks content.
func wrapBase64(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteString("\n")
		s = s[60:]
	}
	b.WriteString(s)
	return b.String()
}
