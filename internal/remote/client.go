package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoToken is returned by write operations when no access token is
// configured. Reads work unauthenticated against public repositories.
var ErrNoToken = errors.New("no access token configured")

// AuthError indicates that the configured token was rejected (HTTP 401).
type AuthError struct {
	Path string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: token rejected for %s", e.Path)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// File is the remote file envelope: decoded content plus the opaque
// version token required for the write-back. Exists is false when the
// file is not present in the repository, which callers must treat as
// "empty, to be created" rather than a failure.
type File struct {
	Content []byte
	SHA     string
	Exists  bool
}

// Client is a thin HTTP client for the GitHub Contents API restricted to
// a single repository. It handles Bearer token authentication, the
// base64 content codec, and sha-based optimistic concurrency on writes.
type Client struct {
	apiBase    string
	repo       string
	branch     string
	token      string
	httpClient *http.Client
}

// NewClient creates a Contents API client for the given "owner/name"
// repository slug. The token may be empty for read-only use.
func NewClient(apiBase, repo, branch, token string) *Client {
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		repo:    repo,
		branch:  branch,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HasToken reports whether the client was configured with a token.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// APIHost returns the host portion of the API base URL. The offline
// cache uses it to keep API responses out of the asset cache.
func (c *Client) APIHost() string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(c.apiBase, "https://"), "http://")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// contentResponse mirrors the Contents API GET payload.
type contentResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// writeRequest mirrors the Contents API PUT payload. SHA is omitted
// when empty, which the store treats as a create.
type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// contentURL builds the Contents API URL for a repository path, with a
// timestamp query parameter to defeat intermediary caching.
func (c *Client) contentURL(path string, cacheBust bool) string {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.apiBase, c.repo, path)
	sep := "?"
	if c.branch != "" {
		url += sep + "ref=" + c.branch
		sep = "&"
	}
	if cacheBust {
		url += sep + fmt.Sprintf("t=%d", time.Now().UnixMilli())
	}
	return url
}

// ReadFile fetches a file from the repository. A 404 yields
// File{Exists: false} with a nil error; any other failure is returned
// to the caller, which may choose to substitute an empty default.
func (c *Client) ReadFile(ctx context.Context, path string) (File, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.contentURL(path, true), nil,
	)
	if err != nil {
		return File{}, fmt.Errorf("creating request for %s: %w", path, err)
	}

	c.setHeaders(req, false)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return File{}, fmt.Errorf("reading response for %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return File{Exists: false}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return File{}, &AuthError{Path: path}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return File{}, fmt.Errorf(
			"unexpected status %d reading %s", resp.StatusCode, path,
		)
	}

	var payload contentResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return File{}, fmt.Errorf("unmarshaling envelope for %s: %w", path, err)
	}

	content, err := DecodeContent(payload.Content)
	if err != nil {
		return File{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	return File{Content: content, SHA: payload.SHA, Exists: true}, nil
}

// ReadJSON reads a file and decodes its content into v. A missing file
// leaves v untouched and returns exists=false.
func (c *Client) ReadJSON(ctx context.Context, path string, v any) (sha string, exists bool, err error) {
	file, err := c.ReadFile(ctx, path)
	if err != nil {
		return "", false, err
	}
	if !file.Exists {
		return "", false, nil
	}

	if err := json.Unmarshal(file.Content, v); err != nil {
		return "", false, fmt.Errorf("unmarshaling %s: %w", path, err)
	}
	return file.SHA, true, nil
}

// WriteFile stores content at path. The sha must come from the most
// recent read of that path, or be empty only when the file does not yet
// exist; the store rejects stale shas, surfaced here as a generic write
// error with no automatic retry.
func (c *Client) WriteFile(ctx context.Context, path string, content []byte, sha, message string) error {
	if c.token == "" {
		return ErrNoToken
	}

	payload := writeRequest{
		Message: message,
		Content: EncodeContent(content),
		Branch:  c.branch,
		SHA:     sha,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling write request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.contentURL(path, false), bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating write request for %s: %w", path, err)
	}

	c.setHeaders(req, true)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Path: path}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf(
			"unexpected status %d writing %s", resp.StatusCode, path,
		)
	}

	return nil
}

// WriteJSON serializes v with two-space indentation (matching the files
// the upstream scripts produce) and writes it at path.
func (c *Client) WriteJSON(ctx context.Context, path string, v any, sha, message string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return c.WriteFile(ctx, path, data, sha, message)
}

// FetchRaw performs a GET against an arbitrary URL, returning the body
// on 2xx. The offline cache uses it as its network leg.
func (c *Client) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// setHeaders applies authentication and content negotiation headers.
func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}
