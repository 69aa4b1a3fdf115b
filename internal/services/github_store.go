package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"pianosheets/internal/cache"
)

const (
	defaultGitHubAPIURL = "https://api.github.com"
	mediaTypeJSON       = "application/vnd.github+json"
	mediaTypeRaw        = "application/vnd.github.raw+json"
	documentCacheTTL    = 24 * time.Hour
)

// GitHubStoreOptions configures the GitHub contents API client
type GitHubStoreOptions struct {
	Token   string
	Repo    string // "owner/name"
	Branch  string
	BaseURL string // API root, overridable for tests and GitHub Enterprise
	Timeout time.Duration
	Cache   cache.Cache // Optional; enables conditional GETs
}

// githubStore implements FileStore over the GitHub contents API
type githubStore struct {
	client *resty.Client
	repo   string
	branch string
	cache  cache.Cache
}

// contentsResponse is the subset of the contents API payload we use
type contentsResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

type apiErrorResponse struct {
	Message string `json:"message"`
}

// cachedDocument is what we keep per path for conditional requests
type cachedDocument struct {
	ETag    string `json:"etag"`
	SHA     string `json:"sha"`
	Content []byte `json:"content"`
}

// NewGitHubStore creates a FileStore for the configured repository.
// Without a token every operation fails with ErrNotConfigured.
func NewGitHubStore(ctx context.Context, opts GitHubStoreOptions) FileStore {
	if opts.Token == "" || opts.Repo == "" {
		return unconfiguredStore{repo: opts.Repo}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGitHubAPIURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.Token,
		TokenType:   "Bearer",
	}))

	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", mediaTypeJSON).
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetTimeout(opts.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Writes carry a version token; never replay them on a server error
			return r != nil && r.Request.Method == http.MethodGet && r.StatusCode() >= 500
		})

	return &githubStore{
		client: client,
		repo:   opts.Repo,
		branch: opts.Branch,
		cache:  opts.Cache,
	}
}

// Repository returns the repository identifier
func (s *githubStore) Repository() string {
	return s.repo
}

// GetFile reads a file through the contents API
func (s *githubStore) GetFile(ctx context.Context, path string) (*RemoteFile, error) {
	key := cache.DocumentKey(s.repo, s.branch, path)
	cached := s.cachedDocument(ctx, key)

	req := s.client.R().
		SetContext(ctx).
		SetRawPathParam("path", escapePath(path))
	if s.branch != "" {
		req.SetQueryParam("ref", s.branch)
	}
	if cached != nil && cached.ETag != "" {
		req.SetHeader("If-None-Match", cached.ETag)
	}

	resp, err := req.Get(s.contentsURL())
	if err != nil {
		return nil, &StoreError{Operation: "get", Path: path, Message: "request failed", Err: err}
	}

	if resp.StatusCode() == http.StatusNotModified && cached != nil {
		slog.Debug("Store document not modified", "path", path, "sha", cached.SHA)
		return &RemoteFile{Path: path, SHA: cached.SHA, Content: cached.Content}, nil
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &StoreError{Operation: "get", Path: path, StatusCode: http.StatusNotFound, Message: apiMessage(resp), Err: ErrFileNotFound}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StoreError{Operation: "get", Path: path, StatusCode: resp.StatusCode(), Message: apiMessage(resp)}
	}

	var payload contentsResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &StoreError{Operation: "get", Path: path, Message: "invalid response body", Err: err}
	}
	if payload.Type != "" && payload.Type != "file" {
		return nil, &StoreError{Operation: "get", Path: path, Message: fmt.Sprintf("path is a %s, not a file", payload.Type)}
	}

	content, err := s.decodeContent(ctx, path, &payload)
	if err != nil {
		return nil, err
	}

	file := &RemoteFile{Path: path, SHA: payload.SHA, Content: content}
	if etag := resp.Header().Get("ETag"); etag != "" {
		s.storeDocument(ctx, key, &cachedDocument{ETag: etag, SHA: payload.SHA, Content: content})
	}
	return file, nil
}

// decodeContent returns the file body, fetching the raw media type when the
// contents API omits the body for large files
func (s *githubStore) decodeContent(ctx context.Context, path string, payload *contentsResponse) ([]byte, error) {
	if payload.Encoding == "base64" {
		content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
		if err != nil {
			return nil, &StoreError{Operation: "get", Path: path, Message: "invalid base64 content", Err: err}
		}
		return content, nil
	}
	if payload.Size == 0 {
		return []byte{}, nil
	}

	slog.Debug("Fetching raw content for large file", "path", path, "size", payload.Size)
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", mediaTypeRaw).
		SetRawPathParam("path", escapePath(path))
	if s.branch != "" {
		req.SetQueryParam("ref", s.branch)
	}

	resp, err := req.Get(s.contentsURL())
	if err != nil {
		return nil, &StoreError{Operation: "get_raw", Path: path, Message: "request failed", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StoreError{Operation: "get_raw", Path: path, StatusCode: resp.StatusCode(), Message: apiMessage(resp)}
	}
	return resp.Body(), nil
}

// PutFile writes a file through the contents API
func (s *githubStore) PutFile(ctx context.Context, path string, content []byte, sha, message string) (string, error) {
	body := putContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  s.branch,
	}

	var result putContentsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetRawPathParam("path", escapePath(path)).
		SetBody(body).
		SetResult(&result).
		Put(s.contentsURL())
	if err != nil {
		return "", &StoreError{Operation: "put", Path: path, Message: "request failed", Err: err}
	}

	// Whatever happened, the cached body no longer reflects the branch head
	s.dropDocument(ctx, cache.DocumentKey(s.repo, s.branch, path))

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		slog.Info("Wrote file to store", "path", path, "sha", result.Content.SHA, "bytes", len(content))
		return result.Content.SHA, nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return "", &StoreError{Operation: "put", Path: path, StatusCode: resp.StatusCode(), Message: apiMessage(resp), Err: ErrConflict}
	case http.StatusNotFound:
		return "", &StoreError{Operation: "put", Path: path, StatusCode: resp.StatusCode(), Message: apiMessage(resp), Err: ErrFileNotFound}
	default:
		return "", &StoreError{Operation: "put", Path: path, StatusCode: resp.StatusCode(), Message: apiMessage(resp)}
	}
}

// ListFiles walks the branch tree and returns blob paths under dir
func (s *githubStore) ListFiles(ctx context.Context, dir string) ([]string, error) {
	ref := s.branch
	if ref == "" {
		ref = "HEAD"
	}

	var tree treeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetRawPathParam("ref", escapePath(ref)).
		SetQueryParam("recursive", "1").
		SetResult(&tree).
		Get("/repos/" + s.repo + "/git/trees/{ref}")
	if err != nil {
		return nil, &StoreError{Operation: "list", Path: dir, Message: "request failed", Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &StoreError{Operation: "list", Path: dir, StatusCode: http.StatusNotFound, Message: apiMessage(resp), Err: ErrFileNotFound}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StoreError{Operation: "list", Path: dir, StatusCode: resp.StatusCode(), Message: apiMessage(resp)}
	}
	if tree.Truncated {
		slog.Warn("Repository tree listing was truncated", "repo", s.repo, "dir", dir)
	}

	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}

	var paths []string
	for _, entry := range tree.Tree {
		if entry.Type != "blob" {
			continue
		}
		if strings.HasPrefix(entry.Path, prefix) {
			paths = append(paths, entry.Path)
		}
	}
	return paths, nil
}

func (s *githubStore) contentsURL() string {
	return "/repos/" + s.repo + "/contents/{path}"
}

func (s *githubStore) cachedDocument(ctx context.Context, key string) *cachedDocument {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		if err != nil {
			slog.Warn("Document cache read failed", "key", key, "error", err)
		}
		return nil
	}
	var doc cachedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}

func (s *githubStore) storeDocument(ctx context.Context, key string, doc *cachedDocument) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, documentCacheTTL); err != nil {
		slog.Warn("Document cache write failed", "key", key, "error", err)
	}
}

func (s *githubStore) dropDocument(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("Document cache delete failed", "key", key, "error", err)
	}
}

// escapePath escapes each segment while keeping the separators
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func apiMessage(resp *resty.Response) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("API returned status %d", resp.StatusCode())
}
