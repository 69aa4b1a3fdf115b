package services

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pianosheets/internal/cache"
)

// fakeGitHub serves a minimal contents and trees API for one repository
type fakeGitHub struct {
	mu        sync.Mutex
	files     map[string][]byte
	shas      map[string]string
	gets      int
	notModify int
	rawOnly   map[string]bool // paths served with encoding "none"
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		files:   make(map[string][]byte),
		shas:    make(map[string]string),
		rawOnly: make(map[string]bool),
	}
}

func (f *fakeGitHub) put(path string, content []byte) string {
	sum := sha1.Sum(content)
	sha := hex.EncodeToString(sum[:])
	f.files[path] = content
	f.shas[path] = sha
	return sha
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	const contentsPrefix = "/repos/owner/repo/contents/"
	const treesPrefix = "/repos/owner/repo/git/trees/"

	switch {
	case strings.HasPrefix(r.URL.Path, treesPrefix):
		type entry struct {
			Path string `json:"path"`
			Type string `json:"type"`
		}
		var tree []entry
		for p := range f.files {
			tree = append(tree, entry{Path: p, Type: "blob"})
		}
		tree = append(tree, entry{Path: "sheets", Type: "tree"})
		_ = json.NewEncoder(w).Encode(map[string]any{"tree": tree, "truncated": false})

	case strings.HasPrefix(r.URL.Path, contentsPrefix) && r.Method == http.MethodGet:
		f.gets++
		path := strings.TrimPrefix(r.URL.Path, contentsPrefix)
		content, ok := f.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		etag := `"` + f.shas[path] + `"`
		if r.Header.Get("If-None-Match") == etag {
			f.notModify++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if r.Header.Get("Accept") == mediaTypeRaw {
			_, _ = w.Write(content)
			return
		}
		w.Header().Set("ETag", etag)
		payload := contentsResponse{Type: "file", Path: path, SHA: f.shas[path], Size: len(content)}
		if f.rawOnly[path] {
			payload.Encoding = "none"
		} else {
			payload.Encoding = "base64"
			payload.Content = base64.StdEncoding.EncodeToString(content)
		}
		_ = json.NewEncoder(w).Encode(payload)

	case strings.HasPrefix(r.URL.Path, contentsPrefix) && r.Method == http.MethodPut:
		path := strings.TrimPrefix(r.URL.Path, contentsPrefix)
		var body putContentsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		current, exists := f.shas[path]
		if exists && body.SHA == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`))
			return
		}
		if exists && body.SHA != current {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"is at ` + current + ` but expected ` + body.SHA + `"}`))
			return
		}
		content, _ := base64.StdEncoding.DecodeString(body.Content)
		sha := f.put(path, content)
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"sha": sha}})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStore(t *testing.T, fake *fakeGitHub, c cache.Cache) FileStore {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	return NewGitHubStore(context.Background(), GitHubStoreOptions{
		Token:   "test-token",
		Repo:    "owner/repo",
		Branch:  "main",
		BaseURL: server.URL,
		Cache:   c,
	})
}

func TestGitHubStore_GetFile(t *testing.T) {
	fake := newFakeGitHub()
	sha := fake.put("sheets/piano_sheets.json", []byte(`[{"title":"Fur Elise"}]`))
	store := newTestStore(t, fake, nil)

	file, err := store.GetFile(context.Background(), "sheets/piano_sheets.json")
	require.NoError(t, err)

	assert.Equal(t, sha, file.SHA)
	assert.JSONEq(t, `[{"title":"Fur Elise"}]`, string(file.Content))
	assert.Equal(t, "owner/repo", store.Repository())
}

func TestGitHubStore_GetFile_NotFound(t *testing.T) {
	store := newTestStore(t, newFakeGitHub(), nil)

	_, err := store.GetFile(context.Background(), "missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, http.StatusNotFound, storeErr.StatusCode)
}

func TestGitHubStore_GetFile_LargeFileUsesRawMedia(t *testing.T) {
	fake := newFakeGitHub()
	fake.put("sheets/big.json", []byte(`{"big":true}`))
	fake.rawOnly["sheets/big.json"] = true
	store := newTestStore(t, fake, nil)

	file, err := store.GetFile(context.Background(), "sheets/big.json")
	require.NoError(t, err)
	assert.Equal(t, `{"big":true}`, string(file.Content))
}

func TestGitHubStore_ConditionalGet(t *testing.T) {
	fake := newFakeGitHub()
	fake.put("sheets/piano_sheets.json", []byte(`[]`))
	store := newTestStore(t, fake, cache.NewMemoryCache(8, 0))
	ctx := context.Background()

	first, err := store.GetFile(ctx, "sheets/piano_sheets.json")
	require.NoError(t, err)

	second, err := store.GetFile(ctx, "sheets/piano_sheets.json")
	require.NoError(t, err)

	assert.Equal(t, first.SHA, second.SHA)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 2, fake.gets, "every read still goes to the store")
	assert.Equal(t, 1, fake.notModify)
}

func TestGitHubStore_PutFile_CreateAndUpdate(t *testing.T) {
	fake := newFakeGitHub()
	store := newTestStore(t, fake, cache.NewMemoryCache(8, 0))
	ctx := context.Background()

	sha, err := store.PutFile(ctx, "sheets/favorites.json", []byte(`{"favorites":[]}`), "", "create")
	require.NoError(t, err)
	require.NotEmpty(t, sha)

	newSHA, err := store.PutFile(ctx, "sheets/favorites.json", []byte(`{"favorites":["a"]}`), sha, "update")
	require.NoError(t, err)
	assert.NotEqual(t, sha, newSHA)

	file, err := store.GetFile(ctx, "sheets/favorites.json")
	require.NoError(t, err)
	assert.Equal(t, `{"favorites":["a"]}`, string(file.Content))
}

func TestGitHubStore_PutFile_StaleSHA(t *testing.T) {
	fake := newFakeGitHub()
	fake.put("sheets/favorites.json", []byte(`{}`))
	store := newTestStore(t, fake, nil)

	_, err := store.PutFile(context.Background(), "sheets/favorites.json", []byte(`{"favorites":["x"]}`), "stale", "update")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	// Creating over an existing file without a sha is also a conflict
	_, err = store.PutFile(context.Background(), "sheets/favorites.json", []byte(`{}`), "", "create")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestUpsertFile(t *testing.T) {
	fake := newFakeGitHub()
	store := newTestStore(t, fake, nil)
	ctx := context.Background()

	_, err := UpsertFile(ctx, store, "README.md", []byte("v1"), "readme")
	require.NoError(t, err)

	_, err = UpsertFile(ctx, store, "README.md", []byte("v2"), "readme")
	require.NoError(t, err)

	assert.Equal(t, "v2", string(fake.files["README.md"]))
}

func TestGitHubStore_ListFiles(t *testing.T) {
	fake := newFakeGitHub()
	fake.put("sheets/Beethoven/Fur_Elise.json", []byte(`{}`))
	fake.put("sheets/Chopin/Nocturne.json", []byte(`{}`))
	fake.put("README.md", []byte(`# readme`))
	store := newTestStore(t, fake, nil)

	paths, err := store.ListFiles(context.Background(), "sheets")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sheets/Beethoven/Fur_Elise.json", "sheets/Chopin/Nocturne.json"}, paths)
}

func TestNewGitHubStore_Unconfigured(t *testing.T) {
	store := NewGitHubStore(context.Background(), GitHubStoreOptions{Repo: "owner/repo"})
	ctx := context.Background()

	_, err := store.GetFile(ctx, "sheets/piano_sheets.json")
	assert.Equal(t, ErrNotConfigured, err)

	_, err = store.PutFile(ctx, "x", nil, "", "")
	assert.Equal(t, ErrNotConfigured, err)

	_, err = store.ListFiles(ctx, "sheets")
	assert.Equal(t, ErrNotConfigured, err)

	assert.Equal(t, "GitHub not configured", err.Error())
}

func TestStoreError_Error(t *testing.T) {
	err := &StoreError{Operation: "put", Path: "a.json", Message: "conflict", Err: ErrConflict}
	assert.Equal(t, "github put failed for a.json: conflict - "+ErrConflict.Error(), err.Error())
	assert.Equal(t, ErrConflict, err.Unwrap())
}
