package testutil

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"pianosheets/internal/models"
	"pianosheets/internal/services"

	"github.com/stretchr/testify/mock"
)

// MemoryStore is an in-memory FileStore with the same version-token rules as
// the GitHub contents API
type MemoryStore struct {
	mu    sync.Mutex
	repo  string
	files map[string][]byte
	shas  map[string]string

	// Commits holds the message of every successful write, in order
	Commits []string

	// Reads counts GetFile calls
	Reads int

	// Err, when set, is returned from every operation
	Err error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		repo:  "test/piano-sheets-db",
		files: make(map[string][]byte),
		shas:  make(map[string]string),
	}
}

// Seed writes a file directly, bypassing version checks, and returns its sha
func (m *MemoryStore) Seed(path string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(path, content)
}

// SeedCatalog writes songs as a catalog document at path
func (m *MemoryStore) SeedCatalog(path string, songs models.Catalog) string {
	data, err := songs.Encode()
	if err != nil {
		panic(err)
	}
	return m.Seed(path, data)
}

// Content returns the current content of path, or nil
func (m *MemoryStore) Content(path string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path]
}

// Touch changes the sha of path as if another writer had committed
func (m *MemoryStore) Touch(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shas[path] = m.shas[path] + "-touched"
}

func (m *MemoryStore) GetFile(_ context.Context, path string) (*services.RemoteFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	if m.Err != nil {
		return nil, m.Err
	}

	content, ok := m.files[path]
	if !ok {
		return nil, &services.StoreError{Operation: "get", Path: path, StatusCode: 404, Message: "Not Found", Err: services.ErrFileNotFound}
	}
	return &services.RemoteFile{Path: path, SHA: m.shas[path], Content: append([]byte(nil), content...)}, nil
}

func (m *MemoryStore) PutFile(_ context.Context, path string, content []byte, sha, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}

	current, exists := m.shas[path]
	if (exists && sha != current) || (!exists && sha != "") {
		return "", &services.StoreError{Operation: "put", Path: path, StatusCode: 409, Message: "sha mismatch", Err: services.ErrConflict}
	}

	m.Commits = append(m.Commits, message)
	return m.write(path, content), nil
}

func (m *MemoryStore) ListFiles(_ context.Context, dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}
	var paths []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MemoryStore) Repository() string {
	return m.repo
}

func (m *MemoryStore) write(path string, content []byte) string {
	sum := sha1.Sum(content)
	sha := hex.EncodeToString(sum[:])
	m.files[path] = append([]byte(nil), content...)
	m.shas[path] = sha
	return sha
}

// MockCatalogRepository is a mock implementation of CatalogRepository for testing
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) All(ctx context.Context) (models.Catalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Catalog), args.Error(1)
}

func (m *MockCatalogRepository) Append(ctx context.Context, songs ...*models.Song) (int, error) {
	args := m.Called(ctx, songs)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogRepository) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCatalogRepository) Repository() string {
	args := m.Called()
	return args.String(0)
}

// MockRunRepository is a mock implementation of RunRepository for testing
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Save(ctx context.Context, run *models.RunSummary) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Recent(ctx context.Context, limit int) ([]*models.RunSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RunSummary), args.Error(1)
}

// Helper functions for setting up mock expectations

// ExpectCatalogAll sets up expectation for All
func ExpectCatalogAll(mockRepo *MockCatalogRepository, songs models.Catalog, err error) {
	mockRepo.On("All", mock.Anything).Return(songs, err)
}

// ExpectRunsRecent sets up expectation for Recent
func ExpectRunsRecent(mockRepo *MockRunRepository, limit int, runs []*models.RunSummary, err error) {
	mockRepo.On("Recent", mock.Anything, limit).Return(runs, err)
}
