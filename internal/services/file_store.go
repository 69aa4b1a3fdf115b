package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNotConfigured is returned by every store operation when no credential is set
	ErrNotConfigured = errors.New("GitHub not configured")

	// ErrFileNotFound is returned when the path does not exist on the branch
	ErrFileNotFound = errors.New("file not found")

	// ErrConflict is returned when a write carries a stale version token
	ErrConflict = errors.New("version conflict: file was changed by another writer")
)

// FileStore defines the version-controlled file backend the catalog lives in.
// Writes are guarded by the content hash returned from the last read.
type FileStore interface {
	// GetFile reads a file and its current version token
	GetFile(ctx context.Context, path string) (*RemoteFile, error)

	// PutFile writes content. An empty sha creates the file; otherwise sha must
	// match the current version or ErrConflict is returned.
	PutFile(ctx context.Context, path string, content []byte, sha, message string) (string, error)

	// ListFiles returns every file path under dir, recursively
	ListFiles(ctx context.Context, dir string) ([]string, error)

	// Repository returns the repository identifier, e.g. "owner/name"
	Repository() string
}

// RemoteFile is a file read from the store
type RemoteFile struct {
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Content []byte `json:"content"`
}

// StoreError represents a failed store call
type StoreError struct {
	Operation  string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	msg := "github " + e.Operation + " failed"
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// UpsertFile creates path if absent or updates it if present.
// Returns the new version token.
func UpsertFile(ctx context.Context, store FileStore, path string, content []byte, message string) (string, error) {
	sha := ""
	existing, err := store.GetFile(ctx, path)
	switch {
	case err == nil:
		sha = existing.SHA
	case errors.Is(err, ErrFileNotFound):
		slog.Debug("Creating new file in store", "path", path)
	default:
		return "", err
	}

	newSHA, err := store.PutFile(ctx, path, content, sha, message)
	if err != nil {
		return "", fmt.Errorf("upsert %s: %w", path, err)
	}
	return newSHA, nil
}

// unconfiguredStore is used when no credential is available
type unconfiguredStore struct {
	repo string
}

func (s unconfiguredStore) GetFile(context.Context, string) (*RemoteFile, error) {
	return nil, ErrNotConfigured
}

func (s unconfiguredStore) PutFile(context.Context, string, []byte, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (s unconfiguredStore) ListFiles(context.Context, string) ([]string, error) {
	return nil, ErrNotConfigured
}

func (s unconfiguredStore) Repository() string {
	return s.repo
}
