package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pianosheets/internal/models"
	"pianosheets/internal/repositories"
	"pianosheets/internal/services"
)

// Sink persists scraped songs
type Sink interface {
	Name() string

	// Existing returns the records already stored, used to seed deduplication
	Existing(ctx context.Context) (models.Catalog, error)

	// Save writes one song
	Save(ctx context.Context, song *models.Song) error
}

// sheetVariant is the catalog representation of one extracted notes block
type sheetVariant struct {
	Difficulty string `json:"difficulty"`
	Notes      string `json:"notes"`
}

type catalogSink struct {
	repo repositories.CatalogRepository
}

// NewCatalogSink appends songs to the single catalog document, one commit per song
func NewCatalogSink(repo repositories.CatalogRepository) Sink {
	return &catalogSink{repo: repo}
}

func (s *catalogSink) Name() string { return "catalog" }

func (s *catalogSink) Existing(ctx context.Context) (models.Catalog, error) {
	songs, err := s.repo.All(ctx)
	if errors.Is(err, services.ErrFileNotFound) {
		return models.Catalog{}, nil
	}
	return songs, err
}

// Save moves the notes block into a sheet variant before appending
func (s *catalogSink) Save(ctx context.Context, song *models.Song) error {
	record := *song
	if record.Notes != "" {
		raw, err := json.Marshal(sheetVariant{Difficulty: record.DifficultyOrDefault(), Notes: record.Notes})
		if err != nil {
			return err
		}
		record.Sheets = append([]json.RawMessage{raw}, record.Sheets...)
		record.Notes = ""
	}

	added, err := s.repo.Append(ctx, &record)
	if err != nil {
		return err
	}
	if added == 0 {
		slog.Debug("Song already in catalog", "url", song.URL)
	}
	return nil
}

type remoteFileSink struct {
	store services.FileStore
	dir   string
}

// NewRemoteFileSink writes one JSON document per song under dir in the store
func NewRemoteFileSink(store services.FileStore, dir string) Sink {
	return &remoteFileSink{store: store, dir: strings.Trim(dir, "/")}
}

func (s *remoteFileSink) Name() string { return "files" }

// Existing reads every song document under dir. Unreadable documents are skipped.
func (s *remoteFileSink) Existing(ctx context.Context) (models.Catalog, error) {
	paths, err := s.store.ListFiles(ctx, s.dir)
	if err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			return models.Catalog{}, nil
		}
		return nil, err
	}

	songs := models.Catalog{}
	for _, p := range paths {
		if path.Ext(p) != ".json" {
			continue
		}
		file, err := s.store.GetFile(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Skipping unreadable song file", "path", p, "error", err)
			continue
		}
		song, err := decodeSong(file.Content)
		if err != nil {
			slog.Warn("Skipping invalid song file", "path", p, "error", err)
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func (s *remoteFileSink) Save(ctx context.Context, song *models.Song) error {
	data, err := models.EncodeSong(song)
	if err != nil {
		return err
	}
	p := SongFilePath(s.dir, song)
	message := fmt.Sprintf("Add %s by %s", song.Title, song.ArtistOrDefault())
	if _, err := services.UpsertFile(ctx, s.store, p, data, message); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

type localFileSink struct {
	dir string
}

// NewLocalFileSink writes one JSON document per song under dir on disk
func NewLocalFileSink(dir string) Sink {
	return &localFileSink{dir: dir}
}

func (s *localFileSink) Name() string { return "local" }

func (s *localFileSink) Existing(ctx context.Context) (models.Catalog, error) {
	songs := models.Catalog{}
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.dir {
				return fs.SkipAll
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || filepath.Ext(p) != ".json" {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		song, err := decodeSong(data)
		if err != nil {
			slog.Warn("Skipping invalid song file", "path", p, "error", err)
			return nil
		}
		songs = append(songs, song)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (s *localFileSink) Save(_ context.Context, song *models.Song) error {
	data, err := models.EncodeSong(song)
	if err != nil {
		return err
	}
	p := filepath.FromSlash(SongFilePath(filepath.ToSlash(s.dir), song))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func decodeSong(data []byte) (*models.Song, error) {
	var song models.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, err
	}
	if song.URL == "" {
		return nil, errors.New("missing url")
	}
	return &song, nil
}
