package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Favorites is the ordered list of favorite song ids.
// The list never contains duplicates and is rewritten wholesale on every change.
type Favorites struct {
	IDs       []string  `json:"favorites"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFavorites creates an empty favorites list
func NewFavorites() *Favorites {
	return &Favorites{IDs: make([]string, 0)}
}

// ParseFavorites decodes a favorites document. An empty document is an empty list.
func ParseFavorites(data []byte) (*Favorites, error) {
	fav := NewFavorites()
	if len(strings.TrimSpace(string(data))) == 0 {
		return fav, nil
	}
	if err := json.Unmarshal(data, fav); err != nil {
		return nil, err
	}
	if fav.IDs == nil {
		fav.IDs = make([]string, 0)
	}
	return fav, nil
}

// Encode serializes the favorites document
func (f *Favorites) Encode() ([]byte, error) {
	return marshalIndent(f)
}

// Contains reports whether id is in the list
func (f *Favorites) Contains(id string) bool {
	for _, existing := range f.IDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Add appends id unless present. Returns false when the list was left unchanged.
func (f *Favorites) Add(id string, now time.Time) bool {
	if f.Contains(id) {
		return false
	}
	f.IDs = append(f.IDs, id)
	f.UpdatedAt = now.UTC()
	return true
}

// Remove deletes id if present. Returns false when the list was left unchanged.
func (f *Favorites) Remove(id string, now time.Time) bool {
	for i, existing := range f.IDs {
		if existing == id {
			f.IDs = append(f.IDs[:i], f.IDs[i+1:]...)
			f.UpdatedAt = now.UTC()
			return true
		}
	}
	return false
}
