package collector

import "pianosheets/internal/models"

// DedupSet remembers which songs are already stored, by id and by URL
type DedupSet struct {
	ids  map[string]struct{}
	urls map[string]struct{}
}

// NewDedupSet seeds the set from existing records
func NewDedupSet(existing models.Catalog) *DedupSet {
	d := &DedupSet{
		ids:  make(map[string]struct{}, len(existing)),
		urls: make(map[string]struct{}, len(existing)),
	}
	for _, s := range existing {
		if s != nil {
			d.Add(s.SongID(), s.URL)
		}
	}
	return d
}

// Contains reports whether either key is known
func (d *DedupSet) Contains(id, url string) bool {
	if _, ok := d.ids[id]; ok && id != "" {
		return true
	}
	_, ok := d.urls[url]
	return ok && url != ""
}

// Add records both keys
func (d *DedupSet) Add(id, url string) {
	if id != "" {
		d.ids[id] = struct{}{}
	}
	if url != "" {
		d.urls[url] = struct{}{}
	}
}

// Len returns the number of distinct ids
func (d *DedupSet) Len() int {
	return len(d.ids)
}
