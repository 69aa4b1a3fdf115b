package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the outcome of scraping one song
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemFailed    ItemStatus = "failed"
)

// ItemResult records what happened to one candidate during a collector run
type ItemResult struct {
	ID       string     `bson:"id" json:"id"`
	Title    string     `bson:"title" json:"title"`
	Artist   string     `bson:"artist" json:"artist"`
	URL      string     `bson:"url" json:"url"`
	Status   ItemStatus `bson:"status" json:"status"`
	Reason   string     `bson:"reason,omitempty" json:"reason,omitempty"`     // Failure reason
	Chars    int        `bson:"chars,omitempty" json:"chars,omitempty"`       // Length of extracted notes
	Fallback bool       `bson:"fallback,omitempty" json:"fallback,omitempty"` // Difficulty toggle not found
}

// RunSummary aggregates a whole collector run
type RunSummary struct {
	RunID      string       `bson:"run_id" json:"run_id"`
	Sink       string       `bson:"sink" json:"sink"`
	StartedAt  time.Time    `bson:"started_at" json:"started_at"`
	FinishedAt time.Time    `bson:"finished_at" json:"finished_at"`
	Existing   int          `bson:"existing" json:"existing"`     // Records already in the catalog
	Discovered int          `bson:"discovered" json:"discovered"` // Unique links found on listings
	Skipped    int          `bson:"skipped" json:"skipped"`       // Dropped by the dedup set
	Successful int          `bson:"successful" json:"successful"`
	Failed     int          `bson:"failed" json:"failed"`
	Aborted    bool         `bson:"aborted" json:"aborted"`
	Error      string       `bson:"error,omitempty" json:"error,omitempty"`
	Items      []ItemResult `bson:"items" json:"items"`
}

// NewRunSummary starts a summary with a fresh run id
func NewRunSummary(sink string, now time.Time) *RunSummary {
	return &RunSummary{
		RunID:     uuid.NewString(),
		Sink:      sink,
		StartedAt: now.UTC(),
		Items:     make([]ItemResult, 0),
	}
}

// Record appends an item result and updates the counters
func (r *RunSummary) Record(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case ItemSucceeded:
		r.Successful++
	case ItemFailed:
		r.Failed++
	}
}

// Finish stamps the end of the run
func (r *RunSummary) Finish(now time.Time, err error) {
	r.FinishedAt = now.UTC()
	if err != nil {
		r.Aborted = true
		r.Error = err.Error()
	}
}

// Duration returns how long the run took
func (r *RunSummary) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
