package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pianosheets/internal/config"
	"pianosheets/internal/models"
	"pianosheets/internal/repositories"
)

// Options wires a Collector
type Options struct {
	Config *config.CollectorConfig
	Sink   Sink
	Launch Launcher

	// Optional: regenerate the README after a run that saved something
	Readme repositories.ReadmeRepository

	// Optional: record the run summary
	Runs repositories.RunRepository

	Now func() time.Time
}

// Collector crawls the listing, extracts notation from every new item and
// hands the results to a sink. Items are processed sequentially.
type Collector struct {
	cfg    *config.CollectorConfig
	sink   Sink
	launch Launcher
	readme repositories.ReadmeRepository
	runs   repositories.RunRepository
	clean  Cleaner
	now    func() time.Time
}

// New creates a collector
func New(opts Options) *Collector {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultCollectorConfig()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		cfg:    cfg,
		sink:   opts.Sink,
		launch: opts.Launch,
		readme: opts.Readme,
		runs:   opts.Runs,
		clean:  CleanerFor(cfg.CleanMode),
		now:    now,
	}
}

// Run performs one full collection pass. The returned summary is always
// non-nil; the error is set when the run aborted before finishing.
func (c *Collector) Run(ctx context.Context) (*models.RunSummary, error) {
	summary := models.NewRunSummary(c.sink.Name(), c.now())
	slog.Info("Starting collector run", "run_id", summary.RunID, "sink", c.sink.Name(), "listing", c.cfg.Listing)

	saved, err := c.run(ctx, summary)
	summary.Finish(c.now(), err)

	if summary.Successful > 0 && c.readme != nil {
		if rerr := c.readme.Regenerate(context.WithoutCancel(ctx), saved); rerr != nil {
			slog.Error("Failed to regenerate README", "error", rerr)
		}
	}
	c.record(ctx, summary)

	logArgs := []any{
		"run_id", summary.RunID,
		"existing", summary.Existing,
		"discovered", summary.Discovered,
		"skipped", summary.Skipped,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"duration", summary.Duration(),
	}
	if err != nil {
		slog.Error("Collector run aborted", append(logArgs, "error", err)...)
	} else {
		slog.Info("Collector run finished", logArgs...)
	}
	return summary, err
}

// run returns the full record set after the run: existing plus newly saved
func (c *Collector) run(ctx context.Context, summary *models.RunSummary) (models.Catalog, error) {
	existing, err := c.sink.Existing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing records: %w", err)
	}
	summary.Existing = len(existing)
	seen := NewDedupSet(existing)
	slog.Info("Loaded existing records", "count", len(existing), "known_ids", seen.Len())

	browser, err := c.launch(ctx)
	if err != nil {
		return existing, err
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			slog.Warn("Failed to close browser", "error", cerr)
		}
	}()

	page, err := browser.NewPage()
	if err != nil {
		return existing, err
	}
	defer page.Close()

	lister := NewLister(c.cfg, newLimiter(c.cfg.PageDelay()))
	var listPage Page
	if NeedsBrowser(lister) {
		listPage = page
	}
	cands, err := lister.Enumerate(ctx, listPage)
	if err != nil {
		return existing, err
	}
	summary.Discovered = len(cands)

	todo := make([]Candidate, 0, len(cands))
	for _, cand := range cands {
		if seen.Contains(cand.ID, cand.URL) {
			summary.Skipped++
			continue
		}
		todo = append(todo, cand)
	}
	if c.cfg.Limit > 0 && len(todo) > c.cfg.Limit {
		todo = todo[:c.cfg.Limit]
	}
	slog.Info("Enumerated listing", "discovered", len(cands), "skipped", summary.Skipped, "to_scrape", len(todo))

	all := append(models.Catalog{}, existing...)
	for i, cand := range todo {
		if i > 0 {
			if err := pause(ctx, c.cfg.ItemDelay()); err != nil {
				return all, err
			}
		}

		song, result := c.scrape(ctx, page, cand)
		summary.Record(result)

		if result.Status == models.ItemSucceeded {
			seen.Add(song.SongID(), song.URL)
			all = append(all, song)
			slog.Info("Saved song", "index", i+1, "total", len(todo), "title", cand.Title, "artist", cand.Artist, "url", cand.URL,
				"chars", result.Chars, "fallback", result.Fallback)
		} else {
			slog.Warn("Failed to scrape song", "index", i+1, "total", len(todo), "title", cand.Title, "artist", cand.Artist, "url", cand.URL,
				"reason", result.Reason)
		}
	}

	return all, nil
}

// scrape processes one item. Failures are reported in the result, never
// returned, so one bad page cannot end the run.
func (c *Collector) scrape(ctx context.Context, page Page, cand Candidate) (song *models.Song, result models.ItemResult) {
	result = models.ItemResult{
		ID:     cand.ID,
		Title:  cand.Title,
		Artist: cand.Artist,
		URL:    cand.URL,
		Status: models.ItemFailed,
	}
	defer func() {
		if r := recover(); r != nil {
			song = nil
			result.Status = models.ItemFailed
			result.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	if err := page.Goto(ctx, cand.URL); err != nil {
		result.Reason = "navigation failed: " + err.Error()
		return nil, result
	}
	page.Wait(c.cfg.Settle())

	clicked, err := page.ClickButtonContaining(c.cfg.Difficulty)
	if err != nil {
		slog.Warn("Failed to select difficulty", "url", cand.URL, "difficulty", c.cfg.Difficulty, "error", err)
	}
	if clicked {
		page.Wait(c.cfg.ClickSettle())
	} else {
		result.Fallback = true
	}

	categories := c.categories(page)

	ex, err := Extract(page, c.cfg.Selectors.Notes, c.cfg.MinNotesLength, c.clean)
	if err != nil {
		result.Reason = err.Error()
		return nil, result
	}
	slog.Debug("Extracted notes", "url", cand.URL, "selector", ex.Selector, "raw_chars", len(ex.Raw), "chars", len(ex.Notes))

	song = cand.Song()
	song.Notes = ex.Notes
	song.Categories = categories
	song.Difficulty = models.DefaultDifficulty
	if clicked {
		song.Difficulty = c.cfg.Difficulty
	}
	song.MarkScraped(c.now())

	if err := c.sink.Save(ctx, song); err != nil {
		result.Reason = "save failed: " + err.Error()
		return nil, result
	}

	result.Status = models.ItemSucceeded
	result.Chars = len(ex.Notes)
	return song, result
}

// categories returns the distinct tag link texts on a detail page
func (c *Collector) categories(page Page) []string {
	if c.cfg.Selectors.Category == "" {
		return nil
	}
	texts, err := page.Texts(c.cfg.Selectors.Category)
	if err != nil {
		slog.Debug("Failed to read categories", "error", err)
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" || strings.EqualFold(t, "all") {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (c *Collector) record(ctx context.Context, summary *models.RunSummary) {
	if c.runs == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.runs.Save(saveCtx, summary); err != nil {
		slog.Error("Failed to record run", "run_id", summary.RunID, "error", err)
	}
}

// pause sleeps for d after the previous item finished, returning early when
// ctx is done
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// newLimiter allows one event per d; zero disables pacing
func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

