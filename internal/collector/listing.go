package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"pianosheets/internal/config"
	"pianosheets/internal/models"
)

// ErrListingUnreachable is returned when the first listing page cannot be loaded
var ErrListingUnreachable = errors.New("listing unreachable")

// Candidate is an item link discovered on a listing page
type Candidate struct {
	ID        string
	URL       string
	Title     string
	Artist    string
	Thumbnail string
}

// Song returns a record seeded with the listing metadata
func (c Candidate) Song() *models.Song {
	s := models.NewSong(c.Title, c.Artist, c.URL)
	s.Thumbnail = c.Thumbnail
	return s
}

// ParseListing extracts item links from a listing page. Category and
// pagination links are ignored and every URL is made absolute against base.
// hasNext reports whether the page links to a following page.
func ParseListing(root *goquery.Selection, base *url.URL, sel config.SelectorConfig) (cands []Candidate, hasNext bool) {
	seen := make(map[string]struct{})

	root.Find(sel.Links).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		abs := resolve(base, href)
		if !strings.Contains(abs, "/sheets/") || strings.Contains(abs, "category") || strings.Contains(abs, "page") {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		c := Candidate{
			ID:     models.DeriveID(abs),
			URL:    abs,
			Title:  firstText(link, sel.Title, models.UnknownArtist),
			Artist: firstText(link, sel.Artist, models.UnknownArtist),
		}
		if sel.Thumbnail != "" {
			if src, ok := link.Find(sel.Thumbnail).First().Attr("src"); ok && src != "" {
				c.Thumbnail = resolve(base, src)
			}
		}
		cands = append(cands, c)
	})

	if sel.Next != "" {
		hasNext = root.Find(sel.Next).Length() > 0
	}
	return cands, hasNext
}

// firstText returns the trimmed text of the first selector that matches
// inside s with non-empty text
func firstText(s *goquery.Selection, selectors []string, fallback string) string {
	for _, sel := range selectors {
		if text := strings.Join(strings.Fields(s.Find(sel).First().Text()), " "); text != "" {
			return text
		}
	}
	return fallback
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// Lister enumerates every item on the listing, deduplicated by URL.
// page is nil for listers that do not need a browser.
type Lister interface {
	Enumerate(ctx context.Context, page Page) ([]Candidate, error)
}

// NewLister returns the lister for the configured strategy. Listing page
// loads wait on limiter.
func NewLister(cfg *config.CollectorConfig, limiter *rate.Limiter) Lister {
	switch cfg.Listing {
	case config.ListingScroll:
		return &scrollLister{cfg: cfg, limiter: limiter}
	case config.ListingStatic:
		return &staticLister{cfg: cfg, limiter: limiter}
	default:
		return &pagesLister{cfg: cfg, limiter: limiter}
	}
}

// NeedsBrowser reports whether the lister drives a browser page
func NeedsBrowser(l Lister) bool {
	_, static := l.(*staticLister)
	return !static
}

// enumeration accumulates candidates across pages in discovery order
type enumeration struct {
	seen map[string]struct{}
	out  []Candidate
}

func newEnumeration() *enumeration {
	return &enumeration{seen: make(map[string]struct{})}
}

// add returns how many candidates were not seen before
func (e *enumeration) add(cands []Candidate) int {
	added := 0
	for _, c := range cands {
		if _, ok := e.seen[c.URL]; ok {
			continue
		}
		e.seen[c.URL] = struct{}{}
		e.out = append(e.out, c)
		added++
	}
	return added
}

func unreachable(listingURL string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrListingUnreachable, listingURL, err)
}

// pagesLister walks numeric pagination: <listing>, <listing>/page/2, ...
type pagesLister struct {
	cfg     *config.CollectorConfig
	limiter *rate.Limiter
}

func (l *pagesLister) Enumerate(ctx context.Context, page Page) ([]Candidate, error) {
	e := newEnumeration()

	for n := 1; n <= l.cfg.MaxPages; n++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return e.out, err
		}

		listingURL := l.cfg.ListingURL(n)
		if err := page.Goto(ctx, listingURL); err != nil {
			if n == 1 {
				return nil, unreachable(listingURL, err)
			}
			slog.Warn("Listing page failed, stopping enumeration", "page", n, "url", listingURL, "error", err)
			break
		}
		page.Wait(l.cfg.ClickSettle())

		cands, hasNext, err := parsePage(page, listingURL, l.cfg.Selectors)
		if err != nil {
			if n == 1 {
				return nil, unreachable(listingURL, err)
			}
			slog.Warn("Failed to read listing page", "page", n, "error", err)
			break
		}

		added := e.add(cands)
		slog.Info("Scanned listing page", "page", n, "links", len(cands), "new", added, "total", len(e.out))

		if added == 0 || !hasNext {
			break
		}
	}

	return e.out, nil
}

// scrollLister loads one page and scrolls until its height stops growing
type scrollLister struct {
	cfg     *config.CollectorConfig
	limiter *rate.Limiter
}

func (l *scrollLister) Enumerate(ctx context.Context, page Page) ([]Candidate, error) {
	e := newEnumeration()
	listingURL := l.cfg.ListingURL(1)

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := page.Goto(ctx, listingURL); err != nil {
		return nil, unreachable(listingURL, err)
	}

	height, err := page.ScrollHeight()
	if err != nil {
		return nil, unreachable(listingURL, err)
	}

	for scrolls := 0; ; scrolls++ {
		cands, _, err := parsePage(page, listingURL, l.cfg.Selectors)
		if err != nil {
			return e.out, err
		}
		added := e.add(cands)
		slog.Info("Scanned listing", "scrolls", scrolls, "new", added, "total", len(e.out))

		if scrolls >= l.cfg.MaxScrolls {
			slog.Warn("Reached scroll limit", "max_scrolls", l.cfg.MaxScrolls)
			break
		}

		if err := page.ScrollToBottom(); err != nil {
			return e.out, err
		}
		if err := l.limiter.Wait(ctx); err != nil {
			return e.out, err
		}
		page.Wait(l.cfg.ClickSettle())

		next, err := page.ScrollHeight()
		if err != nil {
			return e.out, err
		}
		if next <= height {
			break
		}
		height = next
	}

	return e.out, nil
}

func parsePage(page Page, pageURL string, sel config.SelectorConfig) ([]Candidate, bool, error) {
	markup, err := page.HTML()
	if err != nil {
		return nil, false, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, false, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, false, err
	}
	cands, hasNext := ParseListing(doc.Selection, base, sel)
	return cands, hasNext, nil
}

// staticLister fetches server-rendered listing pages over plain HTTP with colly
type staticLister struct {
	cfg     *config.CollectorConfig
	limiter *rate.Limiter
}

func (l *staticLister) Enumerate(ctx context.Context, _ Page) ([]Candidate, error) {
	e := newEnumeration()

	c := colly.NewCollector(
		colly.UserAgent(l.cfg.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(l.cfg.Timeout())

	var (
		cands   []Candidate
		hasNext bool
	)
	c.OnHTML("html", func(el *colly.HTMLElement) {
		cands, hasNext = ParseListing(el.DOM, el.Request.URL, l.cfg.Selectors)
	})

	for n := 1; n <= l.cfg.MaxPages; n++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return e.out, err
		}

		cands, hasNext = nil, false
		listingURL := l.cfg.ListingURL(n)
		if err := c.Visit(listingURL); err != nil {
			if n == 1 {
				return nil, unreachable(listingURL, err)
			}
			slog.Warn("Listing page failed, stopping enumeration", "page", n, "url", listingURL, "error", err)
			break
		}

		added := e.add(cands)
		slog.Info("Scanned listing page", "page", n, "links", len(cands), "new", added, "total", len(e.out))

		if added == 0 || !hasNext {
			break
		}
	}

	return e.out, nil
}
