package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// fakePage serves canned HTML per URL and renders text with DocumentText
type fakePage struct {
	pages   map[string]string
	panicOn string

	// Scroll behavior: heights[i] is reported after i scrolls and after[i]
	// replaces the document after the (i+1)th scroll
	heights []int
	after   []string

	// sleep makes Wait block like a real settle delay
	sleep bool

	html     string
	doc      *DocumentText
	visits   []string
	visitsAt []time.Time
	clicked  []string
	scrolls  int
}

func newFakePage(pages map[string]string) *fakePage {
	return &fakePage{pages: pages}
}

func (p *fakePage) load(markup string) {
	p.html = markup
	p.doc, _ = NewDocumentText(markup)
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.visits = append(p.visits, url)
	p.visitsAt = append(p.visitsAt, time.Now())
	if url == p.panicOn {
		panic("renderer crashed")
	}
	markup, ok := p.pages[url]
	if !ok {
		return fmt.Errorf("%s returned status 404", url)
	}
	p.load(markup)
	return nil
}

func (p *fakePage) HTML() (string, error) {
	return p.html, nil
}

func (p *fakePage) Texts(selector string) ([]string, error) {
	if p.doc == nil {
		return nil, nil
	}
	return p.doc.Texts(selector)
}

func (p *fakePage) ClickButtonContaining(keyword string) (bool, error) {
	found := false
	p.doc.doc.Find("button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), strings.ToLower(keyword)) {
			p.clicked = append(p.clicked, s.Text())
			found = true
			return false
		}
		return true
	})
	return found, nil
}

func (p *fakePage) ScrollToBottom() error {
	if p.scrolls < len(p.after) {
		p.load(p.after[p.scrolls])
	}
	p.scrolls++
	return nil
}

func (p *fakePage) ScrollHeight() (int, error) {
	if len(p.heights) == 0 {
		return 0, nil
	}
	i := p.scrolls
	if i >= len(p.heights) {
		i = len(p.heights) - 1
	}
	return p.heights[i], nil
}

func (p *fakePage) Wait(d time.Duration) {
	if p.sleep {
		time.Sleep(d)
	}
}

func (p *fakePage) Close() error { return nil }

type fakeBrowser struct {
	page   *fakePage
	closed bool
}

func (b *fakeBrowser) NewPage() (Page, error) { return b.page, nil }

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBrowser) launcher() Launcher {
	return func(context.Context) (Browser, error) { return b, nil }
}
