package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"pianosheets/internal/config"
)

// NewStaticLauncher returns a launcher whose pages fetch server-rendered
// markup over plain HTTP. Scripts never run, so difficulty toggles are
// never found and every item is taken from its default variant.
func NewStaticLauncher(cfg *config.CollectorConfig) Launcher {
	return func(ctx context.Context) (Browser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		client := resty.New().
			SetTimeout(cfg.Timeout()).
			SetHeader("User-Agent", cfg.UserAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml")
		return &staticBrowser{client: client}, nil
	}
}

type staticBrowser struct {
	client *resty.Client
}

func (b *staticBrowser) NewPage() (Page, error) {
	return &staticPage{client: b.client}, nil
}

func (b *staticBrowser) Close() error {
	return nil
}

// staticPage holds the last fetched document
type staticPage struct {
	client *resty.Client
	markup string
	doc    *DocumentText
}

func (p *staticPage) Goto(ctx context.Context, url string) error {
	p.markup, p.doc = "", nil

	resp, err := p.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode())
	}

	doc, err := NewDocumentText(resp.String())
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}
	p.markup, p.doc = resp.String(), doc
	return nil
}

func (p *staticPage) HTML() (string, error) {
	return p.markup, nil
}

func (p *staticPage) Texts(selector string) ([]string, error) {
	if p.doc == nil {
		return nil, nil
	}
	return p.doc.Texts(selector)
}

func (p *staticPage) ClickButtonContaining(string) (bool, error) {
	return false, nil
}

func (p *staticPage) ScrollToBottom() error {
	return nil
}

func (p *staticPage) ScrollHeight() (int, error) {
	return 0, nil
}

func (p *staticPage) Wait(time.Duration) {}

func (p *staticPage) Close() error {
	return nil
}
