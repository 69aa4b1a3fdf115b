package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"pianosheets/internal/config"
)

// Browser owns a headless browser session
type Browser interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a single browser tab. Rendered text comes from the live DOM after
// scripts have run.
type Page interface {
	TextSource

	// Goto navigates and fails on transport errors and HTTP status >= 400
	Goto(ctx context.Context, url string) error

	// HTML returns the serialized DOM
	HTML() (string, error)

	// ClickButtonContaining clicks the first button whose text contains
	// keyword, case-insensitively. Reports whether one was found.
	ClickButtonContaining(keyword string) (bool, error)

	ScrollToBottom() error
	ScrollHeight() (int, error)
	Wait(d time.Duration)
	Close() error
}

// Launcher starts a browser
type Launcher func(ctx context.Context) (Browser, error)

// NewPlaywrightLauncher returns a launcher for headless Chromium configured
// from cfg
func NewPlaywrightLauncher(cfg *config.CollectorConfig) Launcher {
	return func(ctx context.Context) (Browser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		instance, err := pw.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright: %w", err)
		}

		browser, err := instance.Chromium.Launch(pw.BrowserTypeLaunchOptions{
			Headless: pw.Bool(!cfg.Headful),
			Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
		})
		if err != nil {
			_ = instance.Stop()
			return nil, fmt.Errorf("could not launch browser: %w", err)
		}

		bctx, err := browser.NewContext(pw.BrowserNewContextOptions{
			UserAgent: pw.String(cfg.UserAgent),
			Viewport:  &pw.Size{Width: 1920, Height: 1080},
		})
		if err != nil {
			_ = browser.Close()
			_ = instance.Stop()
			return nil, fmt.Errorf("could not create browser context: %w", err)
		}

		return &playwrightBrowser{
			instance: instance,
			browser:  browser,
			context:  bctx,
			timeout:  cfg.Timeout(),
		}, nil
	}
}

type playwrightBrowser struct {
	instance *pw.Playwright
	browser  pw.Browser
	context  pw.BrowserContext
	timeout  time.Duration
}

func (b *playwrightBrowser) NewPage() (Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.SetDefaultTimeout(float64(b.timeout.Milliseconds()))
	return &playwrightPage{page: page, timeout: b.timeout}, nil
}

// Close tears down the context, the browser and the driver, in that order
func (b *playwrightBrowser) Close() error {
	return errors.Join(
		b.context.Close(),
		b.browser.Close(),
		b.instance.Stop(),
	)
}

type playwrightPage struct {
	page    pw.Page
	timeout time.Duration
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := p.page.Goto(url, pw.PageGotoOptions{
		Timeout:   pw.Float(float64(p.timeout.Milliseconds())),
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return err
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("%s returned status %d", url, resp.Status())
	}
	return nil
}

func (p *playwrightPage) HTML() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Texts(selector string) ([]string, error) {
	return p.page.Locator(selector).AllInnerTexts()
}

func (p *playwrightPage) ClickButtonContaining(keyword string) (bool, error) {
	buttons, err := p.page.Locator("button").All()
	if err != nil {
		return false, err
	}
	keyword = strings.ToLower(keyword)
	for _, b := range buttons {
		text, err := b.InnerText()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), keyword) {
			if err := b.Click(); err != nil {
				return false, fmt.Errorf("failed to click %q: %w", text, err)
			}
			return true, nil
		}
	}
	return false, nil
}

func (p *playwrightPage) ScrollToBottom() error {
	_, err := p.page.Evaluate(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (p *playwrightPage) ScrollHeight() (int, error) {
	v, err := p.page.Evaluate(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	switch h := v.(type) {
	case int:
		return h, nil
	case int64:
		return int(h), nil
	case float64:
		return int(h), nil
	default:
		return 0, fmt.Errorf("unexpected scroll height %T", v)
	}
}

func (p *playwrightPage) Wait(d time.Duration) {
	if d > 0 {
		p.page.WaitForTimeout(float64(d.Milliseconds()))
	}
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
