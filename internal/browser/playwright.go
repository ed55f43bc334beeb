package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/config"
)

// Playwright drives a real browser. Windows are pages of one browser context.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser // nil for persistent (profile) contexts
	bctx    playwright.BrowserContext
	log     *zap.Logger

	mu      sync.Mutex
	pages   map[Window]playwright.Page
	order   []Window
	current Window
	next    Window
}

var _ Driver = (*Playwright)(nil)

// Launch starts playwright and opens the first window according to the
// browser section of the campaign config.
func Launch(ctx context.Context, cfg config.Browser, log *zap.Logger) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	d := &Playwright{
		pw:    pw,
		log:   log,
		pages: make(map[Window]playwright.Page),
	}

	bt, channel := browserType(pw, cfg.Type)

	var viewport *playwright.Size
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		viewport = &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight}
	}
	var userAgent *string
	if cfg.Agent != "" {
		userAgent = playwright.String(cfg.Agent)
	}
	var proxy *playwright.Proxy
	if cfg.Proxy != nil && cfg.Proxy.Server != "" {
		proxy = &playwright.Proxy{Server: cfg.Proxy.Server}
		if cfg.Proxy.Username != "" {
			proxy.Username = playwright.String(cfg.Proxy.Username)
			proxy.Password = playwright.String(cfg.Proxy.Password)
		}
	}

	// a profile keeps the job-site login between runs; incognito wins over it
	if cfg.Profile != "" && !cfg.Incognito {
		log.Info("🗂️ Launching with persistent profile", zap.String("profile", cfg.Profile))
		d.bctx, err = bt.LaunchPersistentContext(cfg.Profile, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless:  playwright.Bool(cfg.Headless),
			Channel:   channel,
			UserAgent: userAgent,
			Viewport:  viewport,
			Proxy:     proxy,
		})
	} else {
		d.browser, err = bt.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Headless),
			Channel:  channel,
			Proxy:    proxy,
		})
		if err == nil {
			d.bctx, err = d.browser.NewContext(playwright.BrowserNewContextOptions{
				UserAgent: userAgent,
				Viewport:  viewport,
			})
		}
	}
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("could not launch %s: %w", cfg.Type, err)
	}

	if cfg.CookiesPath != "" {
		cookies, err := LoadCookies(cfg.CookiesPath)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("could not load cookies: %w", err)
		}
		if err := d.bctx.AddCookies(cookies); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
		log.Info("🍪 Loaded session cookies", zap.Int("count", len(cookies)))
	}

	var page playwright.Page
	if existing := d.bctx.Pages(); len(existing) > 0 {
		page = existing[0]
	} else if page, err = d.bctx.NewPage(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	d.current = d.track(page)

	return d, nil
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, *string) {
	switch strings.ToLower(name) {
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	case "chrome":
		return pw.Chromium, playwright.String("chrome")
	default:
		return pw.Chromium, nil
	}
}

func (d *Playwright) track(p playwright.Page) Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.next
	d.next++
	d.pages[w] = p
	d.order = append(d.order, w)
	return w
}

func (d *Playwright) page() playwright.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pages[d.current]
}

func (d *Playwright) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.page().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Playwright) URL() string {
	return d.page().URL()
}

func (d *Playwright) Document() (*goquery.Document, error) {
	html, err := d.page().Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (d *Playwright) Present(selector string) (bool, error) {
	n, err := d.page().Locator(selector).Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Playwright) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return WaitPresent(ctx, d, selector, timeout)
}

// first returns the first match of selector, or ErrNoElement.
func (d *Playwright) first(selector string) (playwright.Locator, error) {
	loc := d.page().Locator(selector).First()
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return loc, nil
}

func (d *Playwright) Text(selector string) (string, bool, error) {
	loc := d.page().Locator(selector).First()
	if n, err := loc.Count(); err != nil || n == 0 {
		return "", false, err
	}
	txt, err := loc.InnerText()
	if err != nil {
		return "", false, err
	}
	return txt, true, nil
}

func (d *Playwright) Attr(selector, name string) (string, bool, error) {
	loc := d.page().Locator(selector).First()
	if n, err := loc.Count(); err != nil || n == 0 {
		return "", false, err
	}
	v, err := loc.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (d *Playwright) Click(selector string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.Click()
}

func (d *Playwright) Check(selector string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.Check(playwright.LocatorCheckOptions{Force: playwright.Bool(true)})
}

func (d *Playwright) Type(selector, text string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.Fill(text)
}

func (d *Playwright) Select(selector, label string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	_, err = loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{label}})
	return err
}

func (d *Playwright) Clear(selector string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.Clear()
}

func (d *Playwright) Press(selector, key string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.Press(key)
}

func (d *Playwright) SetFiles(selector string, paths ...string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.SetInputFiles(paths)
}

func (d *Playwright) ScrollIntoView(selector string) error {
	loc, err := d.first(selector)
	if err != nil {
		return err
	}
	return loc.ScrollIntoViewIfNeeded()
}

func (d *Playwright) Eval(script string) (any, error) {
	return d.page().Evaluate(script)
}

func (d *Playwright) OpenWindow(ctx context.Context, url string) (Window, error) {
	page, err := d.bctx.NewPage()
	if err != nil {
		return 0, fmt.Errorf("open window: %w", err)
	}
	w := d.track(page)
	if err := d.SwitchTo(w); err != nil {
		return w, err
	}
	return w, d.Navigate(ctx, url)
}

func (d *Playwright) ClickForWindow(ctx context.Context, selector string, timeout time.Duration) (Window, error) {
	loc, err := d.first(selector)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	popup, err := d.bctx.ExpectPage(func() error {
		return loc.Click()
	}, playwright.BrowserContextExpectPageOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: window from %s: %v", ErrTimeout, selector, err)
	}
	_ = popup.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	})
	w := d.track(popup)
	return w, d.SwitchTo(w)
}

func (d *Playwright) SwitchTo(w Window) error {
	d.mu.Lock()
	p, ok := d.pages[w]
	if ok {
		d.current = w
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoWindow, w)
	}
	return p.BringToFront()
}

func (d *Playwright) CloseWindow(w Window) error {
	d.mu.Lock()
	p, ok := d.pages[w]
	if ok {
		delete(d.pages, w)
		for i, o := range d.order {
			if o == w {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoWindow, w)
	}
	return p.Close()
}

func (d *Playwright) Current() Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Playwright) Windows() []Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Window, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Playwright) Screenshot(path string) error {
	_, err := d.page().Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (d *Playwright) Close() error {
	if d.bctx != nil {
		if err := d.bctx.Close(); err != nil {
			d.log.Warn("⚠️ Failed to close browser context", zap.Error(err))
		}
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			d.log.Warn("⚠️ Failed to close browser", zap.Error(err))
		}
	}
	if d.pw != nil {
		return d.pw.Stop()
	}
	return nil
}
