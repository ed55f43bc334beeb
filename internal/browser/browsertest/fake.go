// Package browsertest provides an in-memory browser.Driver for tests. Pages
// are HTML strings; selectors are evaluated with goquery so the same CSS the
// real driver uses works here.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-easyapply-automation/internal/browser"
)

type window struct {
	url  string
	html string
}

// Fake is a scripted browser. Clicks have no effect unless an action was
// registered with OnClick or Popup.
type Fake struct {
	mu sync.Mutex

	routes  map[string]string
	windows map[browser.Window]*window
	order   []browser.Window
	current browser.Window
	next    browser.Window

	actions map[string]func(f *Fake) error
	popups  map[string]string
	fail    map[string]error

	clicks      []string
	typed       map[string]string
	selected    map[string]string
	checked     []string
	files       map[string][]string
	screenshots []string
	closed      bool
}

var _ browser.Driver = (*Fake)(nil)

// New returns a fake with one blank window.
func New() *Fake {
	f := &Fake{
		routes:   make(map[string]string),
		windows:  make(map[browser.Window]*window),
		actions:  make(map[string]func(*Fake) error),
		popups:   make(map[string]string),
		fail:     make(map[string]error),
		typed:    make(map[string]string),
		selected: make(map[string]string),
		files:    make(map[string][]string),
	}
	f.current = f.open("about:blank", "")
	return f
}

// Route serves html for url.
func (f *Fake) Route(url, html string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[url] = html
	return f
}

// SetHTML replaces the markup of the current window.
func (f *Fake) SetHTML(html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[f.current].html = html
}

// OnClick runs fn after selector is clicked.
func (f *Fake) OnClick(selector string, fn func(f *Fake) error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions[selector] = fn
	return f
}

// Popup makes ClickForWindow on selector open url in a new window.
func (f *Fake) Popup(selector, url string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popups[selector] = url
	return f
}

// PopupFrom is Popup restricted to clicks made while pageURL is loaded.
func (f *Fake) PopupFrom(pageURL, selector, url string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popups[pageURL+" "+selector] = url
	return f
}

// FailOn makes every action on selector return err.
func (f *Fake) FailOn(selector string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[selector] = err
	return f
}

// Then is an OnClick helper that swaps the current window markup.
func Then(html string) func(*Fake) error {
	return func(f *Fake) error {
		f.SetHTML(html)
		return nil
	}
}

func (f *Fake) open(url, html string) browser.Window {
	w := f.next
	f.next++
	f.windows[w] = &window{url: url, html: html}
	f.order = append(f.order, w)
	return w
}

func (f *Fake) doc() (*goquery.Document, error) {
	f.mu.Lock()
	html := f.windows[f.current].html
	f.mu.Unlock()
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *Fake) find(selector string) (*goquery.Selection, error) {
	doc, err := f.doc()
	if err != nil {
		return nil, err
	}
	return doc.Find(selector), nil
}

// act checks the selector matches and is not scripted to fail.
func (f *Fake) act(selector string) error {
	f.mu.Lock()
	err := f.fail[selector]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	sel, err := f.find(selector)
	if err != nil {
		return err
	}
	if sel.Length() == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNoElement, selector)
	}
	return nil
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.routes[url]
	if !ok {
		return fmt.Errorf("browsertest: no route for %s", url)
	}
	f.windows[f.current].url = url
	f.windows[f.current].html = html
	return nil
}

func (f *Fake) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[f.current].url
}

func (f *Fake) Document() (*goquery.Document, error) { return f.doc() }

func (f *Fake) Present(selector string) (bool, error) {
	sel, err := f.find(selector)
	if err != nil {
		return false, err
	}
	return sel.Length() > 0, nil
}

func (f *Fake) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return browser.WaitPresent(ctx, f, selector, timeout)
}

func (f *Fake) Text(selector string) (string, bool, error) {
	sel, err := f.find(selector)
	if err != nil || sel.Length() == 0 {
		return "", false, err
	}
	return strings.TrimSpace(sel.First().Text()), true, nil
}

func (f *Fake) Attr(selector, name string) (string, bool, error) {
	if name == "value" {
		f.mu.Lock()
		v, ok := f.typed[selector]
		f.mu.Unlock()
		if ok {
			return v, v != "", nil
		}
	}
	sel, err := f.find(selector)
	if err != nil || sel.Length() == 0 {
		return "", false, err
	}
	v, ok := sel.First().Attr(name)
	return v, ok && v != "", nil
}

func (f *Fake) Click(selector string) error {
	if err := f.act(selector); err != nil {
		return err
	}
	f.mu.Lock()
	f.clicks = append(f.clicks, selector)
	fn := f.actions[selector]
	f.mu.Unlock()
	if fn != nil {
		return fn(f)
	}
	return nil
}

func (f *Fake) Check(selector string) error {
	if err := f.act(selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, selector)
	return nil
}

func (f *Fake) Type(selector, text string) error {
	if err := f.act(selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] += text
	return nil
}

func (f *Fake) Select(selector, label string) error {
	if err := f.act(selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected[selector] = label
	return nil
}

func (f *Fake) Clear(selector string) error {
	if err := f.act(selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] = ""
	return nil
}

func (f *Fake) Press(selector, key string) error { return f.act(selector) }

func (f *Fake) SetFiles(selector string, paths ...string) error {
	if err := f.act(selector); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[selector] = append([]string(nil), paths...)
	return nil
}

func (f *Fake) ScrollIntoView(selector string) error { return f.act(selector) }

func (f *Fake) Eval(string) (any, error) { return nil, nil }

func (f *Fake) OpenWindow(ctx context.Context, url string) (browser.Window, error) {
	f.mu.Lock()
	w := f.open("about:blank", "")
	f.current = w
	f.mu.Unlock()
	return w, f.Navigate(ctx, url)
}

func (f *Fake) ClickForWindow(ctx context.Context, selector string, timeout time.Duration) (browser.Window, error) {
	if err := f.act(selector); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.clicks = append(f.clicks, selector)
	url, ok := f.popups[f.windows[f.current].url+" "+selector]
	if !ok {
		url, ok = f.popups[selector]
	}
	f.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: window from %s", browser.ErrTimeout, selector)
	}
	return f.OpenWindow(ctx, url)
}

func (f *Fake) SwitchTo(w browser.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[w]; !ok {
		return fmt.Errorf("%w: %d", browser.ErrNoWindow, w)
	}
	f.current = w
	return nil
}

func (f *Fake) CloseWindow(w browser.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[w]; !ok {
		return fmt.Errorf("%w: %d", browser.ErrNoWindow, w)
	}
	delete(f.windows, w)
	for i, o := range f.order {
		if o == w {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *Fake) Current() browser.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Windows() []browser.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]browser.Window(nil), f.order...)
}

func (f *Fake) Screenshot(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, path)
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Clicks returns every clicked selector in order.
func (f *Fake) Clicks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clicks...)
}

// Typed returns the text typed into selector.
func (f *Fake) Typed(selector string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typed[selector]
}

func (f *Fake) Selected(selector string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected[selector]
}

func (f *Fake) Checked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.checked...)
}

func (f *Fake) Files(selector string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[selector]
}

func (f *Fake) Screenshots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.screenshots...)
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
