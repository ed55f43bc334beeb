// Package browser is the page driver the campaigns talk to: an interface small
// enough to fake in tests, and a playwright-backed implementation.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrTimeout means an element did not show up before the deadline.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrNoElement is returned by actions (click, type...) on a selector that
	// matches nothing. Presence checks never return it.
	ErrNoElement = errors.New("no element matches selector")
	ErrNoWindow  = errors.New("no such window")
)

// Window identifies a tab/window owned by the driver.
type Window int

// Driver is the contract between the campaign logic and a real browser.
// Selectors are CSS. Absence is reported through bool results, errors are
// kept for things that actually went wrong.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	URL() string
	// Document parses the current page markup.
	Document() (*goquery.Document, error)

	Present(selector string) (bool, error)
	// WaitFor polls until selector is present, ctx is done or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Text(selector string) (string, bool, error)
	Attr(selector, name string) (string, bool, error)

	Click(selector string) error
	// Check ticks a radio/checkbox even when a styled label hides it.
	Check(selector string) error
	Type(selector, text string) error
	Select(selector, label string) error
	Clear(selector string) error
	Press(selector, key string) error
	SetFiles(selector string, paths ...string) error
	ScrollIntoView(selector string) error
	Eval(script string) (any, error)

	// OpenWindow opens url in a new window and switches to it.
	OpenWindow(ctx context.Context, url string) (Window, error)
	// ClickForWindow clicks selector and waits for the window it opens,
	// then switches to it.
	ClickForWindow(ctx context.Context, selector string, timeout time.Duration) (Window, error)
	SwitchTo(w Window) error
	CloseWindow(w Window) error
	Current() Window
	Windows() []Window

	Screenshot(path string) error
	Close() error
}

// ScrollToBottom mirrors what a user does before hunting for a continue or
// next button that sits below the fold.
func ScrollToBottom(d Driver) error {
	_, err := d.Eval("window.scrollTo(0, document.body.scrollHeight - 150)")
	return err
}

// CloseOthers closes every window but keep and switches back to it. All
// windows are attempted; the first error is returned.
func CloseOthers(d Driver, keep Window) error {
	var first error
	for _, w := range d.Windows() {
		if w == keep {
			continue
		}
		if err := d.CloseWindow(w); err != nil && first == nil {
			first = err
		}
	}
	if err := d.SwitchTo(keep); err != nil && first == nil {
		first = err
	}
	return first
}

// WaitAndClick waits for selector and clicks it.
func WaitAndClick(ctx context.Context, d Driver, selector string, timeout time.Duration) error {
	if err := d.WaitFor(ctx, selector, timeout); err != nil {
		return err
	}
	return d.Click(selector)
}
