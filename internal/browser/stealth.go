package browser

import (
	"context"
	"math/rand"
	"time"
)

// RandomDelay waits for a random duration between min and max milliseconds,
// or until ctx is done.
func RandomDelay(ctx context.Context, min, max int) error {
	d := time.Duration(min) * time.Millisecond
	if max > min {
		d = time.Duration(rand.Intn(max-min+1)+min) * time.Millisecond
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HumanScroll scrolls down in a few uneven steps and back up a little,
// which also triggers lazy-loaded result cards.
func HumanScroll(ctx context.Context, d Driver) error {
	for i := 0; i < 4; i++ {
		if _, err := d.Eval("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 300, 900); err != nil {
			return err
		}
	}
	_, err := d.Eval("window.scrollBy(0, -200)")
	return err
}
