package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PollInterval is how often Poll re-checks its condition.
var PollInterval = 250 * time.Millisecond

// Poll calls check until it reports true, returns an error, ctx is done or
// timeout elapses (ErrTimeout). check always runs at least once.
func Poll(ctx context.Context, timeout time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		ok, err := check()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitPresent is the WaitFor implementation shared by every Driver.
func WaitPresent(ctx context.Context, d interface{ Present(string) (bool, error) }, selector string, timeout time.Duration) error {
	err := Poll(ctx, timeout, func() (bool, error) {
		return d.Present(selector)
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, selector, timeout)
	}
	return err
}
