package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrSessionLocked means another run already owns the browser session.
var ErrSessionLocked = errors.New("another easyapply run holds the session lock")

// LockSession takes an exclusive, non-blocking lock on path. The returned
// release func must be called when the run ends.
func LockSession(path string) (release func() error, err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock dir: %w", err)
		}
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionLocked, path)
	}
	return fl.Unlock, nil
}
