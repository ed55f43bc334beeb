package browser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "easyapply.lock")

	release, err := LockSession(path)
	require.NoError(t, err)

	_, err = LockSession(path)
	assert.ErrorIs(t, err, ErrSessionLocked)

	require.NoError(t, release())

	release, err = LockSession(path)
	require.NoError(t, err)
	assert.NoError(t, release())
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("Google Chrome Helper", []string{"chrome"}))
	assert.True(t, matchesAny("headless_shell", DefaultStaleNames))
	assert.False(t, matchesAny("go", DefaultStaleNames))
	assert.False(t, matchesAny("anything", []string{""}))
}
