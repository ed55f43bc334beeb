package utils

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser/browsertest"
)

func TestCaptureAndLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s, err := NewScreenshotDebugger(dir, zap.NewNop())
	require.NoError(t, err)

	f := browsertest.New()
	path, err := s.CaptureAndLog(f, "indeed apply/Acme Corp", "apply failed")
	require.NoError(t, err)

	assert.Equal(t, []string{path}, f.Screenshots())
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "indeed-apply-Acme-Corp_"))
	assert.True(t, strings.HasSuffix(path, ".png"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "page", sanitize("///"))
	assert.Equal(t, "a-b", sanitize("a b"))
	assert.Len(t, sanitize(strings.Repeat("x", 100)), 60)
}
