package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ScreenshotDebugger saves full-page screenshots of failed attempts.
type ScreenshotDebugger struct {
	outputDir string
	log       *zap.Logger
}

func NewScreenshotDebugger(dir string, log *zap.Logger) (*ScreenshotDebugger, error) {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &ScreenshotDebugger{outputDir: dir, log: log}, nil
}

// CaptureAndLog screenshots the current window as <name>_<timestamp>.png and
// returns the file path.
func (s *ScreenshotDebugger) CaptureAndLog(d browser.Driver, name, message string) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.png", sanitize(name), timestamp)
	path := filepath.Join(s.outputDir, filename)
	s.log.Info("📸 "+message, zap.String("path", path))

	if err := d.Screenshot(path); err != nil {
		s.log.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return "", err
	}
	return path, nil
}

func sanitize(name string) string {
	name = strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-")
	if name == "" {
		return "page"
	}
	if len(name) > 60 {
		name = name[:60]
	}
	return name
}
