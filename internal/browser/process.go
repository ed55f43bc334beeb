package browser

import (
	"os"
	"strings"

	ps "github.com/mitchellh/go-ps"
	"go.uber.org/zap"
)

// DefaultStaleNames are executables left behind by a crashed run holding the
// profile directory lock.
var DefaultStaleNames = []string{"chrome", "chromium", "headless_shell", "firefox"}

// KillStale terminates leftover browser processes whose executable name
// contains one of names. The current process is never touched. It returns the
// number of processes signalled.
func KillStale(names []string, log *zap.Logger) (int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return 0, err
	}

	self := os.Getpid()
	killed := 0
	for _, p := range procs {
		if p.Pid() == self || !matchesAny(p.Executable(), names) {
			continue
		}
		proc, err := os.FindProcess(p.Pid())
		if err != nil {
			continue
		}
		if err := proc.Kill(); err != nil {
			log.Debug("could not kill stale browser", zap.Int("pid", p.Pid()), zap.Error(err))
			continue
		}
		log.Info("🧹 Killed stale browser", zap.Int("pid", p.Pid()), zap.String("exe", p.Executable()))
		killed++
	}
	return killed, nil
}

func matchesAny(exe string, names []string) bool {
	exe = strings.ToLower(exe)
	for _, n := range names {
		if n != "" && strings.Contains(exe, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
