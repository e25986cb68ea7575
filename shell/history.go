package shell

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
)

// historyCap bounds the on-disk command history.
const historyCap = 1000

// DefaultHistoryPath returns the per-user history file location.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".enclosure_history")
	}
	return filepath.Join(home, ".enclosure_history")
}

type history struct {
	path   string
	lines  []string
	logger golog.Logger
}

func newHistory(path string, logger golog.Logger) *history {
	return &history{path: path, logger: logger}
}

func (h *history) load() {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if line != "" {
			h.lines = append(h.lines, line)
		}
	}
	h.truncate()
}

func (h *history) append(line string) {
	h.lines = append(h.lines, line)
	h.truncate()
}

func (h *history) truncate() {
	if len(h.lines) > historyCap {
		h.lines = h.lines[len(h.lines)-historyCap:]
	}
}

func (h *history) save() {
	if h.path == "" {
		return
	}
	contents := strings.Join(h.lines, "\n") + "\n"
	if err := os.WriteFile(h.path, []byte(contents), 0o644); err != nil {
		h.logger.Warnw("cannot save command history", "path", h.path, "error", err)
	}
}
