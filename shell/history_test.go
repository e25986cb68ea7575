package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func TestHistoryRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "history")

	h := newHistory(path, logger)
	h.load()
	h.append("status")
	h.append("enable_sensor environment")
	h.save()

	h2 := newHistory(path, logger)
	h2.load()
	test.That(t, h2.lines, test.ShouldResemble, []string{"status", "enable_sensor environment"})
}

func TestHistoryCap(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "history")

	h := newHistory(path, logger)
	for i := 0; i < historyCap+150; i++ {
		h.append(fmt.Sprintf("status %d", i))
	}
	test.That(t, h.lines, test.ShouldHaveLength, historyCap)
	test.That(t, h.lines[0], test.ShouldEqual, "status 150")
	h.save()

	raw, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	test.That(t, lines, test.ShouldHaveLength, historyCap)
}

func TestHistoryLoadTruncates(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "history")

	var sb strings.Builder
	for i := 0; i < historyCap+10; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	test.That(t, os.WriteFile(path, []byte(sb.String()), 0o644), test.ShouldBeNil)

	h := newHistory(path, logger)
	h.load()
	test.That(t, h.lines, test.ShouldHaveLength, historyCap)
	test.That(t, h.lines[0], test.ShouldEqual, "line 10")
}
