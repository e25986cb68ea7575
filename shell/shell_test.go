package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/openobs/enclosure/board"
	"github.com/openobs/enclosure/config"
	"github.com/openobs/enclosure/messaging"
	"github.com/openobs/enclosure/sensors"
	"github.com/openobs/enclosure/store"
)

type fakeConn struct {
	writes []string
}

func (c *fakeConn) Read(p []byte) (int, error) { return 0, nil }

func (c *fakeConn) FlushInput() error { return nil }

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Write(p []byte) (int, error) {
	c.writes = append(c.writes, string(p))
	return len(p), nil
}

func newTestShell(t *testing.T) (*Shell, *board.Conns, *bytes.Buffer) {
	t.Helper()
	logger := golog.NewTestLogger(t)
	conns := board.NewConns(logger)
	var out bytes.Buffer
	s, err := New(Params{
		Config:      &config.Config{Name: "test_obs"},
		Conns:       conns,
		Relays:      board.NewRelays(conns, logger),
		Store:       store.NewMemory(),
		Publisher:   messaging.Noop{},
		Logger:      logger,
		Out:         &out,
		Simulate:    true,
		HistoryPath: t.TempDir() + "/history",
	})
	test.That(t, err, test.ShouldBeNil)
	return s, conns, &out
}

func runScript(t *testing.T, s *Shell, script ...string) {
	t.Helper()
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	test.That(t, s.Run(context.Background(), in), test.ShouldBeNil)
}

func TestParamsValidate(t *testing.T) {
	_, err := New(Params{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "config")
}

func TestPollingFlow(t *testing.T) {
	s, _, out := newTestShell(t)
	runScript(t, s,
		"load_all",
		"enable_sensor environment 0.05",
		"start",
		"status",
		"last_reading environment",
		"stop",
		"exit",
	)
	text := out.String()
	test.That(t, text, test.ShouldContainSubstring, "environment sensor loaded (simulated)")
	test.That(t, text, test.ShouldContainSubstring, "environment enabled with delay 50ms")
	test.That(t, text, test.ShouldContainSubstring, "polling started")
	test.That(t, text, test.ShouldContainSubstring, "polling:   true")
	test.That(t, text, test.ShouldContainSubstring, "captures")
	test.That(t, text, test.ShouldContainSubstring, "polling stopped")
	test.That(t, text, test.ShouldContainSubstring, "bye")
}

func TestErrorsRenderedAsWarnings(t *testing.T) {
	s, _, out := newTestShell(t)
	runScript(t, s,
		"enable_sensor seismic",
		"change_delay environment 5",
		"change_delay weather nope",
		"toggle_relay mount",
		"last_reading weather",
		"stop",
		"bogus",
		"exit",
	)
	text := out.String()
	test.That(t, text, test.ShouldContainSubstring, `unknown sensor "seismic"`)
	test.That(t, text, test.ShouldContainSubstring, "not being polled")
	test.That(t, text, test.ShouldContainSubstring, "positive number")
	test.That(t, text, test.ShouldContainSubstring, "no open connection")
	test.That(t, text, test.ShouldContainSubstring, "no current reading")
	test.That(t, text, test.ShouldContainSubstring, "not running")
	test.That(t, text, test.ShouldContainSubstring, `unknown command "bogus"`)
	// Every failure above was rendered; the loop reached exit normally.
	test.That(t, text, test.ShouldContainSubstring, "bye")
}

func TestStartTwice(t *testing.T) {
	s, _, out := newTestShell(t)
	runScript(t, s,
		"load_environment",
		"enable_sensor environment 60",
		"start",
		"start",
		"exit",
	)
	test.That(t, out.String(), test.ShouldContainSubstring, "already running")
}

func TestExitStopsPolling(t *testing.T) {
	s, _, out := newTestShell(t)
	runScript(t, s,
		"load_environment",
		"enable_sensor environment 60",
		"start",
		"exit",
	)
	// Run returned, so shutdown stopped the scheduler and joined workers.
	test.That(t, s.sched.Running(), test.ShouldBeFalse)
	test.That(t, out.String(), test.ShouldContainSubstring, "bye")
}

func TestToggleRelayDispatch(t *testing.T) {
	s, conns, out := newTestShell(t)
	telem := &fakeConn{}
	conns.Add(board.Telemetry, telem)
	runScript(t, s,
		"toggle_relay mount",
		"toggle_computer",
		"exit",
	)
	test.That(t, out.String(), test.ShouldContainSubstring, "relay mount toggled")
	test.That(t, out.String(), test.ShouldContainSubstring, "computer power cycle sent")
	test.That(t, telem.writes, test.ShouldResemble, []string{"4,9", "8,0"})
}

func TestToggleDebugDispatch(t *testing.T) {
	s, _, out := newTestShell(t)
	runScript(t, s,
		"toggle_debug environment",
		"load_environment",
		"toggle_debug environment",
		"toggle_debug environment",
		"exit",
	)
	text := out.String()
	test.That(t, text, test.ShouldContainSubstring, `sensor "environment" is not loaded`)
	test.That(t, text, test.ShouldContainSubstring, "environment debug logging on")
	test.That(t, text, test.ShouldContainSubstring, "environment debug logging off")
}

func TestDisplayConfig(t *testing.T) {
	s, _, out := newTestShell(t)
	runScript(t, s, "display_config", "exit")
	test.That(t, out.String(), test.ShouldContainSubstring, "name: test_obs")
}

func TestRegistryVisibleThroughShell(t *testing.T) {
	s, _, _ := newTestShell(t)
	runScript(t, s,
		"enable_sensor weather",
		"exit",
	)
	test.That(t, s.Registry().IsActive(sensors.KindWeather), test.ShouldBeTrue)
}
