package board

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

type fakeConn struct {
	writes  []string
	flushes int
}

func (c *fakeConn) Read(p []byte) (int, error) { return 0, nil }

func (c *fakeConn) Write(p []byte) (int, error) {
	c.writes = append(c.writes, string(p))
	return len(p), nil
}

func (c *fakeConn) FlushInput() error {
	c.flushes++
	return nil
}

func (c *fakeConn) Close() error { return nil }

func TestResolve(t *testing.T) {
	m, err := Resolve("mount", TopologyPower)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Pin, test.ShouldEqual, 0)
	test.That(t, m.Board, test.ShouldEqual, Power)

	m, err = Resolve("mount", TopologyTelemetryCamera)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Pin, test.ShouldEqual, 4)
	test.That(t, m.Board, test.ShouldEqual, Telemetry)

	m, err = Resolve("camera_box", TopologyTelemetryCamera)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Board, test.ShouldEqual, Camera)

	_, err = Resolve("nonexistent", TopologyPower)
	var unknown *UnknownRelayError
	test.That(t, errors.As(err, &unknown), test.ShouldBeTrue)
	test.That(t, unknown.Relay, test.ShouldEqual, "nonexistent")

	_, err = Resolve("nonexistent", TopologyTelemetryCamera)
	test.That(t, errors.As(err, &unknown), test.ShouldBeTrue)
}

func TestTopologySelection(t *testing.T) {
	logger := golog.NewTestLogger(t)
	conns := NewConns(logger)
	relays := NewRelays(conns, logger)

	test.That(t, relays.Topology(), test.ShouldEqual, TopologyTelemetryCamera)

	// Topology must follow connectivity changes between calls, never a
	// cached answer.
	conns.Add(Power, &fakeConn{})
	test.That(t, relays.Topology(), test.ShouldEqual, TopologyPower)
	conns.Remove(Power)
	test.That(t, relays.Topology(), test.ShouldEqual, TopologyTelemetryCamera)
}

func TestToggleFrames(t *testing.T) {
	logger := golog.NewTestLogger(t)
	conns := NewConns(logger)
	relays := NewRelays(conns, logger)

	telemetry := &fakeConn{}
	conns.Add(Telemetry, telemetry)

	test.That(t, relays.Toggle("mount"), test.ShouldBeNil)
	test.That(t, telemetry.writes, test.ShouldResemble, []string{"4,9"})
	test.That(t, telemetry.flushes, test.ShouldEqual, 1)

	test.That(t, relays.ToggleComputer(), test.ShouldBeNil)
	test.That(t, telemetry.writes, test.ShouldResemble, []string{"4,9", "8,0"})

	// Connecting the power board switches every subsequent command to the
	// power table.
	power := &fakeConn{}
	conns.Add(Power, power)
	test.That(t, relays.Toggle("mount"), test.ShouldBeNil)
	test.That(t, power.writes, test.ShouldResemble, []string{"0,9"})
	test.That(t, relays.Toggle("weather"), test.ShouldBeNil)
	test.That(t, power.writes, test.ShouldResemble, []string{"0,9", "3,9"})
}

func TestToggleComputerBoard(t *testing.T) {
	logger := golog.NewTestLogger(t)
	conns := NewConns(logger)
	relays := NewRelays(conns, logger)

	// The power board has no computer relay, so the command stays on the
	// telemetry board even under the power topology.
	power := &fakeConn{}
	conns.Add(Power, power)
	err := relays.ToggleComputer()
	test.That(t, errors.Is(err, ErrRelayUnavailable), test.ShouldBeTrue)
	test.That(t, power.writes, test.ShouldHaveLength, 0)

	telemetry := &fakeConn{}
	conns.Add(Telemetry, telemetry)
	test.That(t, relays.ToggleComputer(), test.ShouldBeNil)
	test.That(t, telemetry.writes, test.ShouldResemble, []string{"8,0"})
	test.That(t, power.writes, test.ShouldHaveLength, 0)
}

func TestToggleUnavailable(t *testing.T) {
	logger := golog.NewTestLogger(t)
	conns := NewConns(logger)
	relays := NewRelays(conns, logger)

	// camera_box maps to the camera board, which is not connected.
	conns.Add(Telemetry, &fakeConn{})
	err := relays.Toggle("camera_box")
	test.That(t, errors.Is(err, ErrRelayUnavailable), test.ShouldBeTrue)

	conns.Remove(Telemetry)
	err = relays.Toggle("mount")
	test.That(t, errors.Is(err, ErrRelayUnavailable), test.ShouldBeTrue)
}

func TestConnsRegistry(t *testing.T) {
	logger := golog.NewTestLogger(t)
	conns := NewConns(logger)

	test.That(t, conns.Connected(Telemetry), test.ShouldBeFalse)
	conns.Add(Telemetry, &fakeConn{})
	conns.Add(Weather, &fakeConn{})
	test.That(t, conns.Connected(Telemetry), test.ShouldBeTrue)
	test.That(t, conns.Names(), test.ShouldResemble, []Name{Telemetry, Weather})

	test.That(t, conns.Close(), test.ShouldBeNil)
	test.That(t, conns.Names(), test.ShouldHaveLength, 0)
}
