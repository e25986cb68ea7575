package board

import (
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// Relay command codes understood by the board firmware.
const (
	cmdToggle = 9
	// cmdPowerCycle turns a relay off, waits, and turns it back on. The
	// wait and power-on are performed by the board firmware, not by this
	// process.
	cmdPowerCycle = 0
)

// computerPin is where the control computer's relay sits on the telemetry
// board.
const computerPin = 8

// Topology selects which relay mapping table is in effect. The enclosure is
// wired either with the older telemetry/camera board pair or with the
// dedicated power board, never both.
type Topology int

// The two mutually exclusive board topologies.
const (
	TopologyTelemetryCamera Topology = iota
	TopologyPower
)

func (t Topology) String() string {
	if t == TopologyPower {
		return "power_board"
	}
	return "telemetry_camera"
}

// A RelayMapping locates a relay on a specific board. Pin is a physical pin
// number on the telemetry/camera boards and a logical relay index on the
// power board.
type RelayMapping struct {
	Relay string
	Pin   int
	Board Name
}

// The power board exposes four relays addressed by index.
var powerRelays = map[string]RelayMapping{
	"mount":   {Relay: "mount", Pin: 0, Board: Power},
	"cameras": {Relay: "cameras", Pin: 1, Board: Power},
	"fan":     {Relay: "fan", Pin: 2, Board: Power},
	"weather": {Relay: "weather", Pin: 3, Board: Power},
}

// The older wiring splits relays between the telemetry board (pins 4-8) and
// the camera box board (pins 5-6).
var telemetryCameraRelays = map[string]RelayMapping{
	"mount":      {Relay: "mount", Pin: 4, Board: Telemetry},
	"fan":        {Relay: "fan", Pin: 5, Board: Telemetry},
	"weather":    {Relay: "weather", Pin: 6, Board: Telemetry},
	"computer":   {Relay: "computer", Pin: computerPin, Board: Telemetry},
	"camera_box": {Relay: "camera_box", Pin: 5, Board: Camera},
	"camera_fan": {Relay: "camera_fan", Pin: 6, Board: Camera},
}

// Resolve looks a relay up in the table selected by the topology.
func Resolve(relay string, topology Topology) (RelayMapping, error) {
	table := telemetryCameraRelays
	if topology == TopologyPower {
		table = powerRelays
	}
	mapping, ok := table[relay]
	if !ok {
		return RelayMapping{}, &UnknownRelayError{Relay: relay, Topology: topology}
	}
	return mapping, nil
}

// ErrRelayUnavailable is returned when no connection is open for the board a
// relay maps to.
var ErrRelayUnavailable = errors.New("no open connection for the relay's board")

// UnknownRelayError is returned when a relay name is absent from the mapping
// table selected by the topology in effect.
type UnknownRelayError struct {
	Relay    string
	Topology Topology
}

func (e *UnknownRelayError) Error() string {
	return fmt.Sprintf("unknown relay %q in %s topology", e.Relay, e.Topology)
}

// Relays issues power-relay commands over whichever boards are currently
// connected.
type Relays struct {
	conns  *Conns
	logger golog.Logger
}

// NewRelays returns a relay controller backed by the connection registry.
func NewRelays(conns *Conns, logger golog.Logger) *Relays {
	return &Relays{conns: conns, logger: logger}
}

// Topology reports which mapping table is in effect right now. The power
// board wins whenever its serial reader is connected. Connectivity can
// change between calls, so this is evaluated fresh every time.
func (r *Relays) Topology() Topology {
	if r.conns.Connected(Power) {
		return TopologyPower
	}
	return TopologyTelemetryCamera
}

// Toggle flips the named relay by writing a single toggle frame to the
// relay's board. No acknowledgement is awaited.
func (r *Relays) Toggle(relay string) error {
	mapping, err := Resolve(relay, r.Topology())
	if err != nil {
		return err
	}
	r.logger.Debugw("toggling relay", "relay", relay, "pin", mapping.Pin, "board", mapping.Board)
	return r.send(mapping.Board, mapping.Pin, cmdToggle)
}

// ToggleComputer power cycles the control computer: off, wait, back on, with
// the wait and power-on phases handled by the board firmware. The computer's
// relay sits on the telemetry board under either topology; the power board
// only addresses indices 0-3.
func (r *Relays) ToggleComputer() error {
	r.logger.Infow("power cycling the computer", "board", Telemetry)
	return r.send(Telemetry, computerPin, cmdPowerCycle)
}

func (r *Relays) send(board Name, pin, command int) error {
	conn, ok := r.conns.Get(board)
	if !ok {
		return errors.Wrapf(ErrRelayUnavailable, "%s", board)
	}
	if err := conn.FlushInput(); err != nil {
		return errors.Wrapf(err, "flushing %s", board)
	}
	frame := fmt.Sprintf("%d,%d", pin, command)
	if _, err := conn.Write([]byte(frame)); err != nil {
		return errors.Wrapf(err, "writing %q to %s", frame, board)
	}
	return nil
}
