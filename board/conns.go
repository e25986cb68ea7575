// Package board speaks the relay-command protocol of the enclosure's serial
// boards and tracks which boards are currently connected.
package board

import (
	"io"
	"sort"
	"sync"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
)

// Name identifies one of the serial boards in the enclosure.
type Name string

// The boards the enclosure may have connected.
const (
	Telemetry = Name("telemetry_board")
	Camera    = Name("camera_board")
	Power     = Name("power_board")
	Weather   = Name("weather")
)

// A Conn is an open serial connection to a board.
type Conn interface {
	io.Reader
	// FlushInput discards any input the board has sent since the last read.
	FlushInput() error
	Write(p []byte) (int, error)
	Close() error
}

// Conns is the registry of currently open board connections. Physical
// hardware availability can change during a session, so callers that depend
// on what is connected must query this on every call rather than caching.
type Conns struct {
	mu     sync.Mutex
	conns  map[Name]Conn
	logger golog.Logger
}

// NewConns returns an empty connection registry.
func NewConns(logger golog.Logger) *Conns {
	return &Conns{conns: map[Name]Conn{}, logger: logger}
}

// Add registers an open connection, closing any previous connection held
// under the same name.
func (c *Conns) Add(name Name, conn Conn) {
	c.mu.Lock()
	old, had := c.conns[name]
	c.conns[name] = conn
	c.mu.Unlock()
	if had {
		if err := old.Close(); err != nil {
			c.logger.Warnw("error closing replaced connection", "board", name, "error", err)
		}
	}
}

// Remove closes and deregisters the named connection if present.
func (c *Conns) Remove(name Name) {
	c.mu.Lock()
	conn, ok := c.conns[name]
	delete(c.conns, name)
	c.mu.Unlock()
	if ok {
		if err := conn.Close(); err != nil {
			c.logger.Warnw("error closing connection", "board", name, "error", err)
		}
	}
}

// Get returns the open connection for a board, if any.
func (c *Conns) Get(name Name) (Conn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.conns[name]
	return conn, ok
}

// Connected reports whether a connection for the board is currently open.
func (c *Conns) Connected(name Name) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the names of all open connections in sorted order.
func (c *Conns) Names() []Name {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]Name, 0, len(c.conns))
	for n := range c.conns {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Close closes every open connection.
func (c *Conns) Close() error {
	c.mu.Lock()
	conns := c.conns
	c.conns = map[Name]Conn{}
	c.mu.Unlock()
	var err error
	for name, conn := range conns {
		if cerr := conn.Close(); cerr != nil {
			err = multierr.Combine(err, cerr)
			c.logger.Warnw("error closing connection", "board", name, "error", cerr)
		}
	}
	return err
}
