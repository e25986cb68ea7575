package board

import (
	"io"

	slib "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// DefaultBaudRate is the rate the enclosure's boards are flashed to use.
const DefaultBaudRate = 9600

type serialConn struct {
	port io.ReadWriteCloser
}

// Open opens a serial connection to a board.
func Open(devicePath string, baudRate uint) (Conn, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	options := slib.OpenOptions{
		PortName: devicePath,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		// Return immediately once the line goes quiet so FlushInput can
		// drain without blocking on an idle board.
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
	port, err := slib.Open(options)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open serial port %q", devicePath)
	}
	return &serialConn{port: port}, nil
}

func (c *serialConn) Read(p []byte) (int, error) {
	return c.port.Read(p)
}

func (c *serialConn) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// FlushInput reads and discards whatever the board has already sent.
func (c *serialConn) FlushInput() error {
	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if n == 0 || err != nil {
			return nil
		}
	}
}

func (c *serialConn) Close() error {
	return c.port.Close()
}
