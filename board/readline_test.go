package board

import (
	"io"
	"testing"

	"go.viam.com/test"
)

type scriptConn struct {
	data []byte
	pos  int
}

func (c *scriptConn) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, nil
	}
	n := copy(p, c.data[c.pos:])
	c.pos += n
	return n, nil
}

func (c *scriptConn) Write(p []byte) (int, error) { return len(p), nil }

func (c *scriptConn) FlushInput() error { return nil }

func (c *scriptConn) Close() error { return nil }

func TestReadLine(t *testing.T) {
	conn := &scriptConn{data: []byte("\r\n{\"temp_c\": 22.1}\r\nnext")}
	line, err := ReadLine(conn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldEqual, `{"temp_c": 22.1}`)
}

func TestReadLineQuietBoard(t *testing.T) {
	conn := &scriptConn{}
	_, err := ReadLine(conn)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "timed out")
}

type errConn struct{ scriptConn }

func (c *errConn) Read(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReadLineError(t *testing.T) {
	_, err := ReadLine(&errConn{})
	test.That(t, err, test.ShouldNotBeNil)
}
