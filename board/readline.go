package board

import (
	"github.com/pkg/errors"
)

const maxLineLen = 4096

// A quiet serial line returns this many empty reads before we give up on a
// board that has stopped reporting.
const maxQuietReads = 50

// ReadLine reads the next CR/LF terminated line from the connection. Empty
// lines are skipped.
func ReadLine(conn Conn) (string, error) {
	buf := make([]byte, 0, 256)
	chunk := make([]byte, 64)
	quietReads := 0
	for {
		n, err := conn.Read(chunk)
		if err != nil {
			return "", errors.Wrap(err, "reading line")
		}
		if n == 0 {
			quietReads++
			if quietReads >= maxQuietReads {
				return "", errors.New("timed out waiting for the board to report")
			}
			continue
		}
		quietReads = 0
		for _, c := range chunk[:n] {
			if c == '\n' || c == '\r' {
				if len(buf) == 0 {
					continue
				}
				return string(buf), nil
			}
			buf = append(buf, c)
			if len(buf) > maxLineLen {
				return "", errors.New("board report line too long")
			}
		}
	}
}
