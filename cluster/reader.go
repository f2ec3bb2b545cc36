package cluster

import (
	"net"
	"time"
)

// lineReader splits the byte stream into lines while tolerating short
// read deadlines: bytes that arrive before a timeout stay buffered so a
// line split across polls is never lost. A bufio.Reader would discard the
// partial line it returns alongside a deadline error, which is why this
// keeps its own buffer.
type lineReader struct {
	conn    net.Conn
	buf     []byte
	maxLine int
	chunk   [1024]byte
}

func newLineReader(conn net.Conn, maxLine int) *lineReader {
	if maxLine <= 0 {
		maxLine = 4096
	}
	return &lineReader{conn: conn, maxLine: maxLine}
}

// ReadLine returns the next complete line (without its terminator) or an
// error. A deadline expiry surfaces as a net.Error with Timeout() true;
// buffered bytes survive it. io.EOF means the peer closed the stream.
func (r *lineReader) ReadLine(deadline time.Time) (string, error) {
	for {
		if line, ok := r.takeLine(); ok {
			return line, nil
		}
		if len(r.buf) > r.maxLine {
			// Discard pathological input rather than growing without bound.
			r.buf = r.buf[:0]
		}
		if err := r.conn.SetReadDeadline(deadline); err != nil {
			return "", err
		}
		n, err := r.conn.Read(r.chunk[:])
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
		}
		if err != nil {
			// Deliver a completed line before reporting the error.
			if line, ok := r.takeLine(); ok {
				return line, nil
			}
			return "", err
		}
	}
}

// takeLine pops one terminated line off the buffer.
func (r *lineReader) takeLine() (string, bool) {
	for i, b := range r.buf {
		if b != '\n' {
			continue
		}
		line := r.buf[:i]
		// Trim a trailing CR from CRLF terminators.
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		out := string(line)
		r.buf = append(r.buf[:0], r.buf[i+1:]...)
		return out, true
	}
	return "", false
}
