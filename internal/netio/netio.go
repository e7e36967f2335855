// Package netio provides the TCP implementation of the byte-stream
// socket contract the FTP client core depends on.
package netio

import (
	"bytes"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
)

// chunkSize is the unit in which file and stream payloads are written
// to the wire.
const chunkSize = 1024

// TCPSocket is a byte-stream socket over TCP. The zero value is not
// usable; create one with NewTCPSocket.
type TCPSocket struct {
	dialer  *net.Dialer
	timeout time.Duration

	conn net.Conn
}

// NewTCPSocket creates an unconnected socket. dialer may be nil, in
// which case a default dialer is used. A non-zero timeout bounds every
// connect, read and write; zero leaves operations unbounded.
func NewTCPSocket(dialer *net.Dialer, timeout time.Duration) *TCPSocket {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &TCPSocket{
		dialer:  dialer,
		timeout: timeout,
	}
}

// Connect establishes a connection to host:port. The port may be a
// decimal number or a service name such as "ftp".
func (s *TCPSocket) Connect(host, port string) error {
	if s.conn != nil {
		return errors.New("socket already connected")
	}

	d := *s.dialer
	d.Timeout = s.timeout

	conn, err := d.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return errors.Wrapf(err, "dial %s", net.JoinHostPort(host, port))
	}

	if s.timeout > 0 {
		conn = &deadlineConn{Conn: conn, timeout: s.timeout}
	}
	s.conn = conn
	return nil
}

// IsOpen reports whether the socket is currently connected.
func (s *TCPSocket) IsOpen() bool {
	return s.conn != nil
}

// Close shuts the connection down. Closing a socket that was never
// opened, or closing twice, is an error.
func (s *TCPSocket) Close() error {
	if s.conn == nil {
		return errors.New("socket not open")
	}
	err := s.conn.Close()
	s.conn = nil
	return errors.Wrap(err, "close")
}

// SendString writes s to the connection, returning the number of bytes
// written. A short write is indicated by a count less than len(str).
func (s *TCPSocket) SendString(str string) (int, error) {
	if s.conn == nil {
		return 0, errors.New("socket not open")
	}
	n, err := io.WriteString(s.conn, str)
	return n, errors.Wrap(err, "write")
}

// ReadUntil reads up to and including the first occurrence of delim and
// returns the data with the delimiter stripped. No bytes past the
// delimiter are consumed, so a following reply stays intact for the
// next read. The connection closing before the delimiter arrives is an
// error.
func (s *TCPSocket) ReadUntil(delim string) (string, error) {
	if s.conn == nil {
		return "", errors.New("socket not open")
	}
	if delim == "" {
		return "", errors.New("empty delimiter")
	}

	var (
		buf []byte
		one [1]byte
		d   = []byte(delim)
	)
	for {
		n, err := s.conn.Read(one[:])
		if n == 1 {
			buf = append(buf, one[0])
			if bytes.HasSuffix(buf, d) {
				return string(buf[:len(buf)-len(d)]), nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return "", errors.New("connection closed before delimiter")
			}
			return "", errors.Wrap(err, "read")
		}
	}
}

// SendFile streams the named local file onto the connection in
// fixed-size chunks.
func (s *TCPSocket) SendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	return s.SendStream(f)
}

// SendStream streams everything from r onto the connection in
// fixed-size chunks. A short write to the connection is an error.
func (s *TCPSocket) SendStream(r io.Reader) error {
	if s.conn == nil {
		return errors.New("socket not open")
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			written, werr := s.conn.Write(buf[:n])
			if werr != nil {
				return errors.Wrap(werr, "write")
			}
			if written < n {
				return errors.Errorf("short write: %d of %d bytes", written, n)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read source")
		}
	}
}

// RetrieveFile creates the named local file, which must not already
// exist, and fills it with bytes read from the connection until the
// peer closes it.
func (s *TCPSocket) RetrieveFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	return s.RetrieveTo(f)
}

// RetrieveTo reads bytes from the connection until the peer closes it,
// writing everything to w. Peer EOF is the success termination; any
// other read or write error fails the retrieval.
func (s *TCPSocket) RetrieveTo(w io.Writer) error {
	if s.conn == nil {
		return errors.New("socket not open")
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return errors.Wrap(werr, "write sink")
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read")
		}
	}
}
