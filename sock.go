package ftp

import "io"

// Socket is the byte-stream contract the client core depends on. The
// control channel and every data channel are driven exclusively through
// this interface, which keeps the command state machines independent of
// any particular transport implementation.
//
// The production implementation over TCP lives in internal/netio.
type Socket interface {
	// Connect establishes a connection to host:port. The port may be a
	// decimal number or a service name such as "ftp".
	Connect(host, port string) error

	// IsOpen reports whether the socket is currently connected.
	IsOpen() bool

	// Close shuts the connection down. Closing a socket that was never
	// opened is an error.
	Close() error

	// SendString writes s to the connection and returns the number of
	// bytes written. A short write is indicated by a count less than
	// len(s).
	SendString(s string) (int, error)

	// ReadUntil reads up to and including the first occurrence of delim
	// and returns the data with the delimiter stripped. No bytes past
	// the delimiter are consumed.
	ReadUntil(delim string) (string, error)

	// SendFile streams the named local file onto the connection in
	// fixed-size chunks.
	SendFile(path string) error

	// SendStream streams everything from r onto the connection in
	// fixed-size chunks.
	SendStream(r io.Reader) error

	// RetrieveFile creates the named local file, which must not already
	// exist, and fills it with bytes read from the connection until the
	// peer closes it. Peer EOF is the success termination.
	RetrieveFile(path string) error

	// RetrieveTo reads bytes from the connection until the peer closes
	// it, writing everything to w.
	RetrieveTo(w io.Writer) error
}
