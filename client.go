package ftp

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/petrel-io/ftp/internal/netio"
)

// Client represents an FTP client session. It exclusively owns one
// control connection and creates a fresh data connection per transfer.
//
// A Client is strictly sequential: no command may be issued while
// another is in flight, and no background work runs on its behalf.
type Client struct {
	// ctrl is the control channel (nil until connected)
	ctrl Socket

	// newSocket creates sockets for the control and data channels
	newSocket func() Socket

	// dialer is used by the default socket factory
	dialer *net.Dialer

	// timeout applies a deadline to every socket operation; zero means
	// operations may block indefinitely
	timeout time.Duration

	// logger is used for debug logging
	logger *slog.Logger

	// parsers is the ordered list of directory listing parsers
	parsers []ListingParser
}

// New creates a disconnected client. Call Connect or ConnectAddr to
// open the control connection.
func New(options ...Option) (*Client, error) {
	c := &Client{
		dialer: &net.Dialer{},
		logger: slog.New(slog.DiscardHandler),
		parsers: []ListingParser{
			&EPLFParser{},
			&DOSParser{},
			&UnixParser{},
		},
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if c.newSocket == nil {
		c.newSocket = func() Socket {
			return netio.NewTCPSocket(c.dialer, c.timeout)
		}
	}

	return c, nil
}

// Dial creates a client and connects it to an FTP server at the given
// "host:port" address.
//
// Example:
//
//	client, err := ftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
func Dial(addr string, options ...Option) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	c, err := New(options...)
	if err != nil {
		return nil, err
	}

	if err := c.ConnectAddr(host, port); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens the control connection to host on the default "ftp"
// service port and consumes the server's welcome reply.
func (c *Client) Connect(host string) error {
	return c.ConnectAddr(host, "ftp")
}

// ConnectAddr opens the control connection to host:port and consumes
// the server's welcome reply. The client must not already be connected.
func (c *Client) ConnectAddr(host, port string) error {
	if c.ctrl != nil && c.ctrl.IsOpen() {
		return fmt.Errorf("ftp: already connected")
	}

	c.logger.Debug("connecting to ftp server", "host", host, "port", port)

	sock := c.newSocket()
	if err := sock.Connect(host, port); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.ctrl = sock

	// Servers greet unconditionally; the welcome reply must be consumed
	// before the first command or it would be misread as that command's
	// reply. Its class is not enforced.
	welcome, err := c.receive()
	if err != nil {
		_ = sock.Close()
		c.ctrl = nil
		return fmt.Errorf("failed to read welcome reply: %w", err)
	}

	c.logger.Debug("ftp welcome", "code", welcome.Code, "message", welcome.Message)
	return nil
}

// Login authenticates with a username and password. An empty password
// means none is sent: the USER command alone must then succeed.
func (c *Client) Login(username, password string) error {
	return c.loginSequence(Credentials{User: username, Password: password})
}

// LoginWith authenticates with the full credential set, including the
// optional ACCT step. Supplying an account requires a password.
func (c *Client) LoginWith(creds Credentials) error {
	return c.loginSequence(creds)
}

// Noop sends a NOOP (no operation) command to the server. Useful to
// verify the control connection is still alive.
func (c *Client) Noop() error {
	return c.oneStep("NOOP")
}

// Quit ends the session: it sends QUIT and closes the control
// connection. The control connection is closed even when QUIT itself
// fails, since the server may not reply cleanly while shutting down;
// such failures are only logged. Quit fails if the client was never
// connected.
func (c *Client) Quit() error {
	if c.ctrl == nil || !c.ctrl.IsOpen() {
		return ErrNotConnected
	}

	if err := c.oneStep("QUIT"); err != nil {
		c.logger.Debug("QUIT not acknowledged", "error", err)
	}

	err := c.ctrl.Close()
	c.ctrl = nil
	return err
}

// CurrentDir returns the server's current working directory.
func (c *Client) CurrentDir() (string, error) {
	return c.directoryCmd("")
}

// ChangeDir changes the server's current working directory.
func (c *Client) ChangeDir(dir string) error {
	return c.oneStep("CWD " + dir)
}

// MakeDir creates a directory on the server and returns the pathname
// the server reports for it. The pathname may be empty even when the
// directory was created, if it could not be extracted from the reply.
func (c *Client) MakeDir(dir string) (string, error) {
	return c.directoryCmd(dir)
}

// RemoveDir removes a directory on the server.
func (c *Client) RemoveDir(dir string) error {
	return c.oneStep("RMD " + dir)
}

// Delete deletes a file on the server.
func (c *Client) Delete(path string) error {
	return c.oneStep("DELE " + path)
}

// Rename renames a file or directory on the server.
func (c *Client) Rename(from, to string) error {
	return c.renameSequence(from, to)
}

// Size returns the size of a remote file in bytes, using the SIZE
// command of RFC 3659.
func (c *Client) Size(path string) (int64, error) {
	command := "SIZE " + path
	reply, err := c.exchange(command)
	if err != nil {
		return 0, err
	}
	if !reply.Is2xx() {
		return 0, protocolError(command, reply)
	}

	var size int64
	if _, err := fmt.Sscanf(strings.TrimSpace(reply.Message), "%d", &size); err != nil {
		return 0, fmt.Errorf("invalid SIZE reply: %s", reply.Message)
	}
	return size, nil
}
