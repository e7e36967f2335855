package ftp

import (
	"log/slog"
	"net"
	"time"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTimeout sets a per-operation deadline for connects, reads and
// writes on both the control and data connections. The default of zero
// leaves every socket operation free to block indefinitely.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// All FTP commands and replies are logged at debug level.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := ftp.Dial("ftp.example.com:21", ftp.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for establishing the control and
// data connections. This can be used to configure source addresses,
// keep-alive settings, etc.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		c.dialer = dialer
		return nil
	}
}

// WithListParser adds a custom directory listing parser. Custom parsers
// are tried before the built-in parsers (EPLF, DOS, Unix), allowing
// non-standard LIST formats to be handled.
func WithListParser(parser ListingParser) Option {
	return func(c *Client) error {
		c.parsers = append([]ListingParser{parser}, c.parsers...)
		return nil
	}
}
