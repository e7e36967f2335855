package ftp

import "fmt"

// crlf terminates every command and reply on the control channel.
const crlf = "\r\n"

// exchange sends a single command on the control channel and reads the
// reply it elicits. The CRLF terminator is appended here; callers pass
// the bare command text (e.g. "CWD /pub").
//
// A reply returned by exchange is always at least three characters
// long, so code indexing is safe for callers.
func (c *Client) exchange(command string) (*Reply, error) {
	if c.ctrl == nil || !c.ctrl.IsOpen() {
		return nil, ErrNotConnected
	}

	c.logger.Debug("ftp command", "cmd", command)

	line := command + crlf
	n, err := c.ctrl.SendString(line)
	if err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}
	if n < len(line) {
		return nil, fmt.Errorf("short write sending command: %d of %d bytes", n, len(line))
	}

	return c.receive()
}

// receive reads the next reply from the control channel without sending
// anything. It is used for the welcome message after connecting and for
// the server-initiated completion reply after a data transfer.
//
// The reader consumes exactly one CRLF-terminated line per reply.
// Multi-line ("nnn-") replies are not recognized; their continuation
// lines would desynchronize the session.
func (c *Client) receive() (*Reply, error) {
	if c.ctrl == nil {
		return nil, ErrNotConnected
	}

	line, err := c.ctrl.ReadUntil(crlf)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}

	reply, err := parseReply(line)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("ftp reply", "code", reply.Code, "message", reply.Message)
	return reply, nil
}
