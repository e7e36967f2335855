package ftp

import "fmt"

// Command state machines. Each sequence below drives the control
// channel through one of the reply-code progressions of RFC 959:
// one reply for simple commands, a preliminary/completion pair around a
// data transfer, an intermediate reply mid-rename, and the up-to-three
// step login conversation.

// oneStep issues a command whose outcome is determined by a single
// reply: success iff the reply is a positive completion (2xx).
// Used by NOOP, QUIT, CWD, DELE, RMD and TYPE I.
func (c *Client) oneStep(command string) error {
	reply, err := c.exchange(command)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return protocolError(command, reply)
	}
	return nil
}

// twoStep issues a command that brackets a data transfer. The server
// must answer with a positive preliminary reply (1xx) before the data
// phase; the during callback then performs the transfer and must close
// the data connection before returning, even on failure, because the
// server does not emit the completion reply until the data channel is
// closed. Success requires both the transfer and a 2xx completion.
//
// Requiring the 1xx is deliberately stricter than RFC 959's "expect
// (some may require)"; every data command this client sends elicits one.
func (c *Client) twoStep(command string, during func() error) error {
	reply, err := c.exchange(command)
	if err != nil {
		return err
	}
	if !reply.Is1xx() {
		return protocolError(command, reply)
	}

	transferErr := during()

	// The completion reply must be consumed even when the transfer
	// failed, or it would be misread as the reply to the next command.
	completion, err := c.receive()
	if transferErr != nil {
		return transferErr
	}
	if err != nil {
		return err
	}
	if !completion.Is2xx() {
		return protocolError(command, completion)
	}
	return nil
}

// Credentials carries the identity presented during login. User is
// required. An empty Password or Account means the field is absent;
// supplying an Account requires a Password.
type Credentials struct {
	User     string
	Password string
	Account  string
}

// loginSequence walks the USER/PASS/ACCT conversation.
//
// Supplied credentials are always sent, even after a 2xx on the
// previous step: the server may later gate a command on account
// information without the reply code revealing it, and users supply
// credentials when they believe they are needed.
func (c *Client) loginSequence(creds Credentials) error {
	if creds.Account != "" && creds.Password == "" {
		return fmt.Errorf("ftp: account requires a password")
	}

	reply, err := c.exchange("USER " + creds.User)
	if err != nil {
		return err
	}
	switch {
	case reply.Is2xx():
		if creds.Password == "" {
			return nil
		}
	case reply.Is3xx():
		// Server wants more; fall through to PASS if we have one.
		if creds.Password == "" {
			return protocolError("USER", reply)
		}
	default:
		return protocolError("USER", reply)
	}

	if creds.Password != "" {
		reply, err = c.exchange("PASS " + creds.Password)
		if err != nil {
			return err
		}
		switch {
		case reply.Is2xx():
			if creds.Account == "" {
				return nil
			}
		case reply.Is3xx():
		default:
			return protocolError("PASS", reply)
		}
	}

	if creds.Account != "" {
		reply, err = c.exchange("ACCT " + creds.Account)
		if err != nil {
			return err
		}
		if !reply.Is2xx() {
			return protocolError("ACCT", reply)
		}
	}

	return nil
}

// renameSequence performs the RNFR/RNTO pair. RNFR must draw a positive
// intermediate reply (3xx) naming the source; RNTO then completes the
// rename with a 2xx.
func (c *Client) renameSequence(from, to string) error {
	reply, err := c.exchange("RNFR " + from)
	if err != nil {
		return err
	}
	if !reply.Is3xx() {
		return protocolError("RNFR", reply)
	}

	reply, err = c.exchange("RNTO " + to)
	if err != nil {
		return err
	}
	if !reply.Is2xx() {
		return protocolError("RNTO", reply)
	}
	return nil
}

// directoryCmd issues PWD (empty path) or MKD and extracts the pathname
// from the 257 reply. The operation requires code 257 exactly; a reply
// whose quoted pathname cannot be extracted still counts as success and
// yields an empty pathname, since the server did perform the operation.
func (c *Client) directoryCmd(path string) (string, error) {
	command := "PWD"
	if path != "" {
		command = "MKD " + path
	}

	reply, err := c.exchange(command)
	if err != nil {
		return "", err
	}
	if reply.Code != 257 {
		return "", protocolError(command, reply)
	}

	dir, err := parseDirPath(reply.Raw)
	if err != nil {
		c.logger.Debug("257 reply without extractable pathname", "reply", reply.Raw)
		return "", nil
	}
	return dir, nil
}

// pasv asks the server for a passive-mode endpoint and parses the
// host/port pair out of the 227 reply.
func (c *Client) pasv() (host, port string, err error) {
	reply, err := c.exchange("PASV")
	if err != nil {
		return "", "", err
	}
	if !reply.Is2xx() {
		return "", "", protocolError("PASV", reply)
	}

	return parsePASV(reply.Raw)
}
