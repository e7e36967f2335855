package ftp

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// openDataConn brings up a passive-mode data connection: set the
// transfer type to image, ask for a passive endpoint, and dial it.
// The returned socket is owned by the calling operation and must be
// closed before the operation returns.
func (c *Client) openDataConn() (Socket, error) {
	// Only unstructured binary transfers are supported.
	if err := c.oneStep("TYPE I"); err != nil {
		return nil, fmt.Errorf("failed to set image type: %w", err)
	}

	host, port, err := c.pasv()
	if err != nil {
		return nil, err
	}

	data := c.newSocket()
	if err := data.Connect(host, port); err != nil {
		return nil, fmt.Errorf("failed to connect to data port: %w", err)
	}

	c.logger.Debug("data connection open", "host", host, "port", port)
	return data, nil
}

// transfer runs one data-transfer command end to end:
//
//	1xx -> bytes on the data channel -> close data channel -> 2xx
//
// Closing the data channel is the termination signal; the server holds
// the completion reply until it sees the close, so the data socket is
// closed before the final control reply is read, even when the transfer
// callback fails.
func (c *Client) transfer(command string, during func(data Socket) error) error {
	data, err := c.openDataConn()
	if err != nil {
		return err
	}

	ran := false
	err = c.twoStep(command, func() error {
		ran = true
		transferErr := during(data)
		if closeErr := data.Close(); closeErr != nil && transferErr == nil {
			transferErr = closeErr
		}
		return transferErr
	})

	// The command may be refused before the data phase runs; the data
	// socket's ownership still ends with this operation.
	if !ran {
		_ = data.Close()
	}
	return err
}

// Store uploads everything read from r to the remote path, creating or
// overwriting the remote file.
//
// Example:
//
//	file, err := os.Open("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = client.Store("remote.txt", file)
func (c *Client) Store(remotePath string, r io.Reader) error {
	return c.transfer("STOR "+remotePath, func(data Socket) error {
		return data.SendStream(r)
	})
}

// StoreFile uploads a local file to the remote path. The local file
// must exist; it is streamed in fixed-size chunks.
func (c *Client) StoreFile(localPath, remotePath string) error {
	if err := checkLocalSource(localPath); err != nil {
		return err
	}
	return c.transfer("STOR "+remotePath, func(data Socket) error {
		return data.SendFile(localPath)
	})
}

// Append appends everything read from r to the remote path. The remote
// file is created if it does not exist.
func (c *Client) Append(remotePath string, r io.Reader) error {
	return c.transfer("APPE "+remotePath, func(data Socket) error {
		return data.SendStream(r)
	})
}

// AppendFile appends a local file to the remote path. The local file
// must exist.
func (c *Client) AppendFile(localPath, remotePath string) error {
	if err := checkLocalSource(localPath); err != nil {
		return err
	}
	return c.transfer("APPE "+remotePath, func(data Socket) error {
		return data.SendFile(localPath)
	})
}

// Retrieve downloads the remote path, writing every byte to w. The
// download is complete when the server closes the data connection.
//
// Example:
//
//	file, err := os.Create("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = client.Retrieve("remote.txt", file)
func (c *Client) Retrieve(remotePath string, w io.Writer) error {
	return c.transfer("RETR "+remotePath, func(data Socket) error {
		return data.RetrieveTo(w)
	})
}

// RetrieveFile downloads the remote path into a newly created local
// file. The parent of localPath must be an existing directory and
// localPath itself must not exist yet. A failed download can leave a
// partial file behind; no cleanup is attempted.
func (c *Client) RetrieveFile(remotePath, localPath string) error {
	parent := filepath.Dir(localPath)
	info, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("local destination parent: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("local destination parent %s is not a directory", parent)
	}
	if _, err := os.Stat(localPath); err == nil {
		return fmt.Errorf("local destination %s already exists", localPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("local destination: %w", err)
	}

	return c.transfer("RETR "+remotePath, func(data Socket) error {
		return data.RetrieveFile(localPath)
	})
}

// List returns the raw directory listing for dir, or for the current
// directory when dir is empty. An empty listing is a valid result.
// The whole listing is collected in memory; for structured results use
// ListEntries.
func (c *Client) List(dir string) (string, error) {
	command := "LIST"
	if dir != "" {
		command = "LIST " + dir
	}

	var buf bytes.Buffer
	err := c.transfer(command, func(data Socket) error {
		return data.RetrieveTo(&buf)
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NameList returns the bare names in dir (or in the current directory
// when dir is empty), using the NLST command.
func (c *Client) NameList(dir string) ([]string, error) {
	command := "NLST"
	if dir != "" {
		command = "NLST " + dir
	}

	var buf bytes.Buffer
	err := c.transfer(command, func(data Socket) error {
		return data.RetrieveTo(&buf)
	})
	if err != nil {
		return nil, err
	}

	var names []string
	for line := range strings.Lines(buf.String()) {
		if name := strings.TrimRight(line, "\r\n"); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// checkLocalSource verifies that an upload source exists and is not a
// directory before any command is sent.
func checkLocalSource(localPath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("local source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("local source %s is a directory", localPath)
	}
	return nil
}
