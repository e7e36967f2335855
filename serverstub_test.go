package ftp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

// stubServer is a minimal FTP server backed by a temporary directory,
// serving each accepted control connection in its own session. It speaks just enough of the protocol for the
// client's end-to-end tests: one command per line, passive-mode data
// connections, and single-line replies.
type stubServer struct {
	t    *testing.T
	ln   net.Listener
	root string
}

// startStubServer launches the server on a random loopback port and
// registers its shutdown with the test cleanup.
func startStubServer(t *testing.T) *stubServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &stubServer{t: t, ln: ln, root: t.TempDir()}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// addr returns the control-channel address as host:port.
func (s *stubServer) addr() string {
	return s.ln.Addr().String()
}

// fsPath maps a virtual server path (resolved against cwd) onto the
// backing directory.
func (s *stubServer) fsPath(cwd, arg string) (virtual, local string) {
	if !path.IsAbs(arg) {
		arg = path.Join(cwd, arg)
	}
	virtual = path.Clean(arg)
	local = filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(virtual, "/")))
	return virtual, local
}

func (s *stubServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.session(conn)
	}
}

func (s *stubServer) session(conn net.Conn) {
	defer conn.Close()

	reply := func(format string, args ...any) {
		fmt.Fprintf(conn, format+"\r\n", args...)
	}

	reply("220 stub FTP server ready")

	var (
		reader = bufio.NewReader(conn)
		cwd    = "/"
		dataLn net.Listener
		rnfr   string
	)

	// acceptData hands the pending passive data connection to fn and
	// brackets it with the 150/226 replies.
	acceptData := func(fn func(data net.Conn) error) {
		if dataLn == nil {
			reply("425 Use PASV first")
			return
		}
		reply("150 Opening data connection")
		data, err := dataLn.Accept()
		dataLn.Close()
		dataLn = nil
		if err != nil {
			reply("425 Data connection failed")
			return
		}
		err = fn(data)
		data.Close()
		if err != nil {
			reply("451 Local error in processing")
			return
		}
		reply("226 Transfer complete")
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb, arg, _ := strings.Cut(line, " ")

		switch verb {
		case "USER":
			// "guest" logs in without a password so user-only login
			// can be exercised; everyone else needs PASS.
			if arg == "guest" {
				reply("230 User logged in")
			} else {
				reply("331 User name okay, need password")
			}
		case "PASS":
			reply("230 User logged in")
		case "ACCT":
			reply("230 Account accepted")
		case "NOOP":
			reply("200 Okay")
		case "QUIT":
			reply("221 Goodbye")
			return
		case "TYPE":
			if arg == "I" {
				reply("200 Type set to I")
			} else {
				reply("504 Only TYPE I here")
			}
		case "PWD":
			reply("257 %q is the current directory", cwd)
		case "CWD":
			virtual, local := s.fsPath(cwd, arg)
			if info, err := os.Stat(local); err == nil && info.IsDir() {
				cwd = virtual
				reply("250 Directory changed")
			} else {
				reply("550 No such directory")
			}
		case "MKD":
			virtual, local := s.fsPath(cwd, arg)
			if err := os.Mkdir(local, 0o755); err != nil {
				reply("550 Cannot create directory")
			} else {
				reply("257 %q created", virtual)
			}
		case "RMD":
			_, local := s.fsPath(cwd, arg)
			if err := os.Remove(local); err != nil {
				reply("550 Cannot remove directory")
			} else {
				reply("250 Directory removed")
			}
		case "DELE":
			_, local := s.fsPath(cwd, arg)
			if info, err := os.Stat(local); err != nil || info.IsDir() {
				reply("550 No such file")
			} else if err := os.Remove(local); err != nil {
				reply("550 Cannot delete file")
			} else {
				reply("250 File deleted")
			}
		case "RNFR":
			_, local := s.fsPath(cwd, arg)
			if _, err := os.Stat(local); err != nil {
				reply("550 No such file or directory")
			} else {
				rnfr = local
				reply("350 Ready for RNTO")
			}
		case "RNTO":
			_, local := s.fsPath(cwd, arg)
			if rnfr == "" {
				reply("503 RNFR required first")
			} else if err := os.Rename(rnfr, local); err != nil {
				reply("553 Rename failed")
			} else {
				rnfr = ""
				reply("250 Rename successful")
			}
		case "SIZE":
			_, local := s.fsPath(cwd, arg)
			if info, err := os.Stat(local); err != nil || info.IsDir() {
				reply("550 No such file")
			} else {
				reply("213 %d", info.Size())
			}
		case "PASV":
			if dataLn != nil {
				dataLn.Close()
			}
			dataLn, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				reply("425 Cannot open data port")
				continue
			}
			port := dataLn.Addr().(*net.TCPAddr).Port
			reply("227 Entering Passive Mode (127,0,0,1,%d,%d)", port/256, port%256)
		case "STOR", "APPE":
			_, local := s.fsPath(cwd, arg)
			flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
			if verb == "APPE" {
				flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
			}
			acceptData(func(data net.Conn) error {
				f, err := os.OpenFile(local, flags, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				_, err = io.Copy(f, data)
				return err
			})
		case "RETR":
			_, local := s.fsPath(cwd, arg)
			f, err := os.Open(local)
			if err != nil {
				reply("550 No such file")
				continue
			}
			acceptData(func(data net.Conn) error {
				defer f.Close()
				_, err := io.Copy(data, f)
				return err
			})
		case "LIST", "NLST":
			dir := cwd
			if arg != "" {
				dir, _ = s.fsPath(cwd, arg)
			}
			_, local := s.fsPath("/", dir)
			entries, err := os.ReadDir(local)
			if err != nil {
				reply("550 No such directory")
				continue
			}
			acceptData(func(data net.Conn) error {
				for _, e := range entries {
					if verb == "NLST" {
						fmt.Fprintf(data, "%s\r\n", e.Name())
						continue
					}
					info, err := e.Info()
					if err != nil {
						return err
					}
					perms, size := "-rw-r--r--", info.Size()
					if e.IsDir() {
						perms, size = "drwxr-xr-x", 0
					}
					fmt.Fprintf(data, "%s 1 ftp ftp %13d Jan  1 00:00 %s\r\n", perms, size, e.Name())
				}
				return nil
			})
		default:
			reply("502 Command not implemented")
		}
	}
}

// mustWriteFile creates a file of n pseudo-random-ish bytes under dir
// and returns its path and contents.
func mustWriteFile(t *testing.T, dir, name string, n int) (string, []byte) {
	t.Helper()
	content := make([]byte, n)
	for i := range content {
		content[i] = byte('a' + i%23)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", p, err)
	}
	return p, content
}

// dialStub connects and logs a client into the stub server.
func dialStub(t *testing.T, s *stubServer, options ...Option) *Client {
	t.Helper()
	c, err := Dial(s.addr(), options...)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() {
		if c.ctrl != nil && c.ctrl.IsOpen() {
			_ = c.Quit()
		}
	})
	if err := c.Login("anonymous", "anonymous"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return c
}
