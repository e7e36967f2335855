// Package ftp implements a client for the File Transfer Protocol as
// defined in RFC 959, with the reply-parsing relaxations of RFC 1123.
//
// # Overview
//
// The client drives a persistent control connection through the
// command-reply state machines of the protocol and brings up an
// ephemeral passive-mode data connection per transfer. It supports:
//   - Authentication with username, password and optional account
//   - Directory operations: PWD, CWD, MKD, RMD, DELE, RNFR/RNTO
//   - Binary (TYPE I) uploads, downloads and appends, path- or
//     io.Reader/io.Writer-based
//   - Raw and parsed directory listings (Unix, DOS and EPLF formats)
//   - Remote tree walking and recursive uploads
//   - Progress tracking via io.Reader/Writer wrappers
//
// Transfers use passive mode exclusively; active (PORT) mode, TLS and
// extended passive mode are not supported.
//
// # Basic Usage
//
// Connect, authenticate, and transfer:
//
//	client, err := ftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
//	if err := client.Login("username", "password"); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.StoreFile("local.txt", "remote.txt"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// A Client is strictly sequential. Operations must not be issued
// concurrently, and the client never runs background work of its own.
// By default socket operations have no deadline and may block
// indefinitely on a silent peer; use WithTimeout to bound them.
//
// # Error Handling
//
// Replies whose code class violates a state machine's expectation are
// reported as *ProtocolError, carrying the command, the reply text and
// the reply code:
//
//	if err := client.StoreFile("local.txt", "remote.txt"); err != nil {
//	    var pe *ftp.ProtocolError
//	    if errors.As(err, &pe) && pe.IsTemporary() {
//	        // retry later
//	    }
//	}
package ftp
