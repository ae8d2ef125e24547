package asyncftp

import (
	"errors"
	"fmt"
)

// ErrClosed is reported to every command still queued when the control
// connection closes, and to commands issued after that.
var ErrClosed = errors.New("ftp: connection closed")

// ProtocolError reports a reply the engine could not make sense of: a
// malformed line, a 227 reply without an address tuple, or a final reply code
// the issuing command had no handler for.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "PASV")
	Command string

	// Response is the text received from the server, or a description of
	// what was wrong with it
	Response string

	// Code is the numeric reply code, 0 if the line carried none
	Code int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("ftp: %s: protocol error: %s", e.Command, e.Response)
	}
	return fmt.Sprintf("ftp: %s: unexpected reply: %s (code %d)", e.Command, e.Response, e.Code)
}

// RemoteError represents a 4xx or 5xx final reply. The code and message are
// carried verbatim from the server.
type RemoteError struct {
	// Command is the FTP command that was rejected (e.g., "STOR file.txt")
	Command string

	// Code is the three-digit reply code (e.g., 550)
	Code int

	// Message is the human-readable text of the final reply line
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Message, e.Code)
}

// IsTemporary returns true if the error is a transient failure (4xx).
func (e *RemoteError) IsTemporary() bool {
	return e.Code >= 400 && e.Code < 500
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *RemoteError) IsPermanent() bool {
	return e.Code >= 500 && e.Code < 600
}

// TransportError wraps a failure of the underlying connection: dialing,
// reading or writing on the control or a data channel.
type TransportError struct {
	// Op describes what was being done (e.g., "dial data", "read control")
	Op string

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("ftp: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// UsageError is returned before any I/O when a required parameter is missing.
type UsageError struct {
	Op    string
	Param string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("ftp: %s: missing required parameter %q", e.Op, e.Param)
}

// remoteError builds the error for a rejected command.
func remoteError(command string, r *Reply) *RemoteError {
	return &RemoteError{Command: command, Code: r.Code, Message: r.Message}
}
