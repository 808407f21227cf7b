// Package protocol defines the wire-level literals of the file server
// protocol and the streaming terminator scanner used by file transfers in
// both directions.
package protocol

// Protocol literals. These are the wire contract shared by server and
// clients; everything else the server prints is free-form.
const (
	// Banner is sent once per connection, immediately after accept.
	Banner = "Welcome to the FTP-Server! Command Away\n"

	// Terminator marks the end of a file's bytes inside a transfer stream.
	// It is never part of the stored file content.
	Terminator = "FILE_TRANSFER_END"

	// ReadyToReceive acknowledges a put command; the client streams file
	// bytes after receiving it.
	ReadyToReceive = "SUCCESS: READY_TO_RECEIVE\n"

	// TransferComplete acknowledges a finished upload.
	TransferComplete = "SUCCESS: FILE_TRANSFER_COMPLETE\n"

	// TransferStart acknowledges a get command; the server streams file
	// bytes followed by Terminator and a newline after sending it.
	TransferStart = "SUCCESS: FILE_TRANSFER_START\n"
)

// ErrorLine formats a single-line error acknowledgment for the client.
//
// Parameters:
//   - reason: Short human-readable rejection reason
//
// Returns:
//   - The complete newline-terminated error line
func ErrorLine(reason string) string {
	return "ERROR: " + reason + "\n"
}
