package ftp

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/cyberinferno/ftpserver/internal/logger"
	"github.com/cyberinferno/ftpserver/internal/protocol"
)

// errQuit signals a clean client-requested disconnect up to the command loop.
var errQuit = errors.New("client quit")

// listingKey is the cache key for the storage-root directory listing.
const listingKey = "ftp:listing"

// command is one parsed client line: a verb and the remainder of the line.
type command struct {
	verb string
	arg  string
}

// parseCommand turns a raw input line into a command. The line is stripped
// of its terminator and surrounding whitespace, then split on the first
// whitespace run; the remainder is the argument as-is. Returns ok=false for
// blank lines, which elicit no response at all.
func parseCommand(line string) (command, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return command{}, false
	}

	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return command{verb: trimmed}, true
	}

	return command{
		verb: trimmed[:i],
		arg:  strings.TrimSpace(trimmed[i:]),
	}, true
}

// dispatch executes one command. A non-nil return is connection-fatal;
// protocol errors (unknown verb, bad arguments, rejected filenames) are
// reported to the client with an error line and leave the session usable.
func (s *session) dispatch(cmd command) error {
	switch cmd.verb {
	case "put":
		if cmd.arg == "" {
			return s.send(protocol.ErrorLine("missing filename"))
		}

		return s.receiveFile(cmd.arg)
	case "get":
		if cmd.arg == "" {
			return s.send(protocol.ErrorLine("missing filename"))
		}

		return s.sendFile(cmd.arg)
	case "ls":
		return s.listFiles()
	case "pwd":
		return s.send(s.store.Root() + "\n")
	case "quit":
		return errQuit
	default:
		return s.send(protocol.ErrorLine("invalid command"))
	}
}

// listFiles answers ls with the cached storage-root listing: one name per
// line, terminated by a blank line.
func (s *session) listFiles() error {
	names, err := s.listings.GetOrFetch(context.Background(), listingKey, func(ctx context.Context) ([]string, error) {
		return s.store.List()
	})
	if err != nil {
		s.log.Error("failed to list files", logger.Field{Key: "error", Value: err})
		return s.send(protocol.ErrorLine("cannot list files"))
	}

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	return s.send(b.String())
}
