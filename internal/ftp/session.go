package ftp

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/cyberinferno/ftpserver/internal/cache"
	"github.com/cyberinferno/ftpserver/internal/logger"
	"github.com/cyberinferno/ftpserver/internal/protocol"
	"github.com/cyberinferno/ftpserver/internal/storage"
)

// sessionState is the command-loop state of one connection.
type sessionState int

const (
	stateAwaitingCommand sessionState = iota // Reading command lines
	stateInTransfer                          // Streaming file bytes for put
	stateClosed                              // Connection torn down
)

// readBufSize is the chunk size for transfer reads.
const readBufSize = 4096

// session owns one client connection for its whole lifetime: it sends the
// banner, reads command lines, dispatches them, and tears the connection
// down. The socket and all session state belong exclusively to the handle
// goroutine; close is the only method other goroutines may call.
type session struct {
	id          uint32
	conn        net.Conn
	reader      *bufio.Reader
	log         logger.Logger
	store       *storage.Store
	listings    cache.ListingCache
	readTimeout time.Duration

	state     sessionState
	closeOnce sync.Once
}

func newSession(id uint32, conn net.Conn, srv *Server) *session {
	return &session{
		id:     id,
		conn:   conn,
		reader: bufio.NewReader(conn),
		log: srv.log.With(
			logger.Field{Key: "session_id", Value: id},
			logger.Field{Key: "remote_addr", Value: conn.RemoteAddr().String()}),
		store:       srv.store,
		listings:    srv.listings,
		readTimeout: srv.readTimeout,
	}
}

// handle runs the session's command loop until the client disconnects, a
// connection-fatal error occurs, or the client sends quit.
func (s *session) handle() {
	defer func() {
		s.state = stateClosed
		s.close()
	}()

	s.log.Info("client connected")

	if err := s.send(protocol.Banner); err != nil {
		s.log.Warn("failed to send banner", logger.Field{Key: "error", Value: err})
		return
	}

	for {
		s.state = stateAwaitingCommand

		line, err := s.readLine()
		if err != nil {
			s.log.Debug("client disconnected", logger.Field{Key: "error", Value: err})
			return
		}

		cmd, ok := parseCommand(line)
		if !ok {
			// Empty line: no acknowledgment, no state change.
			continue
		}

		s.log.Debug("received command",
			logger.Field{Key: "verb", Value: cmd.verb},
			logger.Field{Key: "arg", Value: cmd.arg})

		if err := s.dispatch(cmd); err != nil {
			if errors.Is(err, errQuit) {
				s.log.Info("client quit")
			} else {
				s.log.Warn("session ended", logger.Field{Key: "error", Value: err})
			}

			return
		}
	}
}

// readLine reads the next newline-terminated command line, applying the
// read-idle timeout.
func (s *session) readLine() (string, error) {
	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	return s.reader.ReadString('\n')
}

// read reads raw transfer bytes into p, applying the read-idle timeout. It
// goes through the buffered reader so bytes the client sent right behind the
// command line are not lost.
func (s *session) read(p []byte) (int, error) {
	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	return s.reader.Read(p)
}

// send writes text to the client. Send failures are connection-fatal.
func (s *session) send(text string) error {
	_, err := s.conn.Write([]byte(text))
	return err
}

// close closes the connection. Safe to call multiple times and from other
// goroutines (the server calls it on Stop); the handle goroutine unblocks
// with a read error and exits.
func (s *session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		s.log.Info("connection closed")
	})
}
