// Package ftp implements the TCP file server: the listener and accept loop,
// the per-connection session with its command loop, and the upload/download
// transfer state machines.
package ftp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyberinferno/ftpserver/internal/cache"
	"github.com/cyberinferno/ftpserver/internal/logger"
	"github.com/cyberinferno/ftpserver/internal/storage"
)

// Options configures a Server.
type Options struct {
	// Addr is the host:port to listen on.
	Addr string
	// MaxConns caps concurrent sessions; 0 means unlimited. Connections
	// over the cap are closed immediately after accept.
	MaxConns int
	// ReadTimeout bounds how long a session waits for client bytes before
	// the connection is treated as dead; 0 disables the timeout.
	ReadTimeout time.Duration
}

// Server is the TCP file server. It accepts connections and runs one
// independent session goroutine per connection. Sessions share no mutable
// state with each other beyond the store's in-flight upload set and the
// listing cache, both of which are concurrency-safe. The server supports
// graceful stop: the listener is closed first, then every live session.
type Server struct {
	log         logger.Logger
	addr        string
	maxConns    int
	readTimeout time.Duration
	store       *storage.Store
	listings    cache.ListingCache

	listener net.Listener
	running  atomic.Bool
	nextID   atomic.Uint32
	sessions sessionRegistry
	wg       sync.WaitGroup
}

// NewServer creates a Server serving files from store, with directory
// listings cached in listings.
//
// Parameters:
//   - opts: Listener address and connection limits
//   - store: The file store uploads and downloads go through
//   - listings: The listing cache behind the ls command
//   - log: Logger for server and session events
//
// Returns:
//   - A new Server; call Start to begin serving
func NewServer(opts Options, store *storage.Store, listings cache.ListingCache, log logger.Logger) *Server {
	return &Server{
		log:         log,
		addr:        opts.Addr,
		maxConns:    opts.MaxConns,
		readTimeout: opts.ReadTimeout,
		store:       store,
		listings:    listings,
	}
}

// Start binds the listener and begins accepting connections in a goroutine.
// It is safe to call only when the server is not already running.
//
// Returns:
//   - An error if the server is already running or if listening fails
func (s *Server) Start() error {
	if s.running.Load() {
		s.log.Error("server already running")
		return fmt.Errorf("server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.log.Error("server failed to start", logger.Field{Key: "error", Value: err})
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.running.Store(true)

	s.log.Info("server started",
		logger.Field{Key: "addr", Value: ln.Addr().String()},
		logger.Field{Key: "storage_root", Value: s.store.Root()})
	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server: the listener is closed, every live session's
// connection is closed, and Stop blocks until all session goroutines have
// finished. Safe to call when the server is not running.
func (s *Server) Stop() {
	if !s.running.Load() {
		s.log.Info("server not running")
		return
	}

	s.running.Store(false)
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.sessions.each(func(sess *session) bool {
		sess.close()
		return true
	})
	s.wg.Wait()

	s.log.Info("server stopped")
}

// Addr returns the listener's bound address, which differs from Options.Addr
// when port 0 was requested. Valid only after a successful Start.
//
// Returns:
//   - The bound address, or nil if the server never started
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// acceptLoop accepts incoming connections until the server is stopped.
// Per-connection failures are logged and never end the loop.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}

			s.log.Error("accept error", logger.Field{Key: "error", Value: err})
			continue
		}

		if s.maxConns > 0 && s.sessions.count() >= s.maxConns {
			s.log.Warn("connection limit reached, rejecting client",
				logger.Field{Key: "remote_addr", Value: conn.RemoteAddr().String()},
				logger.Field{Key: "max_conns", Value: s.maxConns})
			_ = conn.Close()
			continue
		}

		id := s.nextID.Add(1)
		sess := newSession(id, conn, s)
		s.sessions.add(id, sess)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sessions.remove(id)
			sess.handle()
		}()
	}
}
