package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cyberinferno/ftpserver/internal/logger"
	"github.com/cyberinferno/ftpserver/internal/protocol"
	"github.com/cyberinferno/ftpserver/internal/storage"
)

// receiveFile runs the upload state machine for put. The destination is
// claimed and opened before READY_TO_RECEIVE is sent, so open failures are
// recoverable protocol errors and the session never enters the transfer
// state. Once in transfer, raw bytes are streamed to the upload while the
// scanner watches for the terminator; everything before the terminator is
// content, everything at and after it is discarded. A disconnect or I/O
// error before the terminator aborts the upload, removing the temp file,
// and is connection-fatal.
func (s *session) receiveFile(name string) error {
	up, err := s.store.BeginUpload(name)
	if err != nil {
		s.log.Warn("upload rejected",
			logger.Field{Key: "filename", Value: name},
			logger.Field{Key: "error", Value: err})

		switch {
		case errors.Is(err, storage.ErrInvalidName):
			return s.send(protocol.ErrorLine("invalid filename"))
		case errors.Is(err, storage.ErrUploadInProgress):
			return s.send(protocol.ErrorLine("file is busy"))
		default:
			return s.send(protocol.ErrorLine("cannot open file"))
		}
	}

	if err := s.send(protocol.ReadyToReceive); err != nil {
		_ = up.Abort()
		return err
	}

	s.state = stateInTransfer

	scanner := protocol.NewTerminatorScanner(protocol.Terminator)
	buf := make([]byte, readBufSize)

	for {
		n, err := s.read(buf)
		if n > 0 {
			content, found := scanner.Scan(buf[:n])
			if len(content) > 0 {
				if _, werr := up.Write(content); werr != nil {
					// The client keeps streaming bytes we can no
					// longer store; resynchronizing the line protocol
					// is not possible, so tear the connection down.
					_ = up.Abort()
					return fmt.Errorf("failed to write upload %s: %w", name, werr)
				}
			}

			if found {
				if cerr := up.Commit(); cerr != nil {
					s.log.Error("failed to store upload",
						logger.Field{Key: "filename", Value: name},
						logger.Field{Key: "error", Value: cerr})
					return s.send(protocol.ErrorLine("cannot store file"))
				}

				s.invalidateListing()
				s.log.Info("upload complete",
					logger.Field{Key: "filename", Value: name},
					logger.Field{Key: "bytes", Value: up.BytesWritten()})
				return s.send(protocol.TransferComplete)
			}
		}

		if err != nil {
			_ = up.Abort()
			s.log.Warn("upload aborted",
				logger.Field{Key: "filename", Value: name},
				logger.Field{Key: "bytes", Value: up.BytesWritten()})
			return fmt.Errorf("transfer of %s interrupted: %w", name, err)
		}
	}
}

// sendFile runs the download state machine for get, the mirror of
// receiveFile: the stored bytes are streamed to the client followed by the
// terminator and a newline.
func (s *session) sendFile(name string) error {
	f, err := s.store.Open(name)
	if err != nil {
		s.log.Warn("download rejected",
			logger.Field{Key: "filename", Value: name},
			logger.Field{Key: "error", Value: err})

		switch {
		case errors.Is(err, storage.ErrInvalidName):
			return s.send(protocol.ErrorLine("invalid filename"))
		case errors.Is(err, storage.ErrNotFound):
			return s.send(protocol.ErrorLine("file not found"))
		default:
			return s.send(protocol.ErrorLine("cannot open file"))
		}
	}
	defer f.Close()

	if err := s.send(protocol.TransferStart); err != nil {
		return err
	}

	sent, err := io.Copy(s.conn, f)
	if err != nil {
		return fmt.Errorf("transfer of %s interrupted: %w", name, err)
	}

	s.log.Info("download complete",
		logger.Field{Key: "filename", Value: name},
		logger.Field{Key: "bytes", Value: sent})
	return s.send(protocol.Terminator + "\n")
}

// invalidateListing drops the cached ls listing after a successful upload.
func (s *session) invalidateListing() {
	if err := s.listings.Invalidate(context.Background(), listingKey); err != nil {
		s.log.Warn("failed to invalidate listing cache", logger.Field{Key: "error", Value: err})
	}
}
