package protocol

import "bytes"

// TerminatorScanner finds a literal terminator sequence in a byte stream that
// arrives in arbitrary chunks. It carries up to len(terminator)-1 unmatched
// tail bytes between calls so a terminator straddling a chunk boundary is
// still detected. One scanner instance serves exactly one transfer.
type TerminatorScanner struct {
	term []byte
	tail []byte
	done bool
}

// NewTerminatorScanner creates a scanner for the given terminator sequence.
//
// Parameters:
//   - terminator: The literal byte sequence that ends the stream; must be non-empty
//
// Returns:
//   - A new TerminatorScanner ready for the first chunk
func NewTerminatorScanner(terminator string) *TerminatorScanner {
	return &TerminatorScanner{
		term: []byte(terminator),
	}
}

// Scan consumes the next chunk read from the stream. It returns the bytes
// that are known to be content (safe to write to the destination) and whether
// the terminator was found. Once the terminator is found, content holds
// everything before it and all remaining bytes are discarded; further calls
// return no content.
//
// The returned slice is only valid until the next call to Scan.
//
// Parameters:
//   - chunk: The bytes read from the stream; may be empty
//
// Returns:
//   - The content bytes preceding any (partial) terminator match
//   - true if the terminator was found in the stream
func (s *TerminatorScanner) Scan(chunk []byte) ([]byte, bool) {
	if s.done {
		return nil, true
	}

	buf := append(s.tail, chunk...)

	if idx := bytes.Index(buf, s.term); idx >= 0 {
		s.done = true
		s.tail = nil
		return buf[:idx], true
	}

	// Hold back the longest suffix that could still be the start of the
	// terminator; everything before it is definitely content.
	keep := len(s.term) - 1
	if keep > len(buf) {
		keep = len(buf)
	}
	for ; keep > 0; keep-- {
		if bytes.HasPrefix(s.term, buf[len(buf)-keep:]) {
			break
		}
	}

	content := buf[:len(buf)-keep]
	s.tail = append([]byte(nil), buf[len(buf)-keep:]...)
	return content, false
}

// Found reports whether the terminator has been seen by a previous Scan call.
//
// Returns:
//   - true if the terminator was already detected
func (s *TerminatorScanner) Found() bool {
	return s.done
}
