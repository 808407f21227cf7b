package storage

import "sync"

// nameSet tracks destination names with an upload in flight. It gives each
// name at most one writer across all sessions.
type nameSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newNameSet() *nameSet {
	return &nameSet{
		m: make(map[string]struct{}),
	}
}

// claim reserves name for the caller. It returns false if the name is
// already claimed.
func (s *nameSet) claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.m[name]; found {
		return false
	}

	s.m[name] = struct{}{}
	return true
}

// release frees a previously claimed name. Releasing an unclaimed name is
// a no-op.
func (s *nameSet) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, name)
}
