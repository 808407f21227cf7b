package ftp

import "sync"

// sessionRegistry tracks live sessions by ID so the server can count them
// against the connection limit and close them all on Stop. Safe for
// concurrent use; the zero value is ready to use.
type sessionRegistry struct {
	m sync.Map
}

func (r *sessionRegistry) add(id uint32, s *session) {
	r.m.Store(id, s)
}

func (r *sessionRegistry) remove(id uint32) {
	r.m.Delete(id)
}

// count returns the number of live sessions. O(n), acceptable at accept rate.
func (r *sessionRegistry) count() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// each calls f for every live session until f returns false.
func (r *sessionRegistry) each(f func(s *session) bool) {
	r.m.Range(func(_, v any) bool {
		return f(v.(*session))
	})
}
