package runtime

import (
	"agora/domain/agora"
	"sync"
)

// SessionLocks serializes mutations per agora. Agoras never share a lock,
// and entries are dropped once nobody holds or waits for them.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[agora.ID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: make(map[agora.ID]*sessionLock)}
}

// Lock blocks until the agora is free and returns the matching unlock.
func (s *SessionLocks) Lock(id agora.ID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Len is the number of agoras currently locked or awaited.
func (s *SessionLocks) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
