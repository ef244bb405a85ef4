package bot

import "sync"

// Context is the conversation state of one chat session. It is created
// lazily on the first answered question, mutated only by the Service, and
// deleted whenever the conversation resets.
type Context struct {
	LastTopic          string
	LastQuestion       string
	WaitingForFollowUp bool
	AskedTopics        map[string]struct{}
}

// Store keys conversation state by chat session id. Each session also
// owns a mutex so one in-flight handler per session serializes its
// read-modify-write while unrelated sessions proceed concurrently. The
// session locks outlive context deletion, so a reset mid-conversation
// cannot let two handlers interleave.
type Store struct {
	mu       sync.Mutex
	locks    map[int64]*sync.Mutex
	contexts map[int64]*Context
}

func NewStore() *Store {
	return &Store{
		locks:    make(map[int64]*sync.Mutex),
		contexts: make(map[int64]*Context),
	}
}

// Lock returns the mutex serializing handlers for one session.
func (s *Store) Lock(sessionID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// Get returns the session's context, if one exists.
func (s *Store) Get(sessionID int64) (*Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convo, ok := s.contexts[sessionID]
	return convo, ok
}

// GetOrCreate returns the session's context, creating an empty one when
// none exists.
func (s *Store) GetOrCreate(sessionID int64) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	convo, ok := s.contexts[sessionID]
	if !ok {
		convo = &Context{AskedTopics: make(map[string]struct{})}
		s.contexts[sessionID] = convo
	}
	return convo
}

// Delete removes the session's context. The session lock stays.
func (s *Store) Delete(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contexts, sessionID)
}

// Len returns the number of sessions with live context.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.contexts)
}
