package usecase

import (
	"context"
	"sync"
	"time"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/reconcile"
	"socialmall/pkg/logger"
)

const sessionIdleTimeout = 30 * time.Minute

// Selection hands out tickets for loads tied to a target. A response is
// applied only while its ticket is still the latest one.
type Selection struct {
	target string
	ticket uint64
}

func (s *Selection) Select(target string) uint64 {
	s.ticket++
	s.target = target
	return s.ticket
}

func (s *Selection) Current(ticket uint64) bool {
	return s.ticket == ticket
}

func (s *Selection) Target() string {
	return s.target
}

// Session is the view state of one signed-in user. mu serializes every
// read and write of the fields below it.
type Session struct {
	me entity.ID

	mu       sync.Mutex
	rec      *reconcile.Reconciler
	lastSeen time.Time

	inboxLoad Selection
	inbox     []entity.Conversation
	friends   entity.IDSet

	conversation Selection
	opened       entity.ID
	messages     []entity.Message

	thread Selection
	posts  map[string]*entity.Post
}

func newSession(me entity.ID) *Session {
	return &Session{
		me:      me,
		rec:     reconcile.New(),
		friends: entity.NewIDSet(),
		posts:   make(map[string]*entity.Post),
	}
}

func (s *Session) conversationIndex(id entity.ID) int {
	for i := range s.inbox {
		if s.inbox[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session of me, creating it on first use. me must be
// resolved.
func (st *SessionStore) Get(me entity.ID) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[me.String()]
	if !ok {
		s = newSession(me)
		st.sessions[me.String()] = s
	}
	s.mu.Lock()
	s.lastSeen = st.now()
	s.mu.Unlock()
	return s
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup drops idle sessions that have no edit in flight.
func (st *SessionStore) Cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	for key, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen) > sessionIdleTimeout && len(s.rec.Edits()) == 0
		s.mu.Unlock()
		if idle {
			delete(st.sessions, key)
			logger.Debug("Session %s expired", key)
		}
	}
}

func (st *SessionStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.Cleanup()
			}
		}
	}()
}

// background tracks the backend calls that resolve optimistic edits.
type background struct {
	wg sync.WaitGroup
}

func (b *background) run(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// Wait blocks until every background call started so far has finished.
func (b *background) Wait() {
	b.wg.Wait()
}
