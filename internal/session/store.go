package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"oraculo-educacao/internal/helper"
)

// Store keeps the sessions of the web UI. Sessions idle for longer than the
// TTL are evicted in the background until Close is called.
type Store struct {
	pipeline Pipeline
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewStore(pipeline Pipeline, ttl time.Duration) *Store {
	st := &Store{
		pipeline: pipeline,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go st.janitor(janitorInterval(ttl))
	} else {
		close(st.done)
	}
	return st
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, starting a new one with a fresh id
// when id is unknown.
func (st *Store) GetOrCreate(id string) (*Session, error) {
	if s, ok := st.Get(id); ok {
		return s, nil
	}
	newID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := New(newID, st.pipeline)

	st.mu.Lock()
	st.sessions[newID] = s
	st.mu.Unlock()

	log.Debug().Str("session", newID).Msg("Session started")
	return s, nil
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict removes idle sessions whose last activity is older than the TTL at now.
func (st *Store) Evict(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		last, idle := s.idleSince()
		if idle && now.Sub(last) > st.ttl {
			delete(st.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Int("remaining", len(st.sessions)).Msg("Expired sessions removed")
	}
	return evicted
}

func (st *Store) janitor(interval time.Duration) {
	defer close(st.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			st.Evict(now)
		case <-st.stop:
			return
		}
	}
}

// Close stops the janitor. Sessions stay readable.
func (st *Store) Close() {
	st.stopOnce.Do(func() { close(st.stop) })
	<-st.done
}
