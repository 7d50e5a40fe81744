package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mkarpov/docchat/internal/core/domain"
)

// Store keeps session state in process memory for the process lifetime.
// Entries never expire and are lost on restart. Each entry carries its own
// lock so one session's long-running chat never blocks another session.
type Store struct {
	sessions *gocache.Cache
	mu       sync.Mutex
}

type entry struct {
	mu   sync.Mutex
	sess domain.Session
}

func NewStore() *Store {
	return &Store{
		sessions: gocache.New(gocache.NoExpiration, 0),
	}
}

// Ensure returns a snapshot of the session for id, creating it when id is
// blank or unknown. The second return reports whether a session was created.
func (s *Store) Ensure(id string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if e, ok := s.lookup(id); ok {
			return e.snapshot(), false
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	e := &entry{sess: domain.Session{
		ID:        id,
		History:   []domain.Message{},
		CreatedAt: time.Now().UTC(),
	}}
	s.sessions.Set(id, e, gocache.NoExpiration)
	return e.snapshot(), true
}

func (s *Store) Get(id string) (domain.Session, error) {
	e, ok := s.lookup(id)
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return e.snapshot(), nil
}

func (s *Store) AppendMessage(id string, msg domain.Message) error {
	e, ok := s.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.History = append(e.sess.History, msg)
	return nil
}

func (s *Store) SetActiveFile(id, filename string, kind domain.FileKind) error {
	e, ok := s.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.ActiveFile = filename
	e.sess.ActiveKind = kind
	return nil
}

func (s *Store) History(id string) ([]domain.Message, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Message, len(e.sess.History))
	copy(out, e.sess.History)
	return out, nil
}

// Reset clears the transcript only. The active file and any cached
// pipelines are preserved, so chatting resumes without a rebuild.
func (s *Store) Reset(id string) error {
	e, ok := s.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.History = []domain.Message{}
	return nil
}

func (s *Store) lookup(id string) (*entry, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (e *entry) snapshot() domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.sess
	out.History = make([]domain.Message, len(e.sess.History))
	copy(out.History, e.sess.History)
	return out
}
