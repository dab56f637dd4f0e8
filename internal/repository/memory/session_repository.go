package memory

import (
	"time"

	"agri-advisor/internal/model"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates an in-memory session store. Sessions idle
// longer than ttl are purged; every Save refreshes the clock.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *model.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*model.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*model.Session), true
	}
	return nil, false
}

// GetOrCreate returns the existing session or a fresh one for the id.
func (r *SessionRepository) GetOrCreate(sessionID string) *model.Session {
	if s, ok := r.Get(sessionID); ok {
		return s
	}
	s := &model.Session{
		ID:        sessionID,
		CreatedAt: time.Now(),
	}
	r.Save(s)
	return s
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
