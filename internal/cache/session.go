package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nyaaypath/nyaaypath/internal/wizard"
)

// Abandoned drafts expire on their own; every touch renews the clock.
const sessionTTL = 24 * time.Hour

var ErrSessionNotFound = errors.New("wizard session not found")

// SessionStore keeps in-progress application drafts in redis, keyed by
// a caller-supplied session ID, so a citizen can resume the form from
// another request or another server instance.
type SessionStore struct {
	cache *Cache
}

func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

func sessionKey(id string) string {
	return "wizard:" + id
}

func (s *SessionStore) Save(id string, w *wizard.Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}

	return s.cache.Set(sessionKey(id), string(data), sessionTTL)
}

func (s *SessionStore) Get(id string) (*wizard.Wizard, error) {
	data, err := s.cache.Get(sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var w wizard.Wizard
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, err
	}

	return &w, nil
}

func (s *SessionStore) Delete(id string) error {
	return s.cache.Delete(sessionKey(id))
}
