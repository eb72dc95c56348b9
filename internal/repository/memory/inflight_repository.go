package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// InflightRepository tracks which chat sessions currently have a completion
// request in flight. Entries expire on their own so an abandoned request can
// never wedge a session.
type InflightRepository struct {
	cache *cache.Cache
}

func NewInflightRepository(ttl time.Duration) *InflightRepository {
	c := cache.New(ttl, 2*ttl)
	return &InflightRepository{
		cache: c,
	}
}

// TryAcquire marks the session as busy. Returns false if a send is already
// pending for it.
func (r *InflightRepository) TryAcquire(sessionID string) bool {
	return r.cache.Add(sessionID, struct{}{}, cache.DefaultExpiration) == nil
}

func (r *InflightRepository) Release(sessionID string) {
	r.cache.Delete(sessionID)
}
