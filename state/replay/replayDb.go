package replay

import (
	"time"

	"github.com/patrickmn/go-cache"
	"persona/engine/library"
)

// Guard remembers message ids so a message relayed twice is only delivered once.
type Guard struct {
	seen *cache.Cache
}

// New keeps ids for ttl. A ttl <= 0 keeps them for the life of the process.
func New(ttl time.Duration) *Guard {
	if ttl <= 0 {
		return &Guard{seen: cache.New(cache.NoExpiration, 0)}
	}
	return &Guard{seen: cache.New(ttl, ttl*2)}
}

// Admit returns true the first time an id is offered within the ttl.
func (g *Guard) Admit(id library.Sha256) bool {
	return g.seen.Add(id, struct{}{}, cache.DefaultExpiration) == nil
}

// Forget lets an id through again, used when delivery failed before the program saw it.
func (g *Guard) Forget(id library.Sha256) {
	g.seen.Delete(id)
}

func (g *Guard) Len() int {
	return g.seen.ItemCount()
}
