package contestant

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedService remembers successful lookups for a while. Misses are not
// cached so that a contestant who registers late can retry straight away.
type CachedService struct {
	Service

	lookups *expirable.LRU[string, Contestant]
}

func NewCachedService(service Service, size int, ttl time.Duration) *CachedService {
	return &CachedService{
		Service: service,
		lookups: expirable.NewLRU[string, Contestant](size, nil, ttl),
	}
}

func (c *CachedService) Contestant(ctx context.Context, discordID string) (Contestant, error) {
	if contestant, ok := c.lookups.Get(discordID); ok {
		return contestant, nil
	}

	contestant, err := c.Service.Contestant(ctx, discordID)
	if err != nil {
		return Contestant{}, err
	}

	c.lookups.Add(discordID, contestant)

	return contestant, nil
}

// Purge forgets every cached lookup.
func (c *CachedService) Purge() {
	c.lookups.Purge()
}
