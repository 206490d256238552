package fleet

import (
	"sync"
	"time"

	"github.com/fjacquet/ncm_client/internal/models"
	"github.com/patrickmn/go-cache"
)

const (
	routersCacheKey = "routers"
	defaultCacheTTL = 5 * time.Minute
)

// SnapshotCache keeps the last router listing for a TTL so that frequent
// scrapes do not each walk the whole fleet.
//
// Thread-safety: All methods are safe for concurrent use.
type SnapshotCache struct {
	cache              *cache.Cache
	ttl                time.Duration
	lastCollectionMu   sync.RWMutex
	lastCollectionTime time.Time
}

// NewSnapshotCache creates a cache with the given TTL. Cleanup runs at
// twice the TTL. A non-positive ttl means 5 minutes.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &SnapshotCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get returns the cached routers, or nil, false on a miss.
func (sc *SnapshotCache) Get() ([]models.Router, bool) {
	if cached, found := sc.cache.Get(routersCacheKey); found {
		return cached.([]models.Router), true
	}
	return nil, false
}

// Set stores a listing and stamps the collection time.
func (sc *SnapshotCache) Set(routers []models.Router) {
	sc.cache.Set(routersCacheKey, routers, cache.DefaultExpiration)
	sc.lastCollectionMu.Lock()
	sc.lastCollectionTime = time.Now()
	sc.lastCollectionMu.Unlock()
}

// LastCollectionTime returns when the last listing was stored.
func (sc *SnapshotCache) LastCollectionTime() time.Time {
	sc.lastCollectionMu.RLock()
	defer sc.lastCollectionMu.RUnlock()
	return sc.lastCollectionTime
}

// TTL returns the configured TTL.
func (sc *SnapshotCache) TTL() time.Duration {
	return sc.ttl
}

// Flush drops the cached listing. Called when the client is rebuilt
// against another endpoint.
func (sc *SnapshotCache) Flush() {
	sc.cache.Flush()
}
