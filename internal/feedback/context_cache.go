package feedback

import (
	"sync"
	"time"

	"errorhelper/internal/models"
)

const cleanupInterval = 5 * time.Minute

// ContextCache keeps explanation contexts in memory until they are rated or expire.
type ContextCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	context   *models.RequestContext
	expiresAt time.Time
}

// NewContextCache starts a background sweeper; Close stops it.
func NewContextCache(ttl time.Duration) *ContextCache {
	cc := &ContextCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go cc.cleanupLoop(cleanupInterval)
	return cc
}

func (cc *ContextCache) Set(requestID string, ctx *models.RequestContext) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.entries[requestID] = cacheEntry{context: ctx, expiresAt: cc.now().Add(cc.ttl)}
}

// Get ignores expired entries even if the sweeper has not removed them yet.
func (cc *ContextCache) Get(requestID string) (*models.RequestContext, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	entry, ok := cc.entries[requestID]
	if !ok || cc.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.context, true
}

func (cc *ContextCache) Delete(requestID string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.entries, requestID)
}

func (cc *ContextCache) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.entries)
}

func (cc *ContextCache) Close() {
	cc.stopOnce.Do(func() { close(cc.stop) })
}

func (cc *ContextCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cc.cleanup()
		case <-cc.stop:
			return
		}
	}
}

func (cc *ContextCache) cleanup() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	now := cc.now()
	removed := 0
	for id, entry := range cc.entries {
		if now.After(entry.expiresAt) {
			delete(cc.entries, id)
			removed++
		}
	}
	return removed
}
