package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/project-radar/internal/domain"
)

type memEntry struct {
	entry     Entry
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uuid.UUID]memEntry
	gens    map[uuid.UUID]uint64
}

func NewMemory(draftTTL time.Duration) Cache {
	return newMemory(draftTTL, time.Now)
}

func newMemory(draftTTL time.Duration, now func() time.Time) *memoryCache {
	if draftTTL <= 0 {
		draftTTL = DefaultDraftTTL
	}
	return &memoryCache{ttl: draftTTL, now: now, entries: map[uuid.UUID]memEntry{}, gens: map[uuid.UUID]uint64{}}
}

func (c *memoryCache) Get(_ context.Context, editionID uuid.UUID) (*Entry, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[editionID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.entry.Frozen && !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[editionID]; still && !cur.entry.Frozen && !c.now().Before(cur.expiresAt) {
			delete(c.entries, editionID)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	out := e.entry
	return &out, true, nil
}

func (c *memoryCache) Put(_ context.Context, editionID uuid.UUID, r *types.RadarRendering, frozen bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(editionID, r, frozen), nil
}

func (c *memoryCache) PutDraft(_ context.Context, editionID uuid.UUID, r *types.RadarRendering, gen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[editionID] != gen {
		return false, nil
	}
	return c.putLocked(editionID, r, false), nil
}

func (c *memoryCache) putLocked(editionID uuid.UUID, r *types.RadarRendering, frozen bool) bool {
	if cur, ok := c.entries[editionID]; ok && cur.entry.Frozen {
		return false
	}
	e := memEntry{entry: Entry{Rendering: r, Frozen: frozen}}
	if !frozen {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[editionID] = e
	return true
}

func (c *memoryCache) Invalidate(_ context.Context, editionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.entries[editionID]
	if ok && cur.entry.Frozen {
		return nil
	}
	delete(c.entries, editionID)
	c.gens[editionID]++
	return nil
}

func (c *memoryCache) Generation(_ context.Context, editionID uuid.UUID) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[editionID], nil
}
