package topics

import (
	"context"
	"sync"
)

// Cache keeps each forum's topic list for the process lifetime, keyed by
// conversation id. Entries are filled on first expansion and only replaced
// by an explicit reload.
type Cache struct {
	paginator *Paginator

	mu     sync.Mutex
	byChat map[int64][]Topic
}

func NewCache(p *Paginator) *Cache {
	return &Cache{paginator: p, byChat: map[int64][]Topic{}}
}

// Get returns the cached topic list for the conversation, fetching it on
// first access. A fetch failure caches nothing.
func (c *Cache) Get(ctx context.Context, chatID int64) ([]Topic, error) {
	c.mu.Lock()
	if ts, ok := c.byChat[chatID]; ok {
		c.mu.Unlock()
		return ts, nil
	}
	c.mu.Unlock()

	ts, err := c.paginator.FetchAll(ctx, chatID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byChat[chatID] = ts
	c.mu.Unlock()
	return ts, nil
}

// Invalidate drops one conversation's entry so the next Get re-fetches.
func (c *Cache) Invalidate(chatID int64) {
	c.mu.Lock()
	delete(c.byChat, chatID)
	c.mu.Unlock()
}

// Clear drops every entry (full tree reload).
func (c *Cache) Clear() {
	c.mu.Lock()
	c.byChat = map[int64][]Topic{}
	c.mu.Unlock()
}
