package vocabulary

import (
	"container/list"
	"sync"
)

// Key identifies one vocabulary element.
type Key struct {
	Type string
	URI  string
}

// idCache is a thread-safe LRU cache of interned element ids.
type idCache struct {
	mu       sync.Mutex
	capacity int
	items    map[Key]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key Key
	id  int64
}

func newIDCache(capacity int) *idCache {
	if capacity < 1 {
		capacity = 1
	}
	return &idCache{
		capacity: capacity,
		items:    make(map[Key]*list.Element),
		order:    list.New(),
	}
}

// get returns the cached id and marks the entry most recently used.
func (c *idCache) get(key Key) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).id, true
}

// put stores id for key, evicting the least recently used entry when full.
func (c *idCache) put(key Key, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).id = id
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.order.Remove(oldest)
		}
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, id: id})
}

func (c *idCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
